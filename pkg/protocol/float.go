package protocol

import "github.com/vmihailenco/msgpack/v5"

// Float32 线上浮点数：编码固定为 float32，解码接受任意数值宽度（float32/float64/整数）
type Float32 float32

var (
	_ msgpack.CustomEncoder = Float32(0)
	_ msgpack.CustomDecoder = (*Float32)(nil)
)

func (f Float32) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeFloat32(float32(f))
}

func (f *Float32) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeFloat64()
	if err != nil {
		return err
	}
	*f = Float32(v)
	return nil
}
