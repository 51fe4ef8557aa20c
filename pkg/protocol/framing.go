package protocol

import (
	"bufio"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// FrameKind 流式传输（kcp/tcp）上的帧类型，对应 websocket 的文本/二进制消息
type FrameKind byte

const (
	FrameText   FrameKind = 1
	FrameBinary FrameKind = 2
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	}
	return fmt.Sprintf("FrameKind(%d)", byte(k))
}

// MaxFrameSize 单帧最大负载
const MaxFrameSize = 1 << 20

const maxVarintLen = 10

// AppendFrame 追加一帧：[kind][uvarint 长度][负载]
func AppendFrame(b []byte, kind FrameKind, payload []byte) []byte {
	b = append(b, byte(kind))
	b = protowire.AppendVarint(b, uint64(len(payload)))
	return append(b, payload...)
}

// WriteFrame 写入一帧
func WriteFrame(w io.Writer, kind FrameKind, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return &ProtocolError{Err: ErrFrameTooLarge}
	}
	_, err := w.Write(AppendFrame(make([]byte, 0, len(payload)+1+maxVarintLen), kind, payload))
	return err
}

// ReadFrame 读取一帧
func ReadFrame(r *bufio.Reader) (FrameKind, []byte, error) {
	k, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	kind := FrameKind(k)
	if kind != FrameText && kind != FrameBinary {
		return 0, nil, &ProtocolError{Err: fmt.Errorf("%w: %d", ErrBadFrameKind, k)}
	}

	var hdr [maxVarintLen]byte
	n := 0
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		hdr[n] = c
		n++
		if c < 0x80 {
			break
		}
		if n == maxVarintLen {
			return 0, nil, &ProtocolError{Err: protowire.ParseError(-1)}
		}
	}
	length, m := protowire.ConsumeVarint(hdr[:n])
	if m < 0 {
		return 0, nil, &ProtocolError{Err: protowire.ParseError(m)}
	}
	if length > MaxFrameSize {
		return 0, nil, &ProtocolError{Err: fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return kind, payload, nil
}
