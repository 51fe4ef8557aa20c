package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// MinPayloadSize 小于该长度的二进制消息直接拒绝
const MinPayloadSize = 2

type envelope struct {
	Data any    `msgpack:"data,omitempty"`
	Type string `msgpack:"type"`
}

type rawEnvelope struct {
	Data msgpack.RawMessage `msgpack:"data"`
	Type string             `msgpack:"type"`
}

// marshal 规范编码：键排序、紧凑整数、浮点保持 float32
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeClient 编码客户端消息
func EncodeClient(m ClientMessage) ([]byte, error) {
	var data any
	switch m.Type {
	case ClientPing, ClientPong:
	case ClientJoin:
		if m.Join == nil {
			return nil, &ValidationError{Field: "join", Reason: "missing data"}
		}
		data = m.Join
	case ClientDirection:
		if m.Direction == nil {
			return nil, &ValidationError{Field: "direction", Reason: "missing data"}
		}
		data = m.Direction
	case ClientBoost:
		if m.Boost == nil {
			return nil, &ValidationError{Field: "boost", Reason: "missing data"}
		}
		data = m.Boost
	default:
		return nil, &ProtocolError{Type: string(m.Type), Err: ErrUnknownType}
	}
	return marshal(envelope{Data: data, Type: string(m.Type)})
}

// EncodeServer 编码服务器消息
func EncodeServer(m ServerMessage) ([]byte, error) {
	var data any
	switch m.Type {
	case ServerPing, ServerPong:
	case ServerGameState:
		if m.GameState == nil {
			return nil, &ValidationError{Field: "gameState", Reason: "missing data"}
		}
		data = m.GameState
	case ServerPlayerJoined:
		if m.PlayerJoined == nil {
			return nil, &ValidationError{Field: "playerJoined", Reason: "missing data"}
		}
		data = m.PlayerJoined
	case ServerPlayerDied:
		if m.PlayerDied == nil {
			return nil, &ValidationError{Field: "playerDied", Reason: "missing data"}
		}
		data = m.PlayerDied
	default:
		return nil, &ProtocolError{Type: string(m.Type), Err: ErrUnknownType}
	}
	return marshal(envelope{Data: data, Type: string(m.Type)})
}

// decodeEnvelope 校验长度、顶层必须是 map 且带 type
func decodeEnvelope(b []byte) (rawEnvelope, error) {
	if len(b) < MinPayloadSize {
		return rawEnvelope{}, &ProtocolError{Err: ErrShortPayload}
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	c, err := dec.PeekCode()
	if err != nil {
		return rawEnvelope{}, &ProtocolError{Err: err}
	}
	if !msgpcode.IsFixedMap(c) && c != msgpcode.Map16 && c != msgpcode.Map32 {
		return rawEnvelope{}, &ProtocolError{Err: ErrNotObject}
	}
	var env rawEnvelope
	if err := dec.Decode(&env); err != nil {
		return rawEnvelope{}, &ProtocolError{Err: err}
	}
	if env.Type == "" {
		return rawEnvelope{}, &ProtocolError{Err: ErrMissingType}
	}
	return env, nil
}

func decodeData(env rawEnvelope, v any) error {
	if len(env.Data) == 0 {
		return &ProtocolError{Type: env.Type, Err: ErrMissingData}
	}
	if err := msgpack.Unmarshal(env.Data, v); err != nil {
		return &ProtocolError{Type: env.Type, Err: err}
	}
	return nil
}

// DecodeServer 解码服务器消息
// 解码失败返回 *ProtocolError，形状不合法返回 *ValidationError
func DecodeServer(b []byte) (ServerMessage, error) {
	env, err := decodeEnvelope(b)
	if err != nil {
		return ServerMessage{}, err
	}

	msg := ServerMessage{Type: ServerMessageType(env.Type)}
	switch msg.Type {
	case ServerPing, ServerPong:
		return msg, nil

	case ServerGameState:
		var d GameStateData
		if err := decodeData(env, &d); err != nil {
			return ServerMessage{}, err
		}
		if err := d.Validate(); err != nil {
			return ServerMessage{}, err
		}
		msg.GameState = &d

	case ServerPlayerJoined:
		var d PlayerJoinedData
		if err := decodeData(env, &d); err != nil {
			return ServerMessage{}, err
		}
		if err := d.Validate(); err != nil {
			return ServerMessage{}, err
		}
		msg.PlayerJoined = &d

	case ServerPlayerDied:
		var d PlayerDiedData
		if err := decodeData(env, &d); err != nil {
			return ServerMessage{}, err
		}
		if d.ID() == "" {
			return ServerMessage{}, &ValidationError{Field: "player_id", Reason: "empty"}
		}
		msg.PlayerDied = &d

	default:
		return ServerMessage{}, &ProtocolError{Type: env.Type, Err: ErrUnknownType}
	}
	return msg, nil
}

// DecodeClient 解码客户端消息（回环服务器使用）
func DecodeClient(b []byte) (ClientMessage, error) {
	env, err := decodeEnvelope(b)
	if err != nil {
		return ClientMessage{}, err
	}

	msg := ClientMessage{Type: ClientMessageType(env.Type)}
	switch msg.Type {
	case ClientPing, ClientPong:
		return msg, nil

	case ClientJoin:
		var d JoinData
		if err := decodeData(env, &d); err != nil {
			return ClientMessage{}, err
		}
		msg.Join = &d

	case ClientDirection:
		var d DirectionData
		if err := decodeData(env, &d); err != nil {
			return ClientMessage{}, err
		}
		msg.Direction = &d

	case ClientBoost:
		var d BoostData
		if err := decodeData(env, &d); err != nil {
			return ClientMessage{}, err
		}
		msg.Boost = &d

	default:
		return ClientMessage{}, &ProtocolError{Type: env.Type, Err: ErrUnknownType}
	}
	return msg, nil
}

// HexPrefix 返回前 n 个字节的十六进制表示，用于日志
func HexPrefix(b []byte, n int) string {
	if len(b) > n {
		return fmt.Sprintf("%s... (%d bytes)", hex.EncodeToString(b[:n]), len(b))
	}
	return hex.EncodeToString(b)
}
