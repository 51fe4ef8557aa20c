package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrShortPayload  = errors.New("payload too short")
	ErrNotObject     = errors.New("payload is not an object")
	ErrMissingType   = errors.New("missing type tag")
	ErrUnknownType   = errors.New("unknown type tag")
	ErrMissingData   = errors.New("missing data")
	ErrFrameTooLarge = errors.New("frame too large")
	ErrBadFrameKind  = errors.New("bad frame kind")
)

// ProtocolError 无法解码的消息，丢弃并记录，不重试
type ProtocolError struct {
	Type string // 已识别出的类型标签，可能为空
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("protocol error (%s): %v", e.Type, e.Err)
	}
	return fmt.Sprintf("protocol error: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ValidationError 形状不合法的本地输入或快照，丢弃，不发送也不应用
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
