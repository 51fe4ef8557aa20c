package server

import "arena/pkg/protocol"

// Session 世界循环向连接发送消息的接口
type Session interface {
	ID() int64
	Send(kind protocol.FrameKind, data []byte) error
	Close()
}
