package client

import (
	"errors"
	"fmt"
)

var (
	ErrRetriesExhausted = errors.New("重连次数已用尽")
	ErrPongTimeout      = errors.New("心跳超时")
	ErrMessageTimeout   = errors.New("等待服务器消息超时")
	ErrPlayerDied       = errors.New("本地玩家死亡")
	ErrNoPlayer         = errors.New("没有本地玩家")
	ErrClosed           = errors.New("连接已关闭")
)

// ConnectionError 连接层失败：拨号、读写、心跳或重连耗尽
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StateError 没有会话或本地玩家时的操作，调用方应当作空操作处理
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }
