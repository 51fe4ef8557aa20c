package client

import (
	"arena/pkg/core"
	"arena/pkg/protocol"
)

// CommandKind 输入命令类型
type CommandKind int

const (
	CommandDirection CommandKind = iota
	CommandBoost
)

// Command 已发送但尚未被服务器确认的输入
type Command struct {
	Sequence  uint32
	Timestamp int64 // 毫秒
	Kind      CommandKind
	Direction core.Vec2 // 发出时的朝向（单位向量）
	Boosting  bool      // 发出时是否加速
}

// InputBuffer 输入序号与待确认命令
type InputBuffer struct {
	seq       uint32
	pending   []Command
	max       int
	direction core.Vec2
	boosting  bool
}

// NewInputBuffer 创建输入缓冲，max 为待确认命令上限
func NewInputBuffer(max int) *InputBuffer {
	if max <= 0 {
		max = 256
	}
	return &InputBuffer{max: max}
}

// PushDirection 归一化方向并生成新命令，零向量或非有限向量被拒绝且不改变状态
func (b *InputBuffer) PushDirection(dir core.Vec2, timestamp int64) (Command, error) {
	n := dir.Normalize()
	if n.IsZero() {
		return Command{}, &protocol.ValidationError{Field: "direction", Reason: "zero-length or non-finite vector"}
	}
	b.direction = n
	return b.push(Command{Kind: CommandDirection, Timestamp: timestamp, Direction: n, Boosting: b.boosting}), nil
}

// PushBoost 生成加速命令
func (b *InputBuffer) PushBoost(active bool, timestamp int64) Command {
	b.boosting = active
	return b.push(Command{Kind: CommandBoost, Timestamp: timestamp, Direction: b.direction, Boosting: active})
}

func (b *InputBuffer) push(c Command) Command {
	b.seq++
	c.Sequence = b.seq
	b.pending = append(b.pending, c)
	if len(b.pending) > b.max {
		b.pending = b.pending[len(b.pending)-b.max:]
	}
	return c
}

// Acknowledge 丢弃序号 <= seq 的命令，返回剩余命令
func (b *InputBuffer) Acknowledge(seq uint32) []Command {
	remaining := make([]Command, 0, len(b.pending))
	for _, c := range b.pending {
		if c.Sequence > seq {
			remaining = append(remaining, c)
		}
	}
	b.pending = remaining
	return append([]Command(nil), remaining...)
}

// Pending 待确认命令副本
func (b *InputBuffer) Pending() []Command {
	return append([]Command(nil), b.pending...)
}

// Len 待确认命令数量
func (b *InputBuffer) Len() int { return len(b.pending) }

// LastSequence 最近分配的序号
func (b *InputBuffer) LastSequence() uint32 { return b.seq }

// Direction 本地持有的朝向
func (b *InputBuffer) Direction() core.Vec2 { return b.direction }

// Boosting 本地持有的加速状态
func (b *InputBuffer) Boosting() bool { return b.boosting }

// SetDirection 设置初始朝向，不产生命令
func (b *InputBuffer) SetDirection(dir core.Vec2) {
	if n := dir.Normalize(); !n.IsZero() {
		b.direction = n
	}
}

// Reset 清空待确认命令与本地朝向，序号继续递增
func (b *InputBuffer) Reset() {
	b.pending = nil
	b.direction = core.Vec2{}
	b.boosting = false
}
