package ai

// Status 节点执行状态
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

// Node 行为树节点
type Node interface {
	Tick(bb *Blackboard) Status
}

// Sequence 顺序节点：遇到非 Success 即返回
type Sequence []Node

func (s Sequence) Tick(bb *Blackboard) Status {
	for _, child := range s {
		if status := child.Tick(bb); status != StatusSuccess {
			return status
		}
	}
	return StatusSuccess
}

// Selector 选择节点：遇到非 Failure 即返回
type Selector []Node

func (s Selector) Tick(bb *Blackboard) Status {
	for _, child := range s {
		if status := child.Tick(bb); status != StatusFailure {
			return status
		}
	}
	return StatusFailure
}

// Action 动作节点
type Action func(bb *Blackboard) Status

func (a Action) Tick(bb *Blackboard) Status { return a(bb) }

// Condition 条件节点
type Condition func(bb *Blackboard) bool

func (c Condition) Tick(bb *Blackboard) Status {
	if c(bb) {
		return StatusSuccess
	}
	return StatusFailure
}
