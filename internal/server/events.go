package server

import "arena/pkg/protocol"

type EventKind int

const (
	EventUnknown EventKind = iota
	EventPing
	EventPong
	EventJoin
	EventDirection
	EventBoost
)

func (k EventKind) String() string {
	switch k {
	case EventPing:
		return "ping"
	case EventPong:
		return "pong"
	case EventJoin:
		return "join"
	case EventDirection:
		return "direction"
	case EventBoost:
		return "boost"
	}
	return "unknown"
}

type ServerEvent struct {
	Kind      EventKind
	Join      *protocol.JoinData
	Direction *protocol.DirectionData
	Boost     *protocol.BoostData
}
