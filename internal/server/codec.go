package server

import (
	"fmt"

	"arena/pkg/protocol"
)

// DecodePacket 解析客户端发来的一帧
// 文本帧只有 ping/pong，其余走二进制信封
func DecodePacket(kind protocol.FrameKind, data []byte) (*ServerEvent, error) {
	if kind == protocol.FrameText {
		switch string(data) {
		case protocol.PingToken:
			return &ServerEvent{Kind: EventPing}, nil
		case protocol.PongToken:
			return &ServerEvent{Kind: EventPong}, nil
		default:
			return &ServerEvent{Kind: EventUnknown}, nil
		}
	}

	msg, err := protocol.DecodeClient(data)
	if err != nil {
		return nil, fmt.Errorf("解析包失败: %w", err)
	}

	switch msg.Type {
	case protocol.ClientJoin:
		return &ServerEvent{Kind: EventJoin, Join: msg.Join}, nil
	case protocol.ClientDirection:
		return &ServerEvent{Kind: EventDirection, Direction: msg.Direction}, nil
	case protocol.ClientBoost:
		return &ServerEvent{Kind: EventBoost, Boost: msg.Boost}, nil
	case protocol.ClientPing:
		return &ServerEvent{Kind: EventPing}, nil
	case protocol.ClientPong:
		return &ServerEvent{Kind: EventPong}, nil
	default:
		return &ServerEvent{Kind: EventUnknown}, nil
	}
}

// encodeGameState 编码某个连接的快照，lastInput 为 nil 时不带确认序号
func encodeGameState(players []protocol.PlayerState, food []protocol.FoodState, tokens []protocol.TokenState,
	mapSize protocol.Float32, nextShrink int64, lastInput *uint32) ([]byte, error) {
	gs := &protocol.GameStateData{
		Food:               &food,
		LastProcessedInput: lastInput,
		MapSize:            &mapSize,
		Players:            &players,
		Tokens:             tokens,
	}
	if nextShrink > 0 {
		gs.NextCircleShrink = &nextShrink
	}
	return protocol.EncodeServer(protocol.ServerMessage{Type: protocol.ServerGameState, GameState: gs})
}

func encodePlayerJoined(p protocol.PlayerState) ([]byte, error) {
	return protocol.EncodeServer(protocol.ServerMessage{
		Type:         protocol.ServerPlayerJoined,
		PlayerJoined: &protocol.PlayerJoinedData{Player: &p},
	})
}

func encodePlayerDied(id string) ([]byte, error) {
	return protocol.EncodeServer(protocol.ServerMessage{
		Type:       protocol.ServerPlayerDied,
		PlayerDied: &protocol.PlayerDiedData{PlayerID: id},
	})
}
