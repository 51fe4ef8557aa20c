package protocol

// 所有结构体字段按 msgpack 键名字典序声明，编码结果即为规范键序。
// 浮点字段一律为 Float32（编码为 float32，解码兼容 float64），可选字段带 omitempty。

// ClientMessageType 客户端消息类型
type ClientMessageType string

const (
	ClientPing      ClientMessageType = "ping"
	ClientPong      ClientMessageType = "pong"
	ClientJoin      ClientMessageType = "join"
	ClientDirection ClientMessageType = "direction"
	ClientBoost     ClientMessageType = "boost"
)

// ServerMessageType 服务器消息类型
type ServerMessageType string

const (
	ServerPing         ServerMessageType = "ping"
	ServerPong         ServerMessageType = "pong"
	ServerGameState    ServerMessageType = "gameState"
	ServerPlayerJoined ServerMessageType = "playerJoined"
	ServerPlayerDied   ServerMessageType = "playerDied"
)

// 心跳文本帧
const (
	PingToken = "ping"
	PongToken = "pong"
)

// Vector2D 线上二维向量
type Vector2D struct {
	X Float32 `msgpack:"x"`
	Y Float32 `msgpack:"y"`
}

// PlayerSkin 加入时携带的皮肤
type PlayerSkin struct {
	ID             string `msgpack:"id"`
	PrimaryColor   string `msgpack:"primaryColor"`
	SecondaryColor string `msgpack:"secondaryColor"`
}

// JoinData 加入请求
type JoinData struct {
	Name      string     `msgpack:"name"`
	Skin      PlayerSkin `msgpack:"skin"`
	Timestamp int64      `msgpack:"timestamp"`
}

// DirectionData 方向输入
type DirectionData struct {
	Direction Vector2D `msgpack:"direction"`
	Sequence  uint32   `msgpack:"sequence"`
	Timestamp int64    `msgpack:"timestamp"`
}

// BoostData 加速输入
type BoostData struct {
	Active    bool   `msgpack:"active"`
	Sequence  uint32 `msgpack:"sequence"`
	Timestamp int64  `msgpack:"timestamp"`
}

// ClientMessage 客户端到服务器的消息（按 Type 取对应字段）
type ClientMessage struct {
	Type      ClientMessageType
	Join      *JoinData
	Direction *DirectionData
	Boost     *BoostData
}

// Retryable 发送失败时是否值得重新入队
func (m ClientMessage) Retryable() bool {
	return m.Type == ClientJoin || m.Type == ClientDirection
}

// IsControl ping/pong 走文本帧
func (m ClientMessage) IsControl() bool {
	return m.Type == ClientPing || m.Type == ClientPong
}

// NewJoin 构造加入消息
func NewJoin(name string, skin PlayerSkin, timestamp int64) ClientMessage {
	return ClientMessage{Type: ClientJoin, Join: &JoinData{Name: name, Skin: skin, Timestamp: timestamp}}
}

// NewDirection 构造方向消息
func NewDirection(dir Vector2D, seq uint32, timestamp int64) ClientMessage {
	return ClientMessage{Type: ClientDirection, Direction: &DirectionData{Direction: dir, Sequence: seq, Timestamp: timestamp}}
}

// NewBoost 构造加速消息
func NewBoost(active bool, seq uint32, timestamp int64) ClientMessage {
	return ClientMessage{Type: ClientBoost, Boost: &BoostData{Active: active, Sequence: seq, Timestamp: timestamp}}
}

// SegmentState 蛇身节点
type SegmentState struct {
	Position Vector2D `msgpack:"position"`
}

// PlayerState 快照中的玩家
type PlayerState struct {
	Boosting       bool           `msgpack:"boosting"`
	Direction      Vector2D       `msgpack:"direction"`
	ID             string         `msgpack:"id"`
	LastKillTime   *int64         `msgpack:"lastKillTime,omitempty"`
	Name           string         `msgpack:"name"`
	PrimaryColor   string         `msgpack:"primary_color"`
	Score          Float32        `msgpack:"score"`
	SecondaryColor string         `msgpack:"secondary_color"`
	Segments       []SegmentState `msgpack:"segments"`
	Tokens         uint32         `msgpack:"tokens"`
}

// FoodState 快照中的食物
type FoodState struct {
	Color    string   `msgpack:"color"`
	ID       string   `msgpack:"id"`
	Position Vector2D `msgpack:"position"`
	Size     Float32  `msgpack:"size"`
}

// TokenState 快照中的代币
type TokenState struct {
	Collectible bool     `msgpack:"collectible"`
	Color       string   `msgpack:"color"`
	ID          string   `msgpack:"id"`
	Position    Vector2D `msgpack:"position"`
	Size        Float32  `msgpack:"size"`
	SpawnTime   int64    `msgpack:"spawn_time"`
	Value       Float32  `msgpack:"value"`
}

// GameStateData 权威快照
// Players/Food 用指针区分“缺失”和“空数组”
type GameStateData struct {
	Food               *[]FoodState   `msgpack:"food"`
	LastProcessedInput *uint32        `msgpack:"lastProcessedInput,omitempty"`
	MapSize            *Float32       `msgpack:"map_size,omitempty"`
	NextCircleShrink   *int64         `msgpack:"next_circle_shrink,omitempty"`
	Players            *[]PlayerState `msgpack:"players"`
	Tokens             []TokenState   `msgpack:"tokens,omitempty"`
}

// Validate 检查快照形状
func (g *GameStateData) Validate() error {
	if g == nil {
		return &ValidationError{Field: "gameState", Reason: "missing"}
	}
	if g.Players == nil {
		return &ValidationError{Field: "players", Reason: "missing array"}
	}
	if g.Food == nil {
		return &ValidationError{Field: "food", Reason: "missing array"}
	}
	return nil
}

// PlayerJoinedData 玩家加入
type PlayerJoinedData struct {
	Player *PlayerState `msgpack:"player"`
}

// Validate 检查加入消息
func (p *PlayerJoinedData) Validate() error {
	if p == nil || p.Player == nil {
		return &ValidationError{Field: "player", Reason: "missing"}
	}
	if p.Player.ID == "" {
		return &ValidationError{Field: "player.id", Reason: "empty"}
	}
	return nil
}

// PlayerDiedData 玩家死亡
// 服务器实际发送 player_id，消息定义写的是 playerId，两者都接受
type PlayerDiedData struct {
	PlayerIDCamel string `msgpack:"playerId,omitempty"`
	PlayerID      string `msgpack:"player_id,omitempty"`
}

// ID 返回死亡玩家 ID
func (p *PlayerDiedData) ID() string {
	if p == nil {
		return ""
	}
	if p.PlayerID != "" {
		return p.PlayerID
	}
	return p.PlayerIDCamel
}

// ServerMessage 服务器到客户端的消息（已校验的类型化结果）
type ServerMessage struct {
	Type         ServerMessageType
	GameState    *GameStateData
	PlayerJoined *PlayerJoinedData
	PlayerDied   *PlayerDiedData
}
