package core

// Segment 蛇身的一节
type Segment struct {
	Position Vec2
}

// Player 玩家实体
// 本地玩家在两次快照之间被预测修改，其他玩家只会被快照整体替换
type Player struct {
	ID             string
	Name           string
	Score          float64
	Segments       []Segment // Segments[0] 为头部
	Direction      Vec2
	Boosting       bool
	PrimaryColor   string
	SecondaryColor string
	Tokens         int
	LastKillTime   int64 // 毫秒时间戳，0 表示无
}

// Head 返回头部位置
func (p *Player) Head() (Vec2, bool) {
	if p == nil || len(p.Segments) == 0 {
		return Vec2{}, false
	}
	return p.Segments[0].Position, true
}

// SetHead 修改头部位置，无蛇身时忽略
func (p *Player) SetHead(pos Vec2) {
	if p == nil || len(p.Segments) == 0 {
		return
	}
	p.Segments[0].Position = pos
}

// Clone 深拷贝
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Segments = append([]Segment(nil), p.Segments...)
	return &cp
}

// Width 按分数计算蛇身宽度
func (p *Player) Width() float64 {
	w := BaseSnakeWidth * (1 + p.Score*WidthGrowthFactor)
	if w > MaxSnakeWidth {
		return MaxSnakeWidth
	}
	return w
}

// NewSnake 在 pos 处创建初始长度的蛇身，沿 -X 方向排列
func NewSnake(pos Vec2) []Segment {
	segments := make([]Segment, InitialSnakeLength)
	for i := range segments {
		segments[i].Position = Vec2{pos.X - float64(i)*SegmentGap, pos.Y}
	}
	return segments
}
