package client

import "arena/pkg/core"

// Roster 按加入顺序保存玩家
type Roster struct {
	order []string
	byID  map[string]*core.Player
}

// NewRoster 创建空名单
func NewRoster() *Roster {
	return &Roster{byID: make(map[string]*core.Player)}
}

// Put 加入或覆盖，覆盖时保持原有顺序
func (r *Roster) Put(p *core.Player) {
	if p == nil || p.ID == "" {
		return
	}
	if _, ok := r.byID[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.byID[p.ID] = p
}

// Remove 移除玩家
func (r *Roster) Remove(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get 按 ID 查找
func (r *Roster) Get(id string) *core.Player {
	return r.byID[id]
}

// All 按顺序返回全部玩家
func (r *Roster) All() []*core.Player {
	out := make([]*core.Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len 玩家数量
func (r *Roster) Len() int { return len(r.order) }

// Replace 用快照整体替换
func (r *Roster) Replace(players []*core.Player) {
	r.Clear()
	for _, p := range players {
		r.Put(p)
	}
}

// Clear 清空
func (r *Roster) Clear() {
	r.order = r.order[:0]
	clear(r.byID)
}
