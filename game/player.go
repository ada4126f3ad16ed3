package game

import (
	"sort"
	"time"
)

// PlayerID 连接级身份，连接断开即失效
type PlayerID string

// Role 玩家角色
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// MaxVital 体征上限
const MaxVital = 100

// Vitals 生存体征，均在 [0,100]
type Vitals struct {
	Health int `json:"health"`
	Hunger int `json:"hunger"`
	Thirst int `json:"thirst"`
}

func fullVitals() Vitals { return Vitals{Health: MaxVital, Hunger: MaxVital, Thirst: MaxVital} }

func clampVital(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxVital {
		return MaxVital
	}
	return v
}

// apply 叠加消费效果并裁剪到上限
func (v *Vitals) apply(e Effect) {
	v.Health = clampVital(v.Health + e.Health)
	v.Hunger = clampVital(v.Hunger + e.Hunger)
	v.Thirst = clampVital(v.Thirst + e.Thirst)
}

// Inventory 三类互不相通的库存
type Inventory struct {
	RawMaterials   MaterialStock `json:"rawMaterials"`
	FinishedGoods  GoodStock     `json:"finishedGoods"`  // 自产，可上架
	PurchasedGoods GoodStock     `json:"purchasedGoods"` // 市场买入，只能消费
}

// Player 玩家记录（服务端权威状态）
type Player struct {
	ID        PlayerID   `json:"id"`
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	Business  Business   `json:"businessType"`
	Money     int        `json:"money"`
	Vitals               // 展平为 health/hunger/thirst
	Alive     bool       `json:"alive"`
	JoinTime  time.Time  `json:"joinTime"`
	DeathTime *time.Time `json:"deathTime"`
	Inventory Inventory  `json:"inventory"`

	seq uint64
}

// IsAdmin 是否管理员
func (p *Player) IsAdmin() bool { return p.Role == RoleAdmin }

// clone 返回与内部状态无共享的副本
func (p *Player) clone() Player {
	c := *p
	if p.DeathTime != nil {
		t := *p.DeathTime
		c.DeathTime = &t
	}
	return c
}

// resetForRound 回到开局默认值
func (p *Player) resetForRound(startingMoney int) {
	p.Money = startingMoney
	p.Vitals = fullVitals()
	p.Alive = true
	p.DeathTime = nil
	p.Inventory = Inventory{}
}

// Ledger 连接身份 -> 玩家记录
type Ledger struct {
	players map[PlayerID]*Player
	seq     uint64
}

// NewLedger 创建空账本
func NewLedger() *Ledger {
	return &Ledger{players: make(map[PlayerID]*Player)}
}

// Add 登记玩家；同一身份重复登记返回 false
func (l *Ledger) Add(p *Player) bool {
	if _, ok := l.players[p.ID]; ok {
		return false
	}
	l.seq++
	p.seq = l.seq
	l.players[p.ID] = p
	return true
}

func (l *Ledger) Get(id PlayerID) (*Player, bool) {
	p, ok := l.players[id]
	return p, ok
}

func (l *Ledger) Remove(id PlayerID) (*Player, bool) {
	p, ok := l.players[id]
	if ok {
		delete(l.players, id)
	}
	return p, ok
}

func (l *Ledger) Len() int { return len(l.players) }

// Ordered 按加入顺序返回全部玩家，保证遍历确定性
func (l *Ledger) Ordered() []*Player {
	out := make([]*Player, 0, len(l.players))
	for _, p := range l.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Snapshot 所有玩家的副本
func (l *Ledger) Snapshot() map[PlayerID]Player {
	out := make(map[PlayerID]Player, len(l.players))
	for id, p := range l.players {
		out[id] = p.clone()
	}
	return out
}

// TotalMoney 流通中的货币总量（守恒校验用）
func (l *Ledger) TotalMoney() int {
	total := 0
	for _, p := range l.players {
		total += p.Money
	}
	return total
}
