package game

import (
	"time"

	"go.uber.org/zap"
)

// Config 一局的经济与生存参数
type Config struct {
	StartingMoney int
	WorkshopFee   int
	SwitchFee     int

	DecayInterval time.Duration
	RoundDuration time.Duration
	HungerDecay   int
	ThirstDecay   int
	HealthPenalty int
	ReviveVitals  int

	// 排行榜是否包含已死亡的玩家
	LeaderboardIncludeDead bool

	MaxNameLength int
	MaxChatLength int

	// 加入时提交的管理员口令；为空则不允许任何人以管理员身份加入
	AdminKey string
}

// DefaultConfig 参考玩法的默认参数
func DefaultConfig() Config {
	return Config{
		StartingMoney: 50,
		WorkshopFee:   1,
		SwitchFee:     100,
		DecayInterval: 10 * time.Second,
		RoundDuration: 15 * time.Minute,
		HungerDecay:   2,
		ThirstDecay:   3,
		HealthPenalty: 5,
		ReviveVitals:  50,
		MaxNameLength: 24,
		MaxChatLength: 280,
	}
}

// Options 外部协作者
type Options struct {
	Clock     Clock
	Scheduler Scheduler
	Sink      Sink
	Logger    *zap.SugaredLogger
	// NewID 生成挂单 id，默认 uuid
	NewID func() string
}

// Game 权威游戏状态：账本、市场、成交记录与回合控制。
// 所有方法都必须在同一条串行执行线上调用（见 server.Hub）。
type Game struct {
	cfg   Config
	clock Clock
	sched Scheduler
	sink  Sink
	log   *zap.SugaredLogger

	ledger *Ledger
	market *MarketBook
	trades []TradeRecord
	round  round
}

// New 创建游戏状态；进程启动时创建一次
func New(cfg Config, opts Options) *Game {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Game{
		cfg:    cfg,
		clock:  opts.Clock,
		sched:  opts.Scheduler,
		sink:   opts.Sink,
		log:    opts.Logger,
		ledger: NewLedger(),
		market: NewMarketBook(opts.NewID),
	}
}

// Config 当前参数
func (g *Game) Config() Config { return g.cfg }

// SetConfig 热更新参数；计时相关的改动从下一局起生效
func (g *Game) SetConfig(cfg Config) { g.cfg = cfg }

// Snapshot 全量状态副本
func (g *Game) Snapshot() StateUpdate {
	return StateUpdate{Players: g.ledger.Snapshot(), Market: g.market.Snapshot()}
}

// Player 单个玩家的副本
func (g *Game) Player(id PlayerID) (Player, bool) {
	p, ok := g.ledger.Get(id)
	if !ok {
		return Player{}, false
	}
	return p.clone(), true
}

// Trades 本局成交记录副本
func (g *Game) Trades() []TradeRecord {
	out := make([]TradeRecord, len(g.trades))
	copy(out, g.trades)
	return out
}

// broadcastState 每次变更后广播全量快照
func (g *Game) broadcastState() {
	g.sink.Broadcast(g.Snapshot())
}

func (g *Game) notify(to PlayerID, msg, kind string) {
	g.sink.Send(to, Notification{Message: msg, Type: kind})
}

// reject 通知发起者并原样返回错误；调用方保证此前没有任何变更
func (g *Game) reject(to PlayerID, action string, err error) error {
	g.log.Debugw("action rejected", "action", action, "player", to, "code", CodeOf(err), "err", err)
	g.notify(to, err.Error(), NoticeError)
	return err
}

// actor 校验经济动作的发起者：已加入、存活、非管理员
func (g *Game) actor(id PlayerID) (*Player, error) {
	p, ok := g.ledger.Get(id)
	if !ok {
		return nil, newError(CodeNotJoined, "Join the game first")
	}
	if p.IsAdmin() {
		return nil, newError(CodeAdminForbidden, "Admins cannot take part in the economy")
	}
	if !p.Alive {
		return nil, newError(CodePlayerDead, "You are not alive in this round")
	}
	return p, nil
}

// mulCost 计算 a*b，溢出时返回 false
func mulCost(a, b int) (int, bool) {
	if a <= 0 || b <= 0 {
		return 0, a >= 0 && b >= 0
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}
