package game

import (
	"fmt"
	"sort"
	"time"
)

// Phase 回合状态。结束（ended）只是一次迁移，落地后回到 idle
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
)

func (p Phase) String() string {
	if p == PhaseRunning {
		return "running"
	}
	return "idle"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// round 回合控制器持有的状态与定时任务句柄
type round struct {
	phase     Phase
	number    uint64 // 每次开局自增，同时作为定时回调的代号
	startedAt time.Time
	endTime   time.Time
	decay     Timer
	timer     Timer
}

// Phase 当前回合状态
func (g *Game) Phase() Phase { return g.round.phase }

// Running 是否有回合进行中
func (g *Game) Running() bool { return g.round.phase == PhaseRunning }

// Round 当前（或上一局）的编号
func (g *Game) Round() uint64 { return g.round.number }

// RoundEndTime 进行中回合的结束时间
func (g *Game) RoundEndTime() (time.Time, bool) {
	if !g.Running() {
		return time.Time{}, false
	}
	return g.round.endTime, true
}

func (g *Game) roundEndTimePtr() *time.Time {
	if t, ok := g.RoundEndTime(); ok {
		return &t
	}
	return nil
}

// startRound idle -> running：重置玩家、清空市场与成交记录、启动衰减与回合计时
func (g *Game) startRound() error {
	if g.Running() {
		return newError(CodeRoundRunning, "A round is already running")
	}
	g.stopTimers()

	now := g.clock.Now()
	for _, p := range g.ledger.Ordered() {
		if p.IsAdmin() {
			continue
		}
		p.resetForRound(g.cfg.StartingMoney)
	}
	g.market.Reset()
	g.trades = nil

	g.round.number++
	g.round.phase = PhaseRunning
	g.round.startedAt = now
	g.round.endTime = now.Add(g.cfg.RoundDuration)

	gen := g.round.number
	if g.sched != nil {
		if g.cfg.DecayInterval > 0 {
			g.round.decay = g.sched.Every(g.cfg.DecayInterval, func() { g.decayTick(gen) })
		}
		g.round.timer = g.sched.AfterFunc(g.cfg.RoundDuration, func() { g.roundTimeout(gen) })
	}

	g.log.Infow("round started", "round", gen, "players", g.ledger.Len(), "endTime", g.round.endTime)
	g.broadcastState()
	g.sink.Broadcast(RoundStarted{RoundEndTime: g.round.endTime})
	return nil
}

// endRound running -> idle：停止定时任务、计算并广播排行榜
func (g *Game) endRound(reason EndReason) error {
	if !g.Running() {
		return newError(CodeRoundNotRunning, "No round is running")
	}
	g.stopTimers()
	g.round.phase = PhaseIdle

	ev := RoundEnded{
		Round:       g.round.number,
		Reason:      reason,
		StartedAt:   g.round.startedAt,
		EndedAt:     g.clock.Now(),
		Trades:      len(g.trades),
		Leaderboard: g.leaderboard(),
	}
	g.log.Infow("round ended", "round", ev.Round, "reason", reason, "trades", ev.Trades, "ranked", len(ev.Leaderboard))
	g.sink.Broadcast(ev)

	switch reason {
	case EndAdmin:
		g.sink.Broadcast(Notification{Message: "Admin ended the round", Type: NoticeInfo})
	case EndAdminLeft:
		g.sink.Broadcast(Notification{Message: "Admin left -> round ended", Type: NoticeError})
	case EndTimeout:
		g.sink.Broadcast(Notification{Message: "Time's up! Round over.", Type: NoticeInfo})
	case EndWinner:
		msg := "Nobody survived the round."
		if len(ev.Leaderboard) > 0 && ev.Leaderboard[0].Alive {
			msg = fmt.Sprintf("%s is the last one standing!", ev.Leaderboard[0].Name)
		}
		g.sink.Broadcast(Notification{Message: msg, Type: NoticeInfo})
	}
	return nil
}

func (g *Game) stopTimers() {
	if g.round.decay != nil {
		g.round.decay.Stop()
		g.round.decay = nil
	}
	if g.round.timer != nil {
		g.round.timer.Stop()
		g.round.timer = nil
	}
}

// roundTimeout 回合计时到期；过期代号的回调直接丢弃
func (g *Game) roundTimeout(gen uint64) {
	if !g.Running() || g.round.number != gen {
		return
	}
	_ = g.endRound(EndTimeout)
}

// decayTick 一次体征衰减：只作用于存活的非管理员玩家
func (g *Game) decayTick(gen uint64) {
	if !g.Running() || g.round.number != gen {
		return
	}
	now := g.clock.Now()
	for _, p := range g.ledger.Ordered() {
		if p.IsAdmin() || !p.Alive {
			continue
		}
		p.Hunger = clampVital(p.Hunger - g.cfg.HungerDecay)
		p.Thirst = clampVital(p.Thirst - g.cfg.ThirstDecay)
		if p.Hunger == 0 || p.Thirst == 0 {
			p.Health = clampVital(p.Health - g.cfg.HealthPenalty)
		}
		if p.Health == 0 {
			p.Alive = false
			t := now
			p.DeathTime = &t
			g.log.Infow("player died", "round", gen, "player", p.ID, "name", p.Name)
			g.sink.Broadcast(PlayerDied{ID: p.ID, Name: p.Name, At: now})
		}
	}
	g.checkWinCondition()
	g.broadcastState()
}

// checkWinCondition 两名及以上非管理员玩家中至多一人存活时结束回合
func (g *Game) checkWinCondition() bool {
	total, alive := 0, 0
	for _, p := range g.ledger.Ordered() {
		if p.IsAdmin() {
			continue
		}
		total++
		if p.Alive {
			alive++
		}
	}
	if total >= 2 && alive <= 1 {
		_ = g.endRound(EndWinner)
		return true
	}
	return false
}

// leaderboard 按金钱降序；同额时存活者在前，死亡者按死亡时间升序（最近死亡的排最后），再按加入顺序
func (g *Game) leaderboard() []LeaderboardEntry {
	var ranked []*Player
	for _, p := range g.ledger.Ordered() {
		if p.IsAdmin() {
			continue
		}
		if !p.Alive && !g.cfg.LeaderboardIncludeDead {
			continue
		}
		ranked = append(ranked, p)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Money != b.Money {
			return a.Money > b.Money
		}
		if a.Alive != b.Alive {
			return a.Alive
		}
		if a.DeathTime != nil && b.DeathTime != nil && !a.DeathTime.Equal(*b.DeathTime) {
			return a.DeathTime.Before(*b.DeathTime)
		}
		return a.seq < b.seq
	})
	out := make([]LeaderboardEntry, 0, len(ranked))
	for i, p := range ranked {
		c := p.clone()
		out = append(out, LeaderboardEntry{
			Rank:      i + 1,
			ID:        c.ID,
			Name:      c.Name,
			Business:  c.Business,
			Money:     c.Money,
			Alive:     c.Alive,
			DeathTime: c.DeathTime,
		})
	}
	return out
}
