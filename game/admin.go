package game

import (
	"fmt"
	"math"
)

const (
	ActionAdminStartRound = "adminStartRound"
	ActionAdminEndRound   = "adminEndRound"
	ActionAdminRevive     = "adminRevive"
	ActionAdminDonate     = "adminDonate"
)

// admin 校验管理员身份；管理员动作不受经济动作的限制
func (g *Game) admin(id PlayerID) (*Player, error) {
	p, ok := g.ledger.Get(id)
	if !ok {
		return nil, newError(CodeNotJoined, "Join the game first")
	}
	if !p.IsAdmin() {
		return nil, newError(CodeNotAdmin, "Admin only")
	}
	return p, nil
}

// AdminStartRound 开始新一局（仅 idle 时允许）
func (g *Game) AdminStartRound(id PlayerID) error {
	if _, err := g.admin(id); err != nil {
		return g.reject(id, ActionAdminStartRound, err)
	}
	if err := g.startRound(); err != nil {
		return g.reject(id, ActionAdminStartRound, err)
	}
	g.sink.Broadcast(Notification{Message: "New round started", Type: NoticeInfo})
	return nil
}

// AdminEndRound 提前结束进行中的回合
func (g *Game) AdminEndRound(id PlayerID) error {
	if _, err := g.admin(id); err != nil {
		return g.reject(id, ActionAdminEndRound, err)
	}
	if err := g.endRound(EndAdmin); err != nil {
		return g.reject(id, ActionAdminEndRound, err)
	}
	return nil
}

// AdminRevive 复活玩家：体征重置为 ReviveVitals，不受回合状态限制
func (g *Game) AdminRevive(id, target PlayerID) error {
	if _, err := g.admin(id); err != nil {
		return g.reject(id, ActionAdminRevive, err)
	}
	p, ok := g.ledger.Get(target)
	if !ok {
		return g.reject(id, ActionAdminRevive, newError(CodePlayerNotFound, "Player not found"))
	}
	if p.IsAdmin() {
		return g.reject(id, ActionAdminRevive, newError(CodeAdminForbidden, "Admins cannot be revived"))
	}

	v := clampVital(g.cfg.ReviveVitals)
	p.Alive = true
	p.Vitals = Vitals{Health: v, Hunger: v, Thirst: v}
	p.DeathTime = nil

	g.log.Infow("player revived", "admin", id, "player", target)
	g.broadcastState()
	g.notify(id, fmt.Sprintf("Revived %s", p.Name), NoticeSuccess)
	g.notify(target, "An admin revived you!", NoticeSuccess)
	return nil
}

// AdminDonate 无条件给玩家加钱
func (g *Game) AdminDonate(id, target PlayerID, amount int) error {
	if _, err := g.admin(id); err != nil {
		return g.reject(id, ActionAdminDonate, err)
	}
	p, ok := g.ledger.Get(target)
	if !ok {
		return g.reject(id, ActionAdminDonate, newError(CodePlayerNotFound, "Player not found"))
	}
	if amount <= 0 || amount > math.MaxInt-p.Money {
		return g.reject(id, ActionAdminDonate, newError(CodeInvalidAmount, "Amount must be a positive whole number"))
	}

	p.Money += amount

	g.log.Infow("donation", "admin", id, "player", target, "amount", amount)
	g.broadcastState()
	g.notify(id, fmt.Sprintf("Donated $%d to %s", amount, p.Name), NoticeSuccess)
	g.notify(target, fmt.Sprintf("Admin donated $%d to you!", amount), NoticeSuccess)
	return nil
}
