package game

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	ActionJoin  = "join"
	ActionLeave = "leave"
	ActionChat  = "chat"
)

// Join 登记新连接。携带正确管理员口令的连接成为管理员（spectator，不参与经济与衰减）；
// 回合进行中加入的普通玩家要等下一局才存活。
func (g *Game) Join(id PlayerID, name, businessType, adminKey string) error {
	if _, ok := g.ledger.Get(id); ok {
		return g.reject(id, ActionJoin, newError(CodeAlreadyJoined, "Already joined"))
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > g.cfg.MaxNameLength {
		return g.reject(id, ActionJoin, newError(CodeInvalidName, fmt.Sprintf("Name must be 1-%d characters", g.cfg.MaxNameLength)))
	}
	isAdmin := false
	if adminKey != "" {
		if g.cfg.AdminKey == "" || subtle.ConstantTimeCompare([]byte(adminKey), []byte(g.cfg.AdminKey)) != 1 {
			return g.reject(id, ActionJoin, newError(CodeNotAdmin, "Invalid admin key"))
		}
		isAdmin = true
	}

	now := g.clock.Now()
	p := &Player{
		ID:       id,
		Name:     name,
		Role:     RoleStandard,
		Money:    g.cfg.StartingMoney,
		Vitals:   fullVitals(),
		Alive:    !g.Running(),
		JoinTime: now,
	}
	if isAdmin {
		p.Role = RoleAdmin
		p.Business = Spectator
		p.Money = 0
		p.Alive = false
	} else {
		b, err := ParseBusiness(businessType)
		if err != nil {
			return g.reject(id, ActionJoin, err)
		}
		p.Business = b
	}
	g.ledger.Add(p)

	g.log.Infow("player joined", "player", id, "name", name, "role", p.Role, "business", p.Business)
	g.sink.Send(id, Joined{Player: p.clone(), GameStarted: g.Running(), RoundEndTime: g.roundEndTimePtr()})
	if !isAdmin {
		if g.Running() {
			g.notify(id, "Round in progress. You will join the next one.", NoticeInfo)
		} else {
			g.notify(id, "Waiting for admin to start round...", NoticeInfo)
		}
	}
	g.broadcastState()
	return nil
}

// Leave 连接断开：移除玩家并清掉其挂单（货物随卖家一起消失）；
// 管理员在回合进行中离开会强制结束回合。
func (g *Game) Leave(id PlayerID) error {
	p, ok := g.ledger.Get(id)
	if !ok {
		return ErrNotJoined
	}
	if p.IsAdmin() && g.Running() {
		_ = g.endRound(EndAdminLeft)
	}
	g.ledger.Remove(id)
	purged := g.market.RemoveBySeller(id)

	g.log.Infow("player left", "player", id, "name", p.Name, "listingsPurged", len(purged))
	g.broadcastState()
	return nil
}

// Chat 广播聊天消息；死亡玩家也可以说话
func (g *Game) Chat(id PlayerID, message string) error {
	p, ok := g.ledger.Get(id)
	if !ok {
		return g.reject(id, ActionChat, newError(CodeNotJoined, "Join the game first"))
	}
	message = strings.TrimSpace(message)
	if message == "" || utf8.RuneCountInString(message) > g.cfg.MaxChatLength {
		return g.reject(id, ActionChat, newError(CodeInvalidMessage, fmt.Sprintf("Message must be 1-%d characters", g.cfg.MaxChatLength)))
	}
	g.sink.Broadcast(ChatMessage{Name: p.Name, Message: message})
	return nil
}
