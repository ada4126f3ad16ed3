package server

import (
	"fmt"

	"marketsurvival/game"
	"marketsurvival/protocol"
)

// dispatch 把已校验的消息路由到游戏操作，返回动作名（用于指标）与结果。
// 游戏操作自己负责拒绝时的错误通知。
func (h *Hub) dispatch(id game.PlayerID, msg protocol.Message) (string, error) {
	g := h.game
	switch p := msg.Payload.(type) {
	case *protocol.JoinPayload:
		return game.ActionJoin, g.Join(id, p.Name, p.BusinessType, p.AdminKey)
	case *protocol.BuyRawPayload:
		return game.ActionBuyRaw, g.BuyRaw(id, p.Material, p.Quantity)
	case *protocol.ProducePayload:
		return game.ActionProduce, g.Produce(id)
	case *protocol.SwitchBusinessPayload:
		return game.ActionSwitchBusiness, g.SwitchBusiness(id, p.NewBusinessType)
	case *protocol.ListMarketPayload:
		return game.ActionListMarket, g.ListMarket(id, p.Item, p.Quantity, p.Price)
	case *protocol.CancelListingPayload:
		return game.ActionCancelListing, g.CancelListing(id, p.ListingID)
	case *protocol.BuyMarketPayload:
		return game.ActionBuyMarket, g.BuyMarket(id, p.ListingID, p.Quantity)
	case *protocol.ConsumePayload:
		return game.ActionConsume, g.Consume(id, p.Item)
	case *protocol.ChatPayload:
		return game.ActionChat, g.Chat(id, p.Message)
	case *protocol.AdminStartRoundPayload:
		return game.ActionAdminStartRound, g.AdminStartRound(id)
	case *protocol.AdminEndRoundPayload:
		return game.ActionAdminEndRound, g.AdminEndRound(id)
	case *protocol.AdminRevivePayload:
		return game.ActionAdminRevive, g.AdminRevive(id, game.PlayerID(p.PlayerID))
	case *protocol.AdminDonatePayload:
		return game.ActionAdminDonate, g.AdminDonate(id, game.PlayerID(p.PlayerID), p.Amount)
	default:
		return msg.Type, fmt.Errorf("server: no handler for %q", msg.Type)
	}
}
