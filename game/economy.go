package game

import (
	"fmt"
	"strings"
)

// 经济动作名，用于日志与指标
const (
	ActionBuyRaw         = "buyRaw"
	ActionProduce        = "produce"
	ActionSwitchBusiness = "switchBusiness"
	ActionListMarket     = "listMarket"
	ActionCancelListing  = "cancelListing"
	ActionBuyMarket      = "buyMarket"
	ActionConsume        = "consume"
)

// 每个经济动作都是“先全部校验、再一次性变更”的同步单元，中途不会让出执行线。
// 校验失败时状态不变，并单播 error 通知给发起者。

// BuyRaw 从系统商店购买原材料
func (g *Game) BuyRaw(id PlayerID, material string, quantity int) error {
	p, err := g.actor(id)
	if err != nil {
		return g.reject(id, ActionBuyRaw, err)
	}
	m, err := ParseMaterial(material)
	if err != nil {
		return g.reject(id, ActionBuyRaw, err)
	}
	if quantity <= 0 {
		return g.reject(id, ActionBuyRaw, newError(CodeInvalidQuantity, "Quantity must be a positive whole number"))
	}
	cost, ok := mulCost(ShopPrice(m), quantity)
	if !ok || p.Money < cost {
		return g.reject(id, ActionBuyRaw, newError(CodeInsufficientFunds, "Insufficient money!"))
	}

	p.Money -= cost
	p.Inventory.RawMaterials[m] += quantity

	g.notify(id, fmt.Sprintf("Bought %d %s for $%d", quantity, m, cost), NoticeSuccess)
	g.broadcastState()
	return nil
}

// Produce 按当前业务配方生产一件成品，收取固定工坊费
func (g *Game) Produce(id PlayerID) error {
	p, err := g.actor(id)
	if err != nil {
		return g.reject(id, ActionProduce, err)
	}
	recipe, ok := RecipeFor(p.Business)
	if !ok {
		return g.reject(id, ActionProduce, newError(CodeUnknownBusiness, fmt.Sprintf("Business %q has no recipe", p.Business)))
	}
	fee := g.cfg.WorkshopFee
	if p.Money < fee {
		return g.reject(id, ActionProduce, newError(CodeInsufficientFunds, "Insufficient money for workshop fee!"))
	}
	// 所有原料先校验完再扣减
	var missing []string
	for m, need := range recipe.Inputs {
		if p.Inventory.RawMaterials[m] < need {
			missing = append(missing, Material(m).String())
		}
	}
	if len(missing) > 0 {
		return g.reject(id, ActionProduce, newError(CodeInsufficientMats, fmt.Sprintf("Insufficient %s!", strings.Join(missing, ", "))))
	}

	for m, need := range recipe.Inputs {
		p.Inventory.RawMaterials[m] -= need
	}
	p.Money -= fee
	p.Inventory.FinishedGoods[recipe.Output]++

	g.notify(id, fmt.Sprintf("Produced 1 %s", recipe.Output), NoticeSuccess)
	g.broadcastState()
	return nil
}

// SwitchBusiness 付费更换业务，同时撤回自己的全部挂单
func (g *Game) SwitchBusiness(id PlayerID, newType string) error {
	p, err := g.actor(id)
	if err != nil {
		return g.reject(id, ActionSwitchBusiness, err)
	}
	b, err := ParseBusiness(newType)
	if err != nil {
		return g.reject(id, ActionSwitchBusiness, err)
	}
	if b == p.Business {
		return g.reject(id, ActionSwitchBusiness, newError(CodeNoOp, "You already own this business!"))
	}
	if p.Money < g.cfg.SwitchFee {
		return g.reject(id, ActionSwitchBusiness, newError(CodeInsufficientFunds, fmt.Sprintf("Insufficient funds! Need $%d to switch.", g.cfg.SwitchFee)))
	}

	p.Money -= g.cfg.SwitchFee
	for _, l := range g.market.RemoveBySeller(id) {
		p.Inventory.FinishedGoods[l.Item] += l.Quantity
	}
	old := p.Business
	p.Business = b

	g.log.Infow("business switched", "player", id, "from", old, "to", b)
	g.notify(id, fmt.Sprintf("Business switched from %s to %s!", old.Label(), b.Label()), NoticeSuccess)
	g.sink.Send(id, BusinessSwitched{BusinessType: b})
	g.broadcastState()
	return nil
}

// ListMarket 将自产成品挂到市场
func (g *Game) ListMarket(id PlayerID, item string, quantity, price int) error {
	p, err := g.actor(id)
	if err != nil {
		return g.reject(id, ActionListMarket, err)
	}
	good, err := ParseGood(item)
	if err != nil {
		return g.reject(id, ActionListMarket, err)
	}
	if quantity <= 0 {
		return g.reject(id, ActionListMarket, newError(CodeInvalidQuantity, "Quantity must be a positive whole number"))
	}
	if price <= 0 {
		return g.reject(id, ActionListMarket, newError(CodeInvalidPrice, "Price must be a positive whole number"))
	}
	if p.Inventory.FinishedGoods[good] < quantity {
		return g.reject(id, ActionListMarket, newError(CodeInsufficientGoods, "Insufficient finished goods!"))
	}

	p.Inventory.FinishedGoods[good] -= quantity
	l := g.market.Add(p, good, quantity, price, g.clock.Now())

	g.log.Debugw("listing created", "listing", l.ID, "seller", id, "item", good, "quantity", quantity, "price", price)
	g.notify(id, fmt.Sprintf("Listed %d %s on market", quantity, good), NoticeSuccess)
	g.broadcastState()
	return nil
}

// CancelListing 撤回自己的挂单，货物退回成品库存
func (g *Game) CancelListing(id PlayerID, listingID string) error {
	p, err := g.actor(id)
	if err != nil {
		return g.reject(id, ActionCancelListing, err)
	}
	l, ok := g.market.Get(listingID)
	if !ok {
		return g.reject(id, ActionCancelListing, newError(CodeListingNotFound, "Listing not found!"))
	}
	if l.SellerID != id {
		return g.reject(id, ActionCancelListing, newError(CodeNotOwner, "Not your listing!"))
	}

	g.market.Remove(listingID)
	p.Inventory.FinishedGoods[l.Item] += l.Quantity

	g.notify(id, "Listing cancelled. Items returned.", NoticeInfo)
	g.broadcastState()
	return nil
}

// BuyMarket 从他人挂单买入；数量超过剩余时整笔拒绝，不做部分成交
func (g *Game) BuyMarket(id PlayerID, listingID string, quantity int) error {
	buyer, err := g.actor(id)
	if err != nil {
		return g.reject(id, ActionBuyMarket, err)
	}
	l, ok := g.market.Get(listingID)
	if !ok {
		return g.reject(id, ActionBuyMarket, newError(CodeListingNotFound, "Listing not found!"))
	}
	if l.SellerID == id {
		return g.reject(id, ActionBuyMarket, newError(CodeSelfTrade, "You cannot buy your own items!"))
	}
	if quantity <= 0 {
		return g.reject(id, ActionBuyMarket, newError(CodeInvalidQuantity, "Quantity must be a positive whole number"))
	}
	cost, ok := mulCost(l.Price, quantity)
	if !ok || buyer.Money < cost {
		return g.reject(id, ActionBuyMarket, newError(CodeInsufficientFunds, "Buy failed: insufficient funds."))
	}
	if quantity > l.Quantity {
		return g.reject(id, ActionBuyMarket, newError(CodeInsufficientStock, fmt.Sprintf("Buy failed: only %d left.", l.Quantity)))
	}

	buyer.Money -= cost
	buyer.Inventory.PurchasedGoods[l.Item] += quantity
	// 卖家已离开时货款无人收取
	seller, sellerPresent := g.ledger.Get(l.SellerID)
	if sellerPresent {
		seller.Money += cost
	}
	g.market.Take(listingID, quantity)

	rec := TradeRecord{
		ListingID: l.ID,
		BuyerID:   id,
		Buyer:     buyer.Name,
		SellerID:  l.SellerID,
		Seller:    l.SellerName,
		Item:      l.Item,
		Quantity:  quantity,
		Price:     l.Price,
		Time:      g.clock.Now(),
	}
	g.trades = append(g.trades, rec)

	g.log.Infow("trade settled", "listing", l.ID, "buyer", id, "seller", l.SellerID, "item", l.Item, "quantity", quantity, "price", l.Price)
	if sellerPresent {
		g.notify(l.SellerID, fmt.Sprintf("%s bought %d unit(s) of your %s", buyer.Name, quantity, l.Item), NoticeSuccess)
	}
	g.sink.Broadcast(rec)
	g.notify(id, fmt.Sprintf("Bought %d %s", quantity, l.Item), NoticeSuccess)
	g.broadcastState()
	return nil
}

// Consume 消费一件成品：优先消耗市场买入的库存，其次自产库存
func (g *Game) Consume(id PlayerID, item string) error {
	p, err := g.actor(id)
	if err != nil {
		return g.reject(id, ActionConsume, err)
	}
	good, err := ParseGood(item)
	if err != nil {
		return g.reject(id, ActionConsume, err)
	}
	switch {
	case p.Inventory.PurchasedGoods[good] > 0:
		p.Inventory.PurchasedGoods[good]--
	case p.Inventory.FinishedGoods[good] > 0:
		p.Inventory.FinishedGoods[good]--
	default:
		return g.reject(id, ActionConsume, newError(CodeNothingToConsume, fmt.Sprintf("No %s to consume!", good)))
	}
	p.Vitals.apply(EffectOf(good))

	g.notify(id, fmt.Sprintf("You consumed %s!", strings.ReplaceAll(good.String(), "_", " ")), NoticeSuccess)
	g.broadcastState()
	return nil
}
