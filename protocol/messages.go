package protocol

import (
	"encoding/json"
	"sort"
)

// 入站消息类型
const (
	TypeJoin            = "join"
	TypeBuyRaw          = "buyRaw"
	TypeProduce         = "produce"
	TypeSwitchBusiness  = "switchBusiness"
	TypeListMarket      = "listMarket"
	TypeCancelListing   = "cancelListing"
	TypeBuyMarket       = "buyMarket"
	TypeConsume         = "consume"
	TypeChat            = "chat"
	TypeAdminStartRound = "adminStartRound"
	TypeAdminEndRound   = "adminEndRound"
	TypeAdminRevive     = "adminRevive"
	TypeAdminDonate     = "adminDonate"
)

// Envelope 双向通用外壳
// 示例：{"type":"buyRaw","payload":{"material":"rice","quantity":2}}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	Name         string `json:"name" jsonschema:"required,minLength=1,maxLength=64"`
	BusinessType string `json:"businessType,omitempty"`
	AdminKey     string `json:"adminKey,omitempty"`
}

type BuyRawPayload struct {
	Material string `json:"material" jsonschema:"required"`
	Quantity int    `json:"quantity" jsonschema:"required,minimum=1"`
}

type ProducePayload struct{}

type SwitchBusinessPayload struct {
	NewBusinessType string `json:"newBusinessType" jsonschema:"required"`
}

type ListMarketPayload struct {
	Item     string `json:"item" jsonschema:"required"`
	Quantity int    `json:"quantity" jsonschema:"required,minimum=1"`
	Price    int    `json:"price" jsonschema:"required,minimum=1"`
}

type CancelListingPayload struct {
	ListingID string `json:"listingId" jsonschema:"required,minLength=1"`
}

type BuyMarketPayload struct {
	ListingID string `json:"listingId" jsonschema:"required,minLength=1"`
	Quantity  int    `json:"quantity" jsonschema:"required,minimum=1"`
}

type ConsumePayload struct {
	Item string `json:"item" jsonschema:"required"`
}

type ChatPayload struct {
	Message string `json:"message" jsonschema:"required,minLength=1,maxLength=1000"`
}

type AdminStartRoundPayload struct{}

type AdminEndRoundPayload struct{}

type AdminRevivePayload struct {
	PlayerID string `json:"playerId" jsonschema:"required,minLength=1"`
}

type AdminDonatePayload struct {
	PlayerID string `json:"playerId" jsonschema:"required,minLength=1"`
	Amount   int    `json:"amount" jsonschema:"required,minimum=1"`
}

// payloadTypes 每种入站消息对应的载荷原型
var payloadTypes = map[string]func() any{
	TypeJoin:            func() any { return &JoinPayload{} },
	TypeBuyRaw:          func() any { return &BuyRawPayload{} },
	TypeProduce:         func() any { return &ProducePayload{} },
	TypeSwitchBusiness:  func() any { return &SwitchBusinessPayload{} },
	TypeListMarket:      func() any { return &ListMarketPayload{} },
	TypeCancelListing:   func() any { return &CancelListingPayload{} },
	TypeBuyMarket:       func() any { return &BuyMarketPayload{} },
	TypeConsume:         func() any { return &ConsumePayload{} },
	TypeChat:            func() any { return &ChatPayload{} },
	TypeAdminStartRound: func() any { return &AdminStartRoundPayload{} },
	TypeAdminEndRound:   func() any { return &AdminEndRoundPayload{} },
	TypeAdminRevive:     func() any { return &AdminRevivePayload{} },
	TypeAdminDonate:     func() any { return &AdminDonatePayload{} },
}

// Types 所有入站消息类型
func Types() []string {
	out := make([]string, 0, len(payloadTypes))
	for t := range payloadTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Message 已校验并解码的入站消息；Payload 为对应的 *XxxPayload
type Message struct {
	Type    string
	Payload any
}

// Encode 出站消息编码
func Encode(typ string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Payload: p})
}
