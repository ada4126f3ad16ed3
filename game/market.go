package game

import (
	"time"

	"github.com/google/uuid"
)

// Listing 市场挂单；Quantity 始终 > 0，归零即移除
type Listing struct {
	ID         string    `json:"id"`
	SellerID   PlayerID  `json:"sellerId"`
	SellerName string    `json:"sellerName"` // 挂单时的快照
	Item       Good      `json:"item"`
	Quantity   int       `json:"quantity"`
	Price      int       `json:"price"`
	ListedAt   time.Time `json:"listedAt"`
}

// MarketBook 按挂单先后排序的活跃挂单
type MarketBook struct {
	listings []*Listing
	newID    func() string
}

// NewMarketBook 创建空市场；newID 为空时使用 uuid
func NewMarketBook(newID func() string) *MarketBook {
	if newID == nil {
		newID = uuid.NewString
	}
	return &MarketBook{newID: newID}
}

// Add 新建挂单并返回其副本
func (b *MarketBook) Add(seller *Player, item Good, quantity, price int, now time.Time) Listing {
	l := &Listing{
		ID:         b.newID(),
		SellerID:   seller.ID,
		SellerName: seller.Name,
		Item:       item,
		Quantity:   quantity,
		Price:      price,
		ListedAt:   now,
	}
	b.listings = append(b.listings, l)
	return *l
}

// Get 按 id 查找挂单（只读使用）
func (b *MarketBook) Get(id string) (Listing, bool) {
	if i := b.index(id); i >= 0 {
		return *b.listings[i], true
	}
	return Listing{}, false
}

// Take 从挂单扣减 quantity；归零时移除。调用方须先校验库存
func (b *MarketBook) Take(id string, quantity int) (remaining int, ok bool) {
	i := b.index(id)
	if i < 0 || quantity <= 0 || quantity > b.listings[i].Quantity {
		return 0, false
	}
	l := b.listings[i]
	l.Quantity -= quantity
	if l.Quantity == 0 {
		b.removeAt(i)
	}
	return l.Quantity, true
}

// Remove 整单移除
func (b *MarketBook) Remove(id string) (Listing, bool) {
	i := b.index(id)
	if i < 0 {
		return Listing{}, false
	}
	l := *b.listings[i]
	b.removeAt(i)
	return l, true
}

// RemoveBySeller 移除某卖家的全部挂单，返回被移除的挂单
func (b *MarketBook) RemoveBySeller(seller PlayerID) []Listing {
	var removed []Listing
	kept := b.listings[:0]
	for _, l := range b.listings {
		if l.SellerID == seller {
			removed = append(removed, *l)
			continue
		}
		kept = append(kept, l)
	}
	for i := len(kept); i < len(b.listings); i++ {
		b.listings[i] = nil
	}
	b.listings = kept
	return removed
}

// Snapshot 所有挂单的副本
func (b *MarketBook) Snapshot() []Listing {
	out := make([]Listing, 0, len(b.listings))
	for _, l := range b.listings {
		out = append(out, *l)
	}
	return out
}

func (b *MarketBook) Len() int { return len(b.listings) }

// Reset 清空市场（新一局开始）
func (b *MarketBook) Reset() { b.listings = nil }

// QuantityOf 市场上某卖家某商品的挂单总量
func (b *MarketBook) QuantityOf(seller PlayerID, item Good) int {
	n := 0
	for _, l := range b.listings {
		if l.SellerID == seller && l.Item == item {
			n += l.Quantity
		}
	}
	return n
}

func (b *MarketBook) index(id string) int {
	for i, l := range b.listings {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (b *MarketBook) removeAt(i int) {
	copy(b.listings[i:], b.listings[i+1:])
	b.listings[len(b.listings)-1] = nil
	b.listings = b.listings[:len(b.listings)-1]
}
