package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sent struct {
	To    PlayerID // 空表示广播
	Event Event
}

// recordingSink 记录核心发出的全部事件
type recordingSink struct {
	events []sent
}

func (s *recordingSink) Send(to PlayerID, ev Event) {
	s.events = append(s.events, sent{To: to, Event: ev})
}
func (s *recordingSink) Broadcast(ev Event) { s.events = append(s.events, sent{Event: ev}) }

func (s *recordingSink) reset() { s.events = nil }

func (s *recordingSink) ofType(typ string) []sent {
	var out []sent
	for _, e := range s.events {
		if e.Event.EventType() == typ {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) lastNotice(to PlayerID) (Notification, bool) {
	for i := len(s.events) - 1; i >= 0; i-- {
		if n, ok := s.events[i].Event.(Notification); ok && s.events[i].To == to {
			return n, true
		}
	}
	return Notification{}, false
}

const testAdminKey = "letmein"

var testStart = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func newGameForTest(t *testing.T, mutate ...func(*Config)) (*Game, *FakeClock, *recordingSink) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.AdminKey = testAdminKey
	for _, m := range mutate {
		m(&cfg)
	}
	clock := NewFakeClock(testStart)
	sink := &recordingSink{}
	n := 0
	g := New(cfg, Options{
		Clock:     clock,
		Scheduler: clock,
		Sink:      sink,
		NewID: func() string {
			n++
			return fmt.Sprintf("L%03d", n)
		},
	})
	return g, clock, sink
}

func join(t *testing.T, g *Game, id PlayerID, business string) {
	t.Helper()
	require.NoError(t, g.Join(id, string(id), business, ""))
}

func joinAdmin(t *testing.T, g *Game, id PlayerID) {
	t.Helper()
	require.NoError(t, g.Join(id, string(id), "", testAdminKey))
}

func player(t *testing.T, g *Game, id PlayerID) Player {
	t.Helper()
	p, ok := g.Player(id)
	require.True(t, ok, "player %s missing", id)
	return p
}

// produceWater 让 water_vendor 买料并生产 n 瓶水
func produceWater(t *testing.T, g *Game, id PlayerID, n int) {
	t.Helper()
	require.NoError(t, g.BuyRaw(id, "plastic", n))
	require.NoError(t, g.BuyRaw(id, "water_raw", n))
	for i := 0; i < n; i++ {
		require.NoError(t, g.Produce(id))
	}
}

// totalWater 流通中的水：库存 + 挂单
func totalWater(g *Game) int {
	n := 0
	for _, p := range g.ledger.players {
		n += p.Inventory.FinishedGoods[Water] + p.Inventory.PurchasedGoods[Water]
	}
	for _, l := range g.market.listings {
		if l.Item == Water {
			n += l.Quantity
		}
	}
	return n
}
