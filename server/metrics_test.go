package server

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"marketsurvival/game"
)

func TestMetrics_ObserveActionAndEvents(t *testing.T) {
	m := NewMetrics()
	m.ObserveAction(game.ActionBuyRaw, nil, time.Millisecond)
	m.ObserveAction(game.ActionBuyRaw, game.ErrInsufficientFunds, time.Millisecond)
	m.ObserveAction(game.ActionBuyRaw, game.ErrInsufficientFunds, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues(game.ActionBuyRaw, "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.actions.WithLabelValues(game.ActionBuyRaw, string(game.CodeInsufficientFunds))))

	m.ObserveEvent(game.TradeRecord{Quantity: 3, Price: 4})
	m.ObserveEvent(game.PlayerDied{ID: "A"})
	m.ObserveEvent(game.RoundStarted{})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.roundRunning))
	m.ObserveEvent(game.RoundEnded{Reason: game.EndWinner})
	m.ObserveEvent(game.StateUpdate{Players: map[game.PlayerID]game.Player{
		"a":     {Alive: true},
		"b":     {Alive: false},
		"admin": {Role: game.RoleAdmin},
	}})

	assert.Equal(t, 12.0, testutil.ToFloat64(m.tradeVolume))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trades))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deaths))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.roundRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rounds.WithLabelValues("winner")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.players.WithLabelValues("alive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.players.WithLabelValues("dead")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.players.WithLabelValues("admin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues(game.EventTradeOccurred)))
}
