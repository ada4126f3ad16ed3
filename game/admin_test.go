package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRevive(t *testing.T) {
	g, clock, sink := newGameForTest(t, decayTen)
	joinAdmin(t, g, "admin")
	join(t, g, "A", "water_vendor")
	join(t, g, "B", "water_vendor")
	join(t, g, "C", "water_vendor")
	require.NoError(t, g.AdminStartRound("admin"))
	a := g.ledger.players["A"]
	a.Health, a.Hunger = 5, 0
	clock.Advance(10 * time.Second)
	require.False(t, player(t, g, "A").Alive)

	assert.True(t, errors.Is(g.AdminRevive("B", "A"), ErrNotAdmin))
	assert.True(t, errors.Is(g.AdminRevive("admin", "ghost"), ErrPlayerNotFound))
	assert.True(t, errors.Is(g.AdminRevive("admin", "admin"), ErrAdminForbidden))

	require.NoError(t, g.AdminRevive("admin", "A"))
	p := player(t, g, "A")
	assert.True(t, p.Alive)
	assert.Nil(t, p.DeathTime)
	assert.Equal(t, Vitals{Health: 50, Hunger: 50, Thirst: 50}, p.Vitals)

	n, ok := sink.lastNotice("A")
	require.True(t, ok)
	assert.Equal(t, "An admin revived you!", n.Message)

	// 不受回合状态限制
	require.NoError(t, g.AdminEndRound("admin"))
	require.NoError(t, g.AdminRevive("admin", "B"))
}

func TestAdminDonate(t *testing.T) {
	g, _, _ := newGameForTest(t)
	joinAdmin(t, g, "admin")
	join(t, g, "A", "water_vendor")

	assert.True(t, errors.Is(g.AdminDonate("A", "A", 10), ErrNotAdmin))
	assert.True(t, errors.Is(g.AdminDonate("admin", "A", 0), ErrInvalidAmount))
	assert.True(t, errors.Is(g.AdminDonate("admin", "nobody", 5), ErrPlayerNotFound))
	assert.Equal(t, 50, player(t, g, "A").Money)

	require.NoError(t, g.AdminDonate("admin", "A", 150))
	assert.Equal(t, 200, player(t, g, "A").Money)
	require.NoError(t, g.SwitchBusiness("A", "juice_vendor"), "donation funds a switch")
}
