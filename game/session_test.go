package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_LobbyPlayerIsAliveAndWelcomed(t *testing.T) {
	g, _, sink := newGameForTest(t)
	require.NoError(t, g.Join("c1", "  Alice ", "hotdog_vendor", ""))

	p := player(t, g, "c1")
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, RoleStandard, p.Role)
	assert.Equal(t, HotdogVendor, p.Business)
	assert.Equal(t, 50, p.Money)
	assert.True(t, p.Alive)
	assert.Equal(t, testStart, p.JoinTime)

	joined := sink.ofType(EventJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, PlayerID("c1"), joined[0].To)
	ev := joined[0].Event.(Joined)
	assert.False(t, ev.GameStarted)
	assert.Nil(t, ev.RoundEndTime)

	n, _ := sink.lastNotice("c1")
	assert.Contains(t, n.Message, "Waiting for admin")
}

func TestJoin_DuringRoundWaitsForNext(t *testing.T) {
	g, _, sink := newGameForTest(t)
	joinAdmin(t, g, "admin")
	join(t, g, "A", "water_vendor")
	require.NoError(t, g.AdminStartRound("admin"))

	join(t, g, "late", "juice_vendor")
	assert.False(t, player(t, g, "late").Alive)
	ev := sink.ofType(EventJoined)[2].Event.(Joined)
	assert.True(t, ev.GameStarted)
	require.NotNil(t, ev.RoundEndTime)

	n, _ := sink.lastNotice("late")
	assert.Contains(t, n.Message, "Round in progress")
	assert.True(t, errors.Is(g.BuyRaw("late", "fruit", 1), ErrPlayerDead))
}

func TestJoin_Rejections(t *testing.T) {
	g, _, _ := newGameForTest(t)
	assert.True(t, errors.Is(g.Join("c1", "   ", "water_vendor", ""), ErrInvalidName))
	assert.True(t, errors.Is(g.Join("c1", strings.Repeat("x", 25), "water_vendor", ""), ErrInvalidName))
	assert.True(t, errors.Is(g.Join("c1", "Bob", "spectator", ""), ErrUnknownBusiness))
	assert.True(t, errors.Is(g.Join("c1", "Bob", "water_vendor", "wrong"), ErrNotAdmin))
	// 名字里带 admin 不会获得管理员身份
	require.NoError(t, g.Join("c1", "admin", "water_vendor", ""))
	assert.Equal(t, RoleStandard, player(t, g, "c1").Role)
	assert.True(t, errors.Is(g.Join("c1", "Bob", "water_vendor", ""), ErrAlreadyJoined))
}

func TestJoin_AdminKeyDisabledWhenUnset(t *testing.T) {
	g, _, _ := newGameForTest(t, func(c *Config) { c.AdminKey = "" })
	assert.True(t, errors.Is(g.Join("c1", "Root", "", "anything"), ErrNotAdmin))
}

func TestJoin_Admin(t *testing.T) {
	g, _, _ := newGameForTest(t)
	joinAdmin(t, g, "root")
	p := player(t, g, "root")
	assert.Equal(t, RoleAdmin, p.Role)
	assert.Equal(t, Spectator, p.Business)
	assert.Zero(t, p.Money)
	assert.False(t, p.Alive)
}

func TestLeave_PurgesListings(t *testing.T) {
	g, _, _ := newGameForTest(t)
	join(t, g, "A", "water_vendor")
	join(t, g, "B", "water_vendor")
	produceWater(t, g, "A", 1)
	produceWater(t, g, "B", 1)
	require.NoError(t, g.ListMarket("A", "water", 1, 2))
	require.NoError(t, g.ListMarket("B", "water", 1, 2))

	require.NoError(t, g.Leave("A"))
	market := g.Snapshot().Market
	require.Len(t, market, 1)
	assert.Equal(t, PlayerID("B"), market[0].SellerID)
	assert.True(t, errors.Is(g.Leave("A"), ErrNotJoined))
}

func TestChat(t *testing.T) {
	g, _, sink := newGameForTest(t)
	join(t, g, "A", "water_vendor")

	require.NoError(t, g.Chat("A", " hello "))
	chats := sink.ofType(EventChat)
	require.Len(t, chats, 1)
	assert.Equal(t, ChatMessage{Name: "A", Message: "hello"}, chats[0].Event)

	assert.True(t, errors.Is(g.Chat("A", ""), ErrInvalidMessage))
	assert.True(t, errors.Is(g.Chat("ghost", "hi"), ErrNotJoined))
}
