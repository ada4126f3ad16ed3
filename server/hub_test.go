package server

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsurvival/archive"
	"marketsurvival/game"
	"marketsurvival/journal"
)

const testKey = "s3cret"

func testGameConfig(mutate ...func(*game.Config)) game.Config {
	cfg := game.DefaultConfig()
	cfg.AdminKey = testKey
	for _, m := range mutate {
		m(&cfg)
	}
	return cfg
}

func startHub(t *testing.T, cfg game.Config, opts HubOptions) *Hub {
	t.Helper()
	h, err := NewHub(HubConfig{}, cfg, opts)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

// testConn 不经过网络的连接：测试直接读发送队列
type testConn struct {
	t  *testing.T
	c  *Client
	ch <-chan []byte
}

func connect(t *testing.T, h *Hub, id string) *testConn {
	t.Helper()
	c := &Client{id: game.PlayerID(id), send: make(chan []byte, 1024)}
	require.True(t, h.Register(c))
	return &testConn{t: t, c: c, ch: c.send}
}

func (tc *testConn) send(h *Hub, raw string) {
	msg, err := h.validator.Decode([]byte(raw))
	h.OnInput(Input{PlayerID: tc.c.id, Msg: msg, Err: err})
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// waitFor 读取发送队列直到遇到满足条件的消息
func (tc *testConn) waitFor(typ string, match func(json.RawMessage) bool) json.RawMessage {
	tc.t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case b, ok := <-tc.ch:
			require.True(tc.t, ok, "connection closed while waiting for %s", typ)
			var env envelope
			require.NoError(tc.t, json.Unmarshal(b, &env))
			if env.Type == typ && (match == nil || match(env.Payload)) {
				return env.Payload
			}
		case <-deadline:
			tc.t.Fatalf("timed out waiting for %s", typ)
			return nil
		}
	}
}

func (tc *testConn) waitNotice(contains string) game.Notification {
	tc.t.Helper()
	var n game.Notification
	tc.waitFor(game.EventNotification, func(p json.RawMessage) bool {
		require.NoError(tc.t, json.Unmarshal(p, &n))
		return strings.Contains(n.Message, contains)
	})
	return n
}

func snapshot(t *testing.T, h *Hub) game.StateUpdate {
	t.Helper()
	var snap game.StateUpdate
	require.NoError(t, h.Do(context.Background(), func(g *game.Game) { snap = g.Snapshot() }))
	return snap
}

func TestHub_JoinAndLobbyNotice(t *testing.T) {
	h := startHub(t, testGameConfig(), HubOptions{})
	a := connect(t, h, "A")

	a.send(h, `{"type":"join","payload":{"name":"Alice","businessType":"water_vendor"}}`)
	var joined game.Joined
	require.NoError(t, json.Unmarshal(a.waitFor(game.EventJoined, nil), &joined))
	assert.Equal(t, "Alice", joined.Player.Name)
	assert.False(t, joined.GameStarted)
	a.waitNotice("Waiting for admin")
	a.waitFor(game.EventStateUpdate, nil)
}

func TestHub_TradeBetweenConnections(t *testing.T) {
	h := startHub(t, testGameConfig(), HubOptions{})
	a := connect(t, h, "A")
	b := connect(t, h, "B")
	a.send(h, `{"type":"join","payload":{"name":"Alice","businessType":"water_vendor"}}`)
	b.send(h, `{"type":"join","payload":{"name":"Bob","businessType":"hotdog_vendor"}}`)

	a.send(h, `{"type":"buyRaw","payload":{"material":"plastic","quantity":1}}`)
	a.send(h, `{"type":"buyRaw","payload":{"material":"water_raw","quantity":1}}`)
	a.send(h, `{"type":"produce"}`)
	a.send(h, `{"type":"listMarket","payload":{"item":"water","quantity":1,"price":5}}`)
	a.waitNotice("Listed 1 water")

	snap := snapshot(t, h)
	require.Len(t, snap.Market, 1)
	listing := snap.Market[0]

	b.send(h, `{"type":"buyMarket","payload":{"listingId":"`+listing.ID+`","quantity":1}}`)
	b.waitNotice("Bought 1 water")
	a.waitNotice("Bob bought 1 unit(s) of your water")

	snap = snapshot(t, h)
	assert.Empty(t, snap.Market)
	assert.Equal(t, 50-1-1-1+5, snap.Players["A"].Money)
	assert.Equal(t, 45, snap.Players["B"].Money)
	assert.Equal(t, 1, snap.Players["B"].Inventory.PurchasedGoods[game.Water])
}

func TestHub_ProtocolErrorsLeaveStateUntouched(t *testing.T) {
	h := startHub(t, testGameConfig(), HubOptions{})
	a := connect(t, h, "A")
	a.send(h, `{"type":"join","payload":{"name":"Alice","businessType":"water_vendor"}}`)
	a.waitFor(game.EventJoined, nil)

	a.send(h, `{"type":"buyRaw","payload":{"material":"rice","quantity":-3}}`)
	n := a.waitNotice("Invalid buyRaw")
	assert.Equal(t, game.NoticeError, n.Type)

	a.send(h, `{"type":"fly"}`)
	a.waitNotice("Unknown action fly")

	a.send(h, `{{{`)
	a.waitNotice("Malformed")

	h.OnInput(Input{PlayerID: "A", Err: errRateLimited})
	a.waitNotice("slow down")

	assert.Equal(t, 50, snapshot(t, h).Players["A"].Money)
}

func TestHub_GameRejectionIsNotified(t *testing.T) {
	h := startHub(t, testGameConfig(), HubOptions{})
	a := connect(t, h, "A")
	a.send(h, `{"type":"buyRaw","payload":{"material":"rice","quantity":1}}`)
	n := a.waitNotice("Join the game first")
	assert.Equal(t, game.NoticeError, n.Type)

	a.send(h, `{"type":"join","payload":{"name":"Alice","businessType":"water_vendor"}}`)
	a.send(h, `{"type":"buyRaw","payload":{"material":"ricee","quantity":1}}`)
	a.waitNotice("did you mean rice")
}

func TestHub_DisconnectPurgesListings(t *testing.T) {
	h := startHub(t, testGameConfig(), HubOptions{})
	a := connect(t, h, "A")
	a.send(h, `{"type":"join","payload":{"name":"Alice","businessType":"water_vendor"}}`)
	a.send(h, `{"type":"buyRaw","payload":{"material":"plastic","quantity":1}}`)
	a.send(h, `{"type":"buyRaw","payload":{"material":"water_raw","quantity":1}}`)
	a.send(h, `{"type":"produce"}`)
	a.send(h, `{"type":"listMarket","payload":{"item":"water","quantity":1,"price":5}}`)
	a.waitNotice("Listed")

	h.RequestLeave("A")
	require.Eventually(t, func() bool {
		snap := snapshot(t, h)
		_, present := snap.Players["A"]
		return !present && len(snap.Market) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// 发送队列被关闭
	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-a.ch:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RoundRunsOnRealTimers(t *testing.T) {
	cfg := testGameConfig(func(c *game.Config) {
		c.DecayInterval = 20 * time.Millisecond
		c.RoundDuration = 300 * time.Millisecond
		c.HungerDecay = 10
	})
	dir := t.TempDir()
	rec := journal.NewRecorder(dir)
	store, err := archive.Open(filepath.Join(dir, "rounds.sqlite"), nil)
	require.NoError(t, err)

	h := startHub(t, cfg, HubOptions{Journal: rec, Archive: store})
	admin := connect(t, h, "admin")
	a := connect(t, h, "A")
	admin.send(h, `{"type":"join","payload":{"name":"root","adminKey":"`+testKey+`"}}`)
	a.send(h, `{"type":"join","payload":{"name":"Alice","businessType":"juice_vendor"}}`)
	a.waitFor(game.EventJoined, nil)
	admin.waitFor(game.EventJoined, nil)

	admin.send(h, `{"type":"adminStartRound"}`)
	a.waitFor(game.EventRoundStarted, nil)
	a.waitFor(game.EventStateUpdate, func(p json.RawMessage) bool {
		var su game.StateUpdate
		require.NoError(t, json.Unmarshal(p, &su))
		return su.Players["A"].Hunger < game.MaxVital
	})

	var ended game.RoundEnded
	require.NoError(t, json.Unmarshal(a.waitFor(game.EventRoundEnded, nil), &ended))
	assert.Equal(t, game.EndTimeout, ended.Reason)
	require.Len(t, ended.Leaderboard, 1)
	assert.Equal(t, "Alice", ended.Leaderboard[0].Name)

	require.NoError(t, store.Close())
	require.NoError(t, rec.Close())
	store, err = archive.Open(filepath.Join(dir, "rounds.sqlite"), nil)
	require.NoError(t, err)
	defer store.Close()
	rounds, err := store.ListRounds(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, game.EndTimeout, rounds[0].Reason)

	matches, err := filepath.Glob(filepath.Join(dir, "audit", "audit-*.jsonl.zst"))
	require.NoError(t, err)
	assert.NotEmpty(t, matches)
}

func TestHub_DoAfterStop(t *testing.T) {
	h, err := NewHub(HubConfig{}, testGameConfig(), HubOptions{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	assert.ErrorIs(t, h.Do(context.Background(), func(*game.Game) {}), ErrHubClosed)
	assert.False(t, h.Register(&Client{id: "late", send: make(chan []byte, 1)}))
}
