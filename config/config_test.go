package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsurvival/game"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_DefaultsWhenEmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "info", c.Log.Level)

	g, err := c.GameConfig()
	require.NoError(t, err)
	assert.Equal(t, game.DefaultConfig(), g)
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	p := writeFile(t, `
server:
  addr: ":9090"
  actions_per_second: 4
admin:
  key: hunter2
log:
  level: debug
game:
  starting_money: 80
  round_duration: 5m
  leaderboard_include_dead: true
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, 4.0, c.Server.ActionsPerSecond)
	assert.Equal(t, 20, c.Server.ActionBurst)

	g, err := c.GameConfig()
	require.NoError(t, err)
	assert.Equal(t, 80, g.StartingMoney)
	assert.Equal(t, 5*time.Minute, g.RoundDuration)
	assert.Equal(t, 10*time.Second, g.DecayInterval)
	assert.Equal(t, 100, g.SwitchFee)
	assert.True(t, g.LeaderboardIncludeDead)
	assert.Equal(t, "hunter2", g.AdminKey)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server: [unclosed"))
	assert.Error(t, err)

	c, err := Load(writeFile(t, "game:\n  decay_interval: soon\n"))
	require.NoError(t, err)
	_, err = c.GameConfig()
	assert.ErrorContains(t, err, "game.decay_interval")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("MS_ADDR", ":7000")
	t.Setenv("MS_ADMIN_KEY", "from-env")
	t.Setenv("MS_STARTING_MONEY", "nope")

	c := Default()
	c.ApplyEnv()
	assert.Equal(t, ":7000", c.Server.Addr)
	assert.Equal(t, "from-env", c.Admin.Key)
	assert.Equal(t, 50, c.Game.StartingMoney)
}

func TestResolve_RoundTripsAndValidates(t *testing.T) {
	base := game.DefaultConfig()
	base.AdminKey = "k"
	g := FromGame(base)
	got, err := g.Resolve("k")
	require.NoError(t, err)
	assert.Equal(t, base, got)

	g.ReviveVitals = 150
	_, err = g.Resolve("k")
	assert.ErrorContains(t, err, "revive_vitals")

	g = FromGame(base)
	g.WorkshopFee = 0
	_, err = g.Resolve("k")
	assert.ErrorContains(t, err, "workshop_fee")

	g = FromGame(base)
	g.RoundDuration = "-1m"
	_, err = g.Resolve("k")
	assert.ErrorContains(t, err, "round_duration")
}
