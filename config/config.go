package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"marketsurvival/game"
)

type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Admin   AdminConfig   `yaml:"admin" json:"admin"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Journal JournalConfig `yaml:"journal" json:"journal"`
	Archive ArchiveConfig `yaml:"archive" json:"archive"`
	Game    GameConfig    `yaml:"game" json:"game"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`
	// 每个连接每秒允许的动作数与突发上限
	ActionsPerSecond float64 `yaml:"actions_per_second" json:"actions_per_second"`
	ActionBurst      int     `yaml:"action_burst" json:"action_burst"`
}

type AdminConfig struct {
	Key string `yaml:"key" json:"-"`
}

type LogConfig struct {
	// 为空时输出到 stderr
	File  string `yaml:"file" json:"file"`
	Level string `yaml:"level" json:"level"`
}

type JournalConfig struct {
	// 为空时不写审计日志
	Dir string `yaml:"dir" json:"dir"`
}

type ArchiveConfig struct {
	// 为空时不归档
	Path string `yaml:"path" json:"path"`
}

// GameConfig 对应 game.Config；时长用 Go duration 字符串（"10s"、"15m"）
type GameConfig struct {
	StartingMoney          int    `yaml:"starting_money" json:"starting_money"`
	WorkshopFee            int    `yaml:"workshop_fee" json:"workshop_fee"`
	SwitchFee              int    `yaml:"switch_fee" json:"switch_fee"`
	DecayInterval          string `yaml:"decay_interval" json:"decay_interval"`
	RoundDuration          string `yaml:"round_duration" json:"round_duration"`
	HungerDecay            int    `yaml:"hunger_decay" json:"hunger_decay"`
	ThirstDecay            int    `yaml:"thirst_decay" json:"thirst_decay"`
	HealthPenalty          int    `yaml:"health_penalty" json:"health_penalty"`
	ReviveVitals           int    `yaml:"revive_vitals" json:"revive_vitals"`
	LeaderboardIncludeDead bool   `yaml:"leaderboard_include_dead" json:"leaderboard_include_dead"`
	MaxNameLength          int    `yaml:"max_name_length" json:"max_name_length"`
	MaxChatLength          int    `yaml:"max_chat_length" json:"max_chat_length"`
}

// Default 所有字段取默认值
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func (s *ServerConfig) ApplyDefaults() {
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.ActionsPerSecond <= 0 {
		s.ActionsPerSecond = 10
	}
	if s.ActionBurst <= 0 {
		s.ActionBurst = 20
	}
}

func (l *LogConfig) ApplyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
}

func (g *GameConfig) ApplyDefaults() {
	d := game.DefaultConfig()
	if g.StartingMoney <= 0 {
		g.StartingMoney = d.StartingMoney
	}
	if g.WorkshopFee <= 0 {
		g.WorkshopFee = d.WorkshopFee
	}
	if g.SwitchFee <= 0 {
		g.SwitchFee = d.SwitchFee
	}
	if g.DecayInterval == "" {
		g.DecayInterval = d.DecayInterval.String()
	}
	if g.RoundDuration == "" {
		g.RoundDuration = d.RoundDuration.String()
	}
	if g.HungerDecay <= 0 {
		g.HungerDecay = d.HungerDecay
	}
	if g.ThirstDecay <= 0 {
		g.ThirstDecay = d.ThirstDecay
	}
	if g.HealthPenalty <= 0 {
		g.HealthPenalty = d.HealthPenalty
	}
	if g.ReviveVitals <= 0 {
		g.ReviveVitals = d.ReviveVitals
	}
	if g.MaxNameLength <= 0 {
		g.MaxNameLength = d.MaxNameLength
	}
	if g.MaxChatLength <= 0 {
		g.MaxChatLength = d.MaxChatLength
	}
}

func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Log.ApplyDefaults()
	c.Game.ApplyDefaults()
}

// Load 读取 YAML 配置并补全默认值；path 为空时只用默认值
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Config
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	r.ApplyDefaults()
	return &r, nil
}

// GameConfig 转换为游戏核心使用的参数
func (c *Config) GameConfig() (game.Config, error) {
	return c.Game.Resolve(c.Admin.Key)
}

func (g GameConfig) toGame(adminKey string) (game.Config, error) {
	decay, err := parsePositiveDuration("game.decay_interval", g.DecayInterval)
	if err != nil {
		return game.Config{}, err
	}
	round, err := parsePositiveDuration("game.round_duration", g.RoundDuration)
	if err != nil {
		return game.Config{}, err
	}
	return game.Config{
		StartingMoney:          g.StartingMoney,
		WorkshopFee:            g.WorkshopFee,
		SwitchFee:              g.SwitchFee,
		DecayInterval:          decay,
		RoundDuration:          round,
		HungerDecay:            g.HungerDecay,
		ThirstDecay:            g.ThirstDecay,
		HealthPenalty:          g.HealthPenalty,
		ReviveVitals:           g.ReviveVitals,
		LeaderboardIncludeDead: g.LeaderboardIncludeDead,
		MaxNameLength:          g.MaxNameLength,
		MaxChatLength:          g.MaxChatLength,
		AdminKey:               adminKey,
	}, nil
}

// FromGame 把运行中的参数还原为可序列化的形式（/admin/config 使用）
func FromGame(cfg game.Config) GameConfig {
	return GameConfig{
		StartingMoney:          cfg.StartingMoney,
		WorkshopFee:            cfg.WorkshopFee,
		SwitchFee:              cfg.SwitchFee,
		DecayInterval:          cfg.DecayInterval.String(),
		RoundDuration:          cfg.RoundDuration.String(),
		HungerDecay:            cfg.HungerDecay,
		ThirstDecay:            cfg.ThirstDecay,
		HealthPenalty:          cfg.HealthPenalty,
		ReviveVitals:           cfg.ReviveVitals,
		LeaderboardIncludeDead: cfg.LeaderboardIncludeDead,
		MaxNameLength:          cfg.MaxNameLength,
		MaxChatLength:          cfg.MaxChatLength,
	}
}

// Resolve 校验并转换为核心参数；/admin/config 先用当前值填充再叠加请求体
func (g GameConfig) Resolve(adminKey string) (game.Config, error) {
	for key, v := range map[string]int{
		"game.starting_money":  g.StartingMoney,
		"game.workshop_fee":    g.WorkshopFee,
		"game.switch_fee":      g.SwitchFee,
		"game.hunger_decay":    g.HungerDecay,
		"game.thirst_decay":    g.ThirstDecay,
		"game.health_penalty":  g.HealthPenalty,
		"game.revive_vitals":   g.ReviveVitals,
		"game.max_name_length": g.MaxNameLength,
		"game.max_chat_length": g.MaxChatLength,
	} {
		if v <= 0 {
			return game.Config{}, fmt.Errorf("config: %s must be positive", key)
		}
	}
	if g.ReviveVitals > game.MaxVital {
		return game.Config{}, fmt.Errorf("config: game.revive_vitals must be at most %d", game.MaxVital)
	}
	return g.toGame(adminKey)
}

func parsePositiveDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}
