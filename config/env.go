package config

import (
	"os"
	"strconv"
)

// ApplyEnv 用环境变量覆盖已加载的配置，未设置的变量保持原值
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MS_STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("MS_ADMIN_KEY"); v != "" {
		c.Admin.Key = v
	}
	if v := os.Getenv("MS_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("MS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MS_JOURNAL_DIR"); v != "" {
		c.Journal.Dir = v
	}
	if v := os.Getenv("MS_ARCHIVE_PATH"); v != "" {
		c.Archive.Path = v
	}
	if v := os.Getenv("MS_ROUND_DURATION"); v != "" {
		c.Game.RoundDuration = v
	}
	if val := getEnvInt("MS_STARTING_MONEY"); val > 0 {
		c.Game.StartingMoney = val
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
