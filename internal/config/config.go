// Package config loads and exposes application configuration (TOML),
// with CHATNAV_-prefixed environment overrides for the render knobs.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath   = "config.toml"
	DefaultHistoryLimit = 18
	DefaultChunk        = 100
	DefaultTextLimit    = 4096
	DefaultCaptionLimit = 1024
	DefaultAlbumFloor   = 2
	DefaultAlbumCeiling = 10
	DefaultDeleteDelay  = 50
	DefaultLockTTL      = "20s"
	DefaultLockAcquire  = "5s"
	DefaultPGHost       = "127.0.0.1"
	DefaultPGPort       = 5432
	DefaultPGUser       = "postgres"
	DefaultPGDatabase   = "chatnav"
	DefaultPGSSLMode    = "disable"
	DefaultRedisAddr    = "127.0.0.1:6379"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Render   RenderConfig   `toml:"render"`
	Locks    LockConfig     `toml:"locks"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Telegram TelegramConfig `toml:"telegram"`
}

// LogConfig holds logging level, format, and redaction mode
// (debug, safe, or paranoid).
type LogConfig struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	Redaction string `toml:"redaction"`
}

// RenderConfig holds the navigation and re-rendering knobs.
type RenderConfig struct {
	HistoryLimit  int      `toml:"history_limit"`
	Chunk         int      `toml:"chunk"`
	Truncate      bool     `toml:"truncate"`
	StrictPath    bool     `toml:"strictpath"`
	ThumbGuard    bool     `toml:"thumbguard"`
	ResendOnIdle  bool     `toml:"resend_on_idle"`
	TextLimit     int      `toml:"text_limit"`
	CaptionLimit  int      `toml:"caption_limit"`
	AlbumFloor    int      `toml:"album_floor"`
	AlbumCeiling  int      `toml:"album_ceiling"`
	AlbumBlend    []string `toml:"album_blend"`
	DeleteDelayMS int      `toml:"delete_delay_ms"`
	TailPolicy    string   `toml:"tail_policy"`
}

// LockConfig selects the lock provider ("memory" or "redis") and its
// lease parameters.
type LockConfig struct {
	Provider       string `toml:"provider"`
	TTL            string `toml:"ttl"`
	AcquireTimeout string `toml:"acquire_timeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// RedisConfig holds redis connection parameters for distributed locks.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// TelegramConfig holds the bot token of the gateway adapter.
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
}

// Load reads and parses the TOML config file at path, applies default
// values for missing fields, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:     "info",
			Format:    "text",
			Redaction: "safe",
		},
		Render: RenderConfig{
			HistoryLimit:  DefaultHistoryLimit,
			Chunk:         DefaultChunk,
			StrictPath:    true,
			TextLimit:     DefaultTextLimit,
			CaptionLimit:  DefaultCaptionLimit,
			AlbumFloor:    DefaultAlbumFloor,
			AlbumCeiling:  DefaultAlbumCeiling,
			AlbumBlend:    []string{"photo", "video"},
			DeleteDelayMS: DefaultDeleteDelay,
			TailPolicy:    "keep",
		},
		Locks: LockConfig{
			Provider:       "memory",
			TTL:            DefaultLockTTL,
			AcquireTimeout: DefaultLockAcquire,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Redis: RedisConfig{
			Addr: DefaultRedisAddr,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("CHATNAV_LOG_LEVEL", &cfg.Log.Level)
	envString("CHATNAV_LOG_REDACTION", &cfg.Log.Redaction)
	envInt("CHATNAV_HISTORY_LIMIT", &cfg.Render.HistoryLimit)
	envInt("CHATNAV_CHUNK", &cfg.Render.Chunk)
	envBool("CHATNAV_TRUNCATE", &cfg.Render.Truncate)
	envBool("CHATNAV_STRICTPATH", &cfg.Render.StrictPath)
	envBool("CHATNAV_THUMBGUARD", &cfg.Render.ThumbGuard)
	envBool("CHATNAV_RESEND_ON_IDLE", &cfg.Render.ResendOnIdle)
	envInt("CHATNAV_TEXT_LIMIT", &cfg.Render.TextLimit)
	envInt("CHATNAV_CAPTION_LIMIT", &cfg.Render.CaptionLimit)
	envInt("CHATNAV_DELETE_DELAY_MS", &cfg.Render.DeleteDelayMS)
	envString("CHATNAV_LOCKS", &cfg.Locks.Provider)
	envString("CHATNAV_REDIS_ADDR", &cfg.Redis.Addr)
	envString("CHATNAV_TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
}

func envString(key string, target *string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func envInt(key string, target *int) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil {
		*target = value
	}
}

func envBool(key string, target *bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if value, err := strconv.ParseBool(raw); err == nil {
		*target = value
	}
}
