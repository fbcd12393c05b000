package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "safe", cfg.Log.Redaction)
	assert.Equal(t, DefaultHistoryLimit, cfg.Render.HistoryLimit)
	assert.Equal(t, DefaultChunk, cfg.Render.Chunk)
	assert.True(t, cfg.Render.StrictPath)
	assert.Equal(t, []string{"photo", "video"}, cfg.Render.AlbumBlend)
	assert.Equal(t, "keep", cfg.Render.TailPolicy)
	assert.Equal(t, "memory", cfg.Locks.Provider)
	assert.Equal(t, DefaultLockTTL, cfg.Locks.TTL)
	assert.Equal(t, DefaultPGHost, cfg.Postgres.Host)
	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"

[render]
history_limit = 5
truncate = true
album_blend = ["photo", "video", "animation"]
tail_policy = "delete"

[locks]
provider = "redis"
ttl = "45s"

[telegram]
bot_token = "123:abc"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Render.HistoryLimit)
	assert.True(t, cfg.Render.Truncate)
	assert.Equal(t, []string{"photo", "video", "animation"}, cfg.Render.AlbumBlend)
	assert.Equal(t, "delete", cfg.Render.TailPolicy)
	assert.Equal(t, "redis", cfg.Locks.Provider)
	assert.Equal(t, "45s", cfg.Locks.TTL)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)

	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultTextLimit, cfg.Render.TextLimit)
	assert.Equal(t, DefaultPGDatabase, cfg.Postgres.Database)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHATNAV_LOG_LEVEL", "warn")
	t.Setenv("CHATNAV_HISTORY_LIMIT", "7")
	t.Setenv("CHATNAV_TRUNCATE", "true")
	t.Setenv("CHATNAV_STRICTPATH", "false")
	t.Setenv("CHATNAV_TEXT_LIMIT", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Render.HistoryLimit)
	assert.True(t, cfg.Render.Truncate)
	assert.False(t, cfg.Render.StrictPath)
	assert.Equal(t, DefaultTextLimit, cfg.Render.TextLimit, "bad numeric override is ignored")
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log\nlevel"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}
