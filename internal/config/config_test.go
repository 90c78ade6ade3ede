package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(":8080", "", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, DefaultSQLiteURL, cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/todo")
	t.Setenv("READ_TIMEOUT", "2s")

	cfg, err := Load(":8080", "", nil)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://u:p@localhost:5432/todo", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "todo-api.yaml")
	require.NoError(t, os.WriteFile(file, []byte("addr: \":7000\"\nlog_format: json\n"), 0o600))

	cfg, err := Load(":8080", file, nil)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "json", cfg.LogFormat)

	// 环境变量覆盖配置文件
	t.Setenv("ADDR", ":7001")
	cfg, err = Load(":8080", file, nil)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Addr)

	// flag 覆盖环境变量
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", "", "")
	require.NoError(t, flags.Parse([]string{"--addr", ":7002"}))
	cfg, err = Load(":8080", file, flags)
	require.NoError(t, err)
	assert.Equal(t, ":7002", cfg.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(":8080", filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}
