package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Assistant.RestoreWindow())
	assert.Equal(t, 7*24*time.Hour, cfg.Assistant.ArchiveRetention())
	assert.Equal(t, 1500*time.Millisecond, cfg.Assistant.FlushDelay())
	assert.Equal(t, 10, cfg.Assistant.ArchiveLimit)
	assert.Equal(t, 10, cfg.Assistant.HistoryWindow)
	assert.InDelta(t, 1000.0, cfg.Assistant.AnomalyThreshold, 0.001)
	assert.Equal(t, "next-assist", cfg.Auth.Issuer)
	assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowQuery())
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
  allowOrigins: ["https://app.example.com"]
assistant:
  restoreWindowHours: 12
  archiveLimit: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 12*time.Hour, cfg.Assistant.RestoreWindow())
	assert.Equal(t, 5, cfg.Assistant.ArchiveLimit)
	// 未写出的键保留默认值
	assert.Equal(t, 7, cfg.Assistant.ArchiveRetentionDays)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NEXT_ASSIST_SERVER_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.GetDSN())
}
