package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "trocas.sqlite3", cfg.DB.Path)
	assert.Equal(t, 4, cfg.Export.Workers)
	assert.Equal(t, EvidenceSQLite, cfg.Evidence.Backend)
	assert.EqualValues(t, 10<<20, cfg.Evidence.MaxBytes)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Evidence.RemoteHosts)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trocas.env")
	content := "SERVER_ADDR=:9090\nEXPORT_WORKERS=8\nLOG_LEVEL=debug\nKAFKA_BROKERS=k1:9092, k2:9092\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("EXPORT_WORKERS", "2")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "10s")
	t.Setenv("EVIDENCE_REMOTE_HOSTS", "photos.example.com, cdn.example.com:8443")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Export.Workers, "environment overrides file")
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"photos.example.com", "cdn.example.com:8443"}, cfg.Evidence.RemoteHosts)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}

func TestValidateAggregatesMessages(t *testing.T) {
	t.Setenv("EXPORT_WORKERS", "0")
	t.Setenv("EVIDENCE_BACKEND", "ftp")
	t.Setenv("DB_PATH", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPORT_WORKERS must be greater than 0")
	assert.Contains(t, err.Error(), "EVIDENCE_BACKEND must be")
	assert.Contains(t, err.Error(), "DB_PATH is required")
}

func TestValidateS3Backend(t *testing.T) {
	t.Setenv("EVIDENCE_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET is required")
}
