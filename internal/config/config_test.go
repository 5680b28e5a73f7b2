package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "memory", cfg.StorageDriver)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_STORAGE_DRIVER", "sqlite")
	t.Setenv("LEDGER_SQLITE_PATH", "/tmp/test-ledger.db")
	t.Setenv("LEDGER_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("LEDGER_REQUEST_TIMEOUT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.StorageDriver)
	require.Equal(t, "/tmp/test-ledger.db", cfg.SQLitePath)
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 250*time.Millisecond, cfg.RequestTimeout)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("LEDGER_REQUEST_TIMEOUT", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}
