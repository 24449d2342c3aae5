package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvOverridesDefaults(t *testing.T) {
	env := map[string]string{
		"CONDO_ADDR":                    ":9090",
		"CONDO_MANAGER":                 "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"CONDO_KAFKA_BROKERS":           "a:9092, b:9092,,",
		"CONDO_RATE_LIMIT_WRITES":       "5",
		"CONDO_TOKEN_TTL":               "2h",
		"CONDO_STANDBY_IMPLEMENTATIONS": "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512, ",
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, env["CONDO_MANAGER"], cfg.Governance.Manager)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.RateLimit.Writes)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, []string{"0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"}, cfg.Governance.Standby)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) string {
		if k == "CONDO_RATE_LIMIT_WINDOW" {
			return "soon"
		}
		return ""
	})
	assert.ErrorContains(t, err, "CONDO_RATE_LIMIT_WINDOW")
}

func TestLoadMergesFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "condo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":7070"
storage:
  driver: sqlite
  dsn: "file:condo.db"
rate_limit:
  window: 30s
`), 0o600))

	t.Setenv("CONDO_CONFIG", path)
	t.Setenv("CONDO_STORAGE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "file:condo.db", cfg.Storage.DSN)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, cfg.Governance.Manager, cfg.Governance.Owner)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONDO_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.ErrorContains(t, err, "not found")
}
