package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfig(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":9090"
room:
  codeLength: 8
  chatHistoryLimit: 50
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 8, cfg.Room.CodeLength)
	assert.Equal(t, 50, cfg.Room.ChatHistoryLimit)

	// дефолты логирования
	assert.Equal(t, "meet-service", cfg.Logging.Service)
	assert.Equal(t, "dev", cfg.Logging.Env)
	assert.Equal(t, "std", cfg.Logging.Backend)
}

func TestLoadConfig_RequiresAddr(t *testing.T) {
	writeConfig(t, `
logging:
  env: "dev"
`)

	_, err := LoadConfig()
	assert.EqualError(t, err, "http.addr is required")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}
