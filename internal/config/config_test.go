package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
env: "dev"
storage:
  driver: "memory"
  csv_dir: "./data"
http_server:
  address: "localhost:9090"
  timeout: 5s
  idle_timeout: 30s
agent:
  max_rounds: 8
  timeout: 45s
  tool_timeout: 5s
model:
  provider: "openai"
  name: "gpt-test"
sms:
  provider: "log"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "localhost:9090", cfg.HTTPServer.Address)
	assert.Equal(t, 120*time.Second, cfg.HTTPServer.WriteTimeout)
	assert.Equal(t, 8, cfg.Agent.MaxRounds)
	assert.Equal(t, 5*time.Second, cfg.Agent.ToolTimeout)
	assert.Equal(t, "gpt-test", cfg.Model.Name)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Model.BaseURL)
	assert.Equal(t, SMSLog, cfg.SMS.Provider)
	assert.False(t, cfg.Translation.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, path, cfgErr.Path)
	assert.Equal(t, "config file does not exist", cfgErr.Reason)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load(writeConfig(t, testYAML))
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "invalid config", cfgErr.Reason)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func validConfig() Config {
	return Config{
		Storage: Storage{Driver: StorageMemory},
		Agent:   Agent{MaxRounds: 12, Timeout: time.Minute, ToolTimeout: time.Second},
		Model:   Model{Provider: ModelOpenAI, Name: "gpt-test", APIKey: "sk-test"},
		SMS:     SMS{Provider: SMSLog},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "postgres", mutate: func(c *Config) { c.Storage.Driver = StoragePostgres }},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "sqlite" },
			wantErr: `unsupported storage driver "sqlite"`,
		},
		{
			name:    "unknown model provider",
			mutate:  func(c *Config) { c.Model.Provider = "local" },
			wantErr: `unsupported model provider "local"`,
		},
		{
			name:    "twilio without credentials",
			mutate:  func(c *Config) { c.SMS = SMS{Provider: SMSTwilio, AccountSID: "AC1"} },
			wantErr: "twilio sms provider requires",
		},
		{
			name: "twilio complete",
			mutate: func(c *Config) {
				c.SMS = SMS{Provider: SMSTwilio, AccountSID: "AC1", AuthToken: "tok", From: "+15550001111"}
			},
		},
		{
			name:    "unknown sms provider",
			mutate:  func(c *Config) { c.SMS.Provider = "pigeon" },
			wantErr: `unsupported sms provider "pigeon"`,
		},
		{
			name:    "zero rounds",
			mutate:  func(c *Config) { c.Agent.MaxRounds = 0 },
			wantErr: "agent.max_rounds must be > 0",
		},
		{
			name:    "zero tool timeout",
			mutate:  func(c *Config) { c.Agent.ToolTimeout = 0 },
			wantErr: "agent timeouts must be > 0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
