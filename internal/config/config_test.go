package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockMind/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, databaseDSNEnv, databaseURLEnv, generationProviderEnv, generationModelEnv,
		geminiAPIKeysEnv, geminiAPIKeyEnv, openAIAPIKeysEnv, resendAPIKeyEnv, mailFromEnv,
		cronSecretEnv, httpAddrEnv, logLevelEnv, telegramTokenEnv, telegramChatIDEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, ProviderGemini, cfg.Generation.Provider)
	assert.Equal(t, 4*time.Second, cfg.Generation.MinInterval)
	assert.Equal(t, 60*time.Second, cfg.Generation.CallTimeout)
	assert.Equal(t, "0 6 * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Empty(t, cfg.Generation.APIKeys)

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(geminiAPIKeysEnv, "k1, k2,k3")
	t.Setenv(databaseDSNEnv, "postgres://u:p@db:5432/x")
	t.Setenv(cronSecretEnv, "s3cret")
	t.Setenv(resendAPIKeyEnv, "re_123")
	t.Setenv(logLevelEnv, "debug")

	cfg := Load()

	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Generation.APIKeys)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Database.DSN)
	assert.Equal(t, "s3cret", cfg.HTTP.CronSecret)
	assert.Equal(t, "re_123", cfg.Mail.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadSingleGeminiKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv(geminiAPIKeyEnv, "solo")

	cfg := Load()

	assert.Equal(t, []string{"solo"}, cfg.Generation.APIKeys)
}

func TestLoadOpenAIKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv(generationProviderEnv, "OpenAI")
	t.Setenv(geminiAPIKeysEnv, "ignored")
	t.Setenv(openAIAPIKeysEnv, "sk-1;sk-2")

	cfg := Load()

	assert.Equal(t, ProviderOpenAI, cfg.Generation.Provider)
	assert.Equal(t, []string{"sk-1", "sk-2"}, cfg.Generation.APIKeys)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
scheduler:
  cronExpression: "30 7 * * *"
  timezone: Asia/Taipei
  runTimeout: 5m
generation:
  apiKeys: [a, b]
  minInterval: 2s
  language: Traditional Chinese
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, "30 7 * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, "Asia/Taipei", cfg.Scheduler.Location().String())
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.RunTimeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Generation.APIKeys)
	assert.Equal(t, 2*time.Second, cfg.Generation.MinInterval)
	assert.Equal(t, "Traditional Chinese", cfg.Generation.Language)
	assert.Equal(t, "json", cfg.Logging.Format)
	// untouched sections keep defaults
	assert.Equal(t, 60*time.Second, cfg.Generation.CallTimeout)
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := defaultConfig()
	cfg.Generation.APIKeys = []string{"k"}
	cfg.Generation.Provider = "llama"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "llama")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList(" a,,b ;\nc "))
	assert.Empty(t, splitList(""))
}
