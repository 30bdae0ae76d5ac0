package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"khrafet/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv очищает переменные, которые читает LoadConfig, и направляет секреты во временный каталог.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "LOG_ENCODING", "HTTP_SERVER_PORT", "AI_CLIENT_TYPE", "AI_BASE_URL", "AI_MODEL",
		"AI_TIMEOUT", "OPENROUTER_API_KEY", "SITE_URL", "SITE_NAME", "SESSION_TTL", "CORS_ALLOWED_ORIGINS",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	secretsDir := t.TempDir()
	t.Setenv("SECRETS_DIR", secretsDir)
	return secretsDir
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, config.ClientTypeOpenRouter, cfg.AIClientType)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.AIBaseURL)
	assert.Equal(t, "deepseek/deepseek-r1-0528:free", cfg.AIModel)
	assert.Equal(t, 120*time.Second, cfg.AITimeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.AIAPIKey)
	assert.False(t, cfg.RateLimitEnabled())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-env")
	t.Setenv("SITE_URL", "https://khrafet.example")
	t.Setenv("SITE_NAME", "Khrafet")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.AIAPIKey)
	assert.Equal(t, "https://khrafet.example", cfg.SiteURL)
	assert.Equal(t, "Khrafet", cfg.SiteName)
	assert.True(t, cfg.RateLimitEnabled())
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

func TestLoadConfig_APIKeyFromSecretFile(t *testing.T) {
	secretsDir := isolateEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "openrouter_api_key"), []byte("sk-secret\n"), 0o600))

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.AIAPIKey)
}

func TestLoadConfig_EnvVarWinsOverSecret(t *testing.T) {
	secretsDir := isolateEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "openrouter_api_key"), []byte("sk-secret"), 0o600))
	t.Setenv("OPENROUTER_API_KEY", "sk-env")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.AIAPIKey)
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	isolateEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AI_MODEL=qwen/qwen3-8b:free\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := config.LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "qwen/qwen3-8b:free", cfg.AIModel)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_InvalidClientType(t *testing.T) {
	isolateEnv(t)
	t.Setenv("AI_CLIENT_TYPE", "bedrock")

	_, err := config.LoadConfig("")
	assert.ErrorContains(t, err, "AI_CLIENT_TYPE")
}

func TestConfig_GetAllowedOrigins(t *testing.T) {
	cfg := &config.Config{CORSAllowedOrigins: "http://localhost:5173, https://khrafet.example"}
	assert.Equal(t, []string{"http://localhost:5173", "https://khrafet.example"}, cfg.GetAllowedOrigins())

	cfg.CORSAllowedOrigins = ""
	assert.Nil(t, cfg.GetAllowedOrigins())
}
