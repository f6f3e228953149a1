package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_SERVER_PORT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.7, cfg.Duplicate.Threshold)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 15*time.Second, cfg.Extraction.FetchTimeout)
	assert.Equal(t, "openrouter", cfg.LLM.Provider)
	assert.Equal(t, uint32(10), cfg.Resilience.BreakerMinRequests)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DUPLICATE_THRESHOLD", "0.85")
	t.Setenv("APP_EXTRACTION_FETCH_TIMEOUT", "3s")
	t.Setenv("OPENAI_API_KEY", "sk-test-123456789")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.85, cfg.Duplicate.Threshold)
	assert.Equal(t, 3*time.Second, cfg.Extraction.FetchTimeout)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.True(t, cfg.LLM.Enabled())
}

func TestLoadConfigRejectsInvalidThreshold(t *testing.T) {
	t.Setenv("DUPLICATE_THRESHOLD", "1.5")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "sk-o...wxyz", MaskSecret("sk-or-abcdefwxyz"))
}
