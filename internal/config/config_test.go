package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultsApplyWithNoEnvOrFile(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 1000, cfg.MaxBacklinks)
	assert.Equal(t, 0.75, cfg.HighRiskThreshold)
	assert.Equal(t, 0.5, cfg.MediumRiskThreshold)
	assert.Equal(t, 0.8, cfg.MinhashThreshold)
	assert.True(t, cfg.UseEnsemble)
	assert.True(t, cfg.UseEnhancedFeatures)
	assert.True(t, cfg.UseParallelProcessing)
	assert.Equal(t, 4, cfg.ParallelWorkers)
	assert.Equal(t, 50, cfg.ParallelThreshold)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("PBN_MAX_BACKLINKS", "5000")
	t.Setenv("PARALLEL_WORKERS", "8")
	t.Setenv("USE_ENSEMBLE", "false")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 5000, cfg.MaxBacklinks)
	assert.Equal(t, 8, cfg.ParallelWorkers)
	assert.False(t, cfg.UseEnsemble)
}

func TestLoad_UnmappedEnvVarsAreIgnored(t *testing.T) {
	t.Setenv("SOME_UNRELATED_VAR", "whatever")
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 1000, cfg.MaxBacklinks)
}

func TestLoad_RejectsInvertedThresholds(t *testing.T) {
	t.Setenv("HIGH_RISK_THRESHOLD", "0.2")
	t.Setenv("MEDIUM_RISK_THRESHOLD", "0.5")
	_, err := Load()
	assert.Error(t, err)
}

func TestCacheDir_FilesystemPathUsedDirectly(t *testing.T) {
	c := &Config{RedisURL: "/var/lib/pbn-cache"}
	assert.Equal(t, "/var/lib/pbn-cache", c.CacheDir())
}

func TestCacheDir_URLFallsBackToTempDir(t *testing.T) {
	c := &Config{RedisURL: "redis://localhost:6379/0"}
	assert.Contains(t, c.CacheDir(), "pbn-detector-cache-")
}

func TestCacheDir_EmptyMeansInMemory(t *testing.T) {
	c := &Config{}
	assert.Equal(t, "", c.CacheDir())
}
