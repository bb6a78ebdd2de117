package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Graph.Backend)

	assert.Equal(t, int64(5), cfg.Risk.VelocityThreshold)
	assert.Equal(t, 3, cfg.Risk.RingThreshold)
	assert.Equal(t, 80.0, cfg.Risk.RiskScoreThreshold)
	assert.Equal(t, 60, cfg.Risk.WindowSeconds)
	assert.Equal(t, 30, cfg.Risk.RetentionDays)

	assert.Equal(t, 75.0, cfg.Shadow.ChallengerThreshold)
	assert.Equal(t, 8081, cfg.Shadow.ReportPort)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_BEARER_TOKEN", "sekrit")
	t.Setenv("MODEL_ARTIFACT_URL", "https://models.internal/champion.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sekrit", cfg.Auth.BearerToken)
	assert.Equal(t, "https://models.internal/champion.json", cfg.Model.ArtifactURL)
}

func TestRedisAddr(t *testing.T) {
	c := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", c.Addr())
}

func TestRiskDurations(t *testing.T) {
	r := RiskConfig{WindowSeconds: 60, RetentionDays: 30}
	assert.Equal(t, "1m0s", r.Window().String())
	assert.Equal(t, "720h0m0s", r.Retention().String())
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Graph:  GraphConfig{Backend: "redis"},
			Risk:   RiskConfig{VelocityThreshold: 5, RingThreshold: 3, WindowSeconds: 60},
		}
	}

	cfg := base()
	require.NoError(t, validate(cfg))

	cfg = base()
	cfg.Server.Port = 0
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Risk.WindowSeconds = 0
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Graph.Backend = "dynamo"
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Graph.Backend = "neo4j"
	assert.Error(t, validate(cfg), "neo4j requires a uri")
	cfg.Graph.URI = "bolt://graph:7687"
	assert.NoError(t, validate(cfg))
}
