package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Port         int           `env:"SAMPLE_CFG_PORT" envDefault:"8080"`
	FetchTimeout time.Duration `env:"SAMPLE_CFG_FETCH_TIMEOUT" envDefault:"5s"`
	Model        string        `env:"SAMPLE_CFG_MODEL" envDefault:"claude-haiku"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "claude-haiku", cfg.Model)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("SAMPLE_CFG_PORT", "9090")
	t.Setenv("SAMPLE_CFG_FETCH_TIMEOUT", "750ms")

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.FetchTimeout)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SAMPLE_CFG_FETCH_TIMEOUT", "soon")

	var cfg sampleConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

type requiredConfig struct {
	Secret string `env:"SAMPLE_CFG_SECRET,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	require.Error(t, Load(&cfg))
}

func TestCheckPort(t *testing.T) {
	assert.NoError(t, CheckPort("HTTP_PORT", 8080))
	assert.Error(t, CheckPort("HTTP_PORT", 0))
	assert.Error(t, CheckPort("HTTP_PORT", 70000))
}

func TestCheckPositive(t *testing.T) {
	assert.NoError(t, CheckPositive("FETCH_TIMEOUT", time.Second))
	assert.ErrorContains(t, CheckPositive("FETCH_TIMEOUT", 0), "FETCH_TIMEOUT")
}

func TestCheckFraction(t *testing.T) {
	assert.NoError(t, CheckFraction("rate", 0.5))
	assert.Error(t, CheckFraction("rate", 1.5))
	assert.Error(t, CheckFraction("rate", -0.1))
}
