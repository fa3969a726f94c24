package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                  "8080",
		DatabasePath:          "orders.db",
		AllowedOrigins:        []string{"https://app.example.com"},
		ChainID:               31337,
		MatchingEngineAddress: "0x9999999999999999999999999999999999999999",
		InternalJWTSecret:     "secret",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateMissingRequired(t *testing.T) {
	c := validConfig()
	c.ChainID = 0
	require.Error(t, c.Validate())

	c = validConfig()
	c.MatchingEngineAddress = ""
	require.Error(t, c.Validate())

	c = validConfig()
	c.AllowedOrigins = nil
	require.Error(t, c.Validate())

	c = validConfig()
	c.InternalJWTSecret = ""
	require.Error(t, c.Validate())
}

func TestValidateSettlementSettings(t *testing.T) {
	c := validConfig()
	c.RPCURL = "http://localhost:8545"
	require.Error(t, c.Validate(), "operator key required with RPC URL")

	c.OperatorKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	require.Error(t, c.Validate(), "fee recipient required with RPC URL")

	c.FeeRecipient = "0x3333333333333333333333333333333333333333"
	require.NoError(t, c.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHAIN_ID", "42161")
	t.Setenv("MATCHING_ENGINE_ADDRESS", "0x9999999999999999999999999999999999999999")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("INTERNAL_JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(42161), cfg.ChainID)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadChainID(t *testing.T) {
	t.Setenv("CHAIN_ID", "not-a-number")
	t.Setenv("MATCHING_ENGINE_ADDRESS", "0x9999999999999999999999999999999999999999")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com")
	t.Setenv("INTERNAL_JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
}
