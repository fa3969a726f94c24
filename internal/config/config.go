// Package config loads the process configuration from the environment once
// at startup. Everything that needs it receives the struct by injection;
// there are no configuration globals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// DatabasePath is the SQLite file backing the object store.
	DatabasePath string
	// AllowedOrigins is the explicit CORS allow-list.
	AllowedOrigins []string
	// ChainID pins the EIP-712 signing domain.
	ChainID int64
	// MatchingEngineAddress is the verifying contract of the signing domain
	// and the target of settlement calls.
	MatchingEngineAddress string
	// RPCURL is the settlement node endpoint. Optional: without it the
	// server runs the bulletin board only and the match routes report
	// upstream failure.
	RPCURL string
	// OperatorKey signs settlement transactions and pays gas. Required only
	// when RPCURL is set.
	OperatorKey string
	// FeeRecipient receives matching fees on settlement.
	FeeRecipient string
	// InternalJWTSecret protects the internal match/cancel routes.
	InternalJWTSecret string
}

// Load reads configuration from the environment, with an optional .env file
// for development. Missing required settings are a startup error; the
// process must fail fast rather than serve misconfigured.
func Load() (*Config, error) {
	// Absence of a .env file is fine in production.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  envOr("PORT", "8080"),
		DatabasePath:          envOr("DATABASE_PATH", "orders.db"),
		MatchingEngineAddress: os.Getenv("MATCHING_ENGINE_ADDRESS"),
		RPCURL:                os.Getenv("RPC_URL"),
		OperatorKey:           os.Getenv("OPERATOR_KEY"),
		FeeRecipient:          os.Getenv("FEE_RECIPIENT"),
		InternalJWTSecret:     os.Getenv("INTERNAL_JWT_SECRET"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	chainID := os.Getenv("CHAIN_ID")
	if chainID != "" {
		id, err := strconv.ParseInt(chainID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("CHAIN_ID: %w", err)
		}
		cfg.ChainID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the required settings.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("CHAIN_ID is required")
	}
	if !common.IsHexAddress(c.MatchingEngineAddress) {
		return fmt.Errorf("MATCHING_ENGINE_ADDRESS is required and must be a hex address")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS is required")
	}
	if c.InternalJWTSecret == "" {
		return fmt.Errorf("INTERNAL_JWT_SECRET is required")
	}
	if c.RPCURL != "" {
		if c.OperatorKey == "" {
			return fmt.Errorf("OPERATOR_KEY is required when RPC_URL is set")
		}
		if !common.IsHexAddress(c.FeeRecipient) {
			return fmt.Errorf("FEE_RECIPIENT is required when RPC_URL is set")
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
