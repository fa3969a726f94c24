package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/hyperdrive-otc/api/internal/api"
	"github.com/hyperdrive-otc/api/internal/config"
	"github.com/hyperdrive-otc/api/internal/intent"
	"github.com/hyperdrive-otc/api/internal/matching"
	"github.com/hyperdrive-otc/api/internal/store"
)

// init configures the application logging based on environment settings.
// In development mode, it enables pretty printing with timestamps; debug
// logging can be enabled via the DEBUG environment variable.
func init() {
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main wires the order bulletin board and, when a settlement node is
// configured, the matching client, then serves until interrupted.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := store.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to open database")
	}

	verifier := intent.NewVerifier(cfg.ChainID, cfg.MatchingEngineAddress)
	orders := store.New(store.NewGormObjectStore(db), verifier)

	var matcher *matching.Client
	if cfg.RPCURL != "" {
		backend, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to connect to settlement node")
		}
		matcher, err = matching.NewClient(backend,
			cfg.MatchingEngineAddress, cfg.OperatorKey, cfg.FeeRecipient, cfg.ChainID, orders)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to build matching client")
		}
	} else {
		zlog.Warn().Msg("no RPC_URL configured, match routes disabled")
	}

	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(cfg, api.NewHandlers(orders, matcher))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		zlog.Info().Str("port", cfg.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}
