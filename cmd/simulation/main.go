package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperdrive-otc/api/internal/intent"
	"github.com/hyperdrive-otc/api/internal/pricing"
	"github.com/hyperdrive-otc/api/internal/types"
)

const (
	numTraders     = 5
	ordersPerTrade = 10
	serverAddress  = "http://localhost:8080"
)

var markets = []string{
	"0x2222222222222222222222222222222222222222",
	"0x4444444444444444444444444444444444444444",
}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// main drives the full order lifecycle against a running server: each trader
// signs intents with its own key, posts them, lists its pending book, and
// cancels a random half.
func main() {
	chainID := int64(31337)
	engine := "0x9999999999999999999999999999999999999999"
	if v := os.Getenv("CHAIN_ID"); v != "" {
		fmt.Sscanf(v, "%d", &chainID)
	}
	if v := os.Getenv("MATCHING_ENGINE_ADDRESS"); v != "" {
		engine = v
	}

	var wg sync.WaitGroup
	for i := 0; i < numTraders; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			if err := runTrader(worker, chainID, engine); err != nil {
				log.Error().Err(err).Int("worker", worker).Msg("trader run failed")
			}
		}(i)
	}
	wg.Wait()
	log.Info().Msg("simulation complete")
}

func runTrader(worker int, chainID int64, engine string) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	signer, err := intent.NewSigner(hex.EncodeToString(crypto.FromECDSA(key)), chainID, engine)
	if err != nil {
		return err
	}

	logger := log.With().Int("worker", worker).Str("trader", signer.Address().Hex()).Logger()

	var keys []string
	for i := 0; i < ordersPerTrade; i++ {
		o, err := buildIntent(signer)
		if err != nil {
			return err
		}

		record, status, err := postOrder(o)
		if err != nil {
			return err
		}
		if status != http.StatusCreated {
			logger.Warn().Int("status", status).Msg("order rejected")
			continue
		}
		keys = append(keys, record.Key)
		logger.Info().Str("key", record.Key).Str("side", o.OrderType.String()).Msg("order placed")
	}

	// Cancel a random half of what we placed.
	for _, k := range keys {
		if rand.Intn(2) == 0 {
			continue
		}
		if err := cancelOrder(k); err != nil {
			logger.Warn().Err(err).Str("key", k).Msg("cancel failed")
			continue
		}
		logger.Info().Str("key", k).Msg("order canceled")
	}

	count, err := countPending(signer.Address().Hex())
	if err != nil {
		return err
	}
	logger.Info().Int("pending", count).Msg("final pending book")
	return nil
}

// buildIntent signs a random long or short at a random rate, deriving the
// slippage guard from the pricing module the way a front end would.
func buildIntent(signer *intent.Signer) (types.OrderIntent, error) {
	var o types.OrderIntent

	orderType := types.OrderTypeLong
	if rand.Intn(2) == 1 {
		orderType = types.OrderTypeShort
	}

	// notional in [1_000, 10_000) base units, rate in [1%, 9%)
	amount := new(big.Int).Mul(big.NewInt(int64(1000+rand.Intn(9000))), pricing.One)
	rate := new(big.Int).Div(
		new(big.Int).Mul(big.NewInt(int64(1+rand.Intn(8))), pricing.One),
		big.NewInt(100),
	)

	guard, err := pricing.DepositAmount(amount, orderType, rate)
	if err != nil {
		return o, err
	}
	log.Debug().Str("rate", pricing.FormatRatePercent(rate)).Msg("target rate chosen")

	salt, err := intent.GenerateSalt()
	if err != nil {
		return o, err
	}

	o = types.OrderIntent{
		Trader:             signer.Address().Hex(),
		Hyperdrive:         markets[rand.Intn(len(markets))],
		Amount:             amount.String(),
		SlippageGuard:      guard.String(),
		MinVaultSharePrice: pricing.One.String(),
		Options: types.OrderOptions{
			Destination: signer.Address().Hex(),
			AsBase:      true,
			ExtraData:   "0x",
		},
		OrderType: orderType,
		Expiry:    time.Now().Add(24 * time.Hour).Unix(),
		Salt:      salt,
	}
	if err := signer.Sign(&o); err != nil {
		return o, err
	}
	return o, nil
}

func postOrder(o types.OrderIntent) (*types.OrderRecord, int, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequest(http.MethodPost, serverAddress+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var record types.OrderRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, resp.StatusCode, err
	}
	return &record, resp.StatusCode, nil
}

func cancelOrder(key string) error {
	body, err := json.Marshal(types.CancelRequest{Key: key})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodDelete, serverAddress+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cancel returned %d", resp.StatusCode)
	}
	return nil
}

func countPending(trader string) (int, error) {
	resp, err := http.Get(serverAddress + "/api/v1/orders?status=pending&trader=" + trader)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var result types.ListResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	return len(result.Records), nil
}
