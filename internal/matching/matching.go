// Package matching pairs a stored pending intent with a newly signed
// counter-intent and settles the pair through the on-chain matching engine.
// Settlement is an explicit two-phase operation: submit, then await
// confirmation; the fill is recorded in the store only after confirmation.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperdrive-otc/api/internal/store"
	"github.com/hyperdrive-otc/api/internal/types"
)

var (
	ErrSameSide       = errors.New("matching: both intents are on the same side")
	ErrMarketMismatch = errors.New("matching: intents target different markets")
	ErrExpiredIntent  = errors.New("matching: intent is expired")
	ErrReverted       = errors.New("matching: settlement transaction reverted")
)

// SettlementStatus is the outcome of AwaitConfirmation.
type SettlementStatus int

const (
	SettlementConfirmed SettlementStatus = iota
	SettlementReverted
)

// Backend is the subset of an Ethereum node client the matching client
// needs: read calls, transaction submission, and receipt polling.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Client drives settlement against the matching engine contract.
type Client struct {
	backend  Backend
	engine   common.Address
	engABI   abi.ABI
	contract *bind.BoundContract
	opts     *bind.TransactOpts
	fee      common.Address
	orders   *store.Store
	logger   zerolog.Logger

	// ConfirmTimeout bounds AwaitConfirmation when the caller's context has
	// no earlier deadline.
	ConfirmTimeout time.Duration
}

// NewClient builds a matching client. The operator key signs settlement
// transactions and pays gas; it is not a trader key.
func NewClient(backend Backend, matchingEngine, operatorKeyHex, feeRecipient string, chainID int64, orders *store.Store) (*Client, error) {
	engABI, err := parseEngineABI()
	if err != nil {
		return nil, fmt.Errorf("parse matching engine abi: %w", err)
	}

	operatorKey, err := crypto.HexToECDSA(strings.TrimPrefix(operatorKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid operator key: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(operatorKey, big.NewInt(chainID))
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	engine := common.HexToAddress(matchingEngine)
	return &Client{
		backend:        backend,
		engine:         engine,
		engABI:         engABI,
		contract:       bind.NewBoundContract(engine, engABI, backend, backend, backend),
		opts:           opts,
		fee:            common.HexToAddress(feeRecipient),
		orders:         orders,
		logger:         log.With().Str("component", "matching_client").Logger(),
		ConfirmTimeout: 2 * time.Minute,
	}, nil
}

// orient splits a pair of intents into (long, short) regardless of argument
// order, rejecting same-side and cross-market pairs up front.
func orient(a, b *types.OrderIntent) (long, short *types.OrderIntent, err error) {
	if a.OrderType == b.OrderType {
		return nil, nil, ErrSameSide
	}
	if !strings.EqualFold(a.Hyperdrive, b.Hyperdrive) {
		return nil, nil, ErrMarketMismatch
	}
	now := time.Now().Unix()
	if a.Expiry <= now || b.Expiry <= now {
		return nil, nil, ErrExpiredIntent
	}
	if a.OrderType == types.OrderTypeLong {
		return a, b, nil
	}
	return b, a, nil
}

// matchCalldata packs the matchOrders call. The long leg settles first; the
// short side's slippage guard doubles as the minimum-output bound on the
// combined settlement.
func (c *Client) matchCalldata(long, short *types.OrderIntent) ([]byte, error) {
	longOrder, err := toABIOrder(long)
	if err != nil {
		return nil, fmt.Errorf("long order: %w", err)
	}
	shortOrder, err := toABIOrder(short)
	if err != nil {
		return nil, fmt.Errorf("short order: %w", err)
	}

	minOutput, err := types.ParseBig(short.SlippageGuard)
	if err != nil {
		return nil, fmt.Errorf("minOutput: %w", err)
	}

	return c.engABI.Pack("matchOrders",
		longOrder,
		shortOrder,
		minOutput,
		longOrder.Options,
		shortOrder.Options,
		c.fee,
		true, // long settles first
	)
}

// SimulateMatch dry-runs the settlement call for a candidate pair. It is a
// speculative probe: every failure, from malformed intents to an on-chain
// revert, is logged and reported as false, never as an error.
func (c *Client) SimulateMatch(ctx context.Context, a, b *types.OrderIntent) bool {
	long, short, err := orient(a, b)
	if err != nil {
		c.logger.Warn().Err(err).Msg("match simulation rejected pair")
		return false
	}

	data, err := c.matchCalldata(long, short)
	if err != nil {
		c.logger.Warn().Err(err).Msg("match simulation could not build calldata")
		return false
	}

	if _, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		From: c.opts.From,
		To:   &c.engine,
		Data: data,
	}, nil); err != nil {
		c.logger.Warn().Err(err).
			Str("long_trader", long.Trader).
			Str("short_trader", short.Trader).
			Msg("match simulation reverted")
		return false
	}
	return true
}

// SubmitMatch sends the real settlement transaction and returns its handle
// without waiting for inclusion.
func (c *Client) SubmitMatch(ctx context.Context, a, b *types.OrderIntent) (*ethtypes.Transaction, error) {
	long, short, err := orient(a, b)
	if err != nil {
		return nil, err
	}

	data, err := c.matchCalldata(long, short)
	if err != nil {
		return nil, err
	}

	opts := *c.opts
	opts.Context = ctx

	tx, err := c.contract.RawTransact(&opts, data)
	if err != nil {
		return nil, fmt.Errorf("submit matchOrders: %w", err)
	}

	c.logger.Info().
		Str("tx", tx.Hash().Hex()).
		Str("long_trader", long.Trader).
		Str("short_trader", short.Trader).
		Msg("settlement submitted")
	return tx, nil
}

// AwaitConfirmation blocks until the settlement transaction is mined and
// reports whether it succeeded. The caller's context bounds the wait; if it
// has no deadline, ConfirmTimeout applies.
func (c *Client) AwaitConfirmation(ctx context.Context, tx *ethtypes.Transaction) (SettlementStatus, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ConfirmTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return SettlementReverted, fmt.Errorf("await settlement: %w", err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return SettlementReverted, nil
	}
	return SettlementConfirmed, nil
}

// FillOrder settles a stored pending intent against a newly signed
// counter-intent: submit, await confirmation, then record the fill. The
// store write happens only after the chain confirms; a reverted settlement
// leaves the store untouched.
func (c *Client) FillOrder(ctx context.Context, pendingKey string, newIntent types.OrderIntent) (*types.MatchResponse, error) {
	pending, err := c.orders.Get(ctx, pendingKey)
	if err != nil {
		return nil, err
	}
	if pending.Status != types.StatusPending {
		return nil, fmt.Errorf("%w: %s is not pending", store.ErrNotFound, pendingKey)
	}

	tx, err := c.SubmitMatch(ctx, &pending.Data.OrderIntent, &newIntent)
	if err != nil {
		return nil, err
	}

	status, err := c.AwaitConfirmation(ctx, tx)
	if err != nil {
		return nil, err
	}
	if status == SettlementReverted {
		c.logger.Error().Str("tx", tx.Hash().Hex()).Msg("settlement reverted")
		return nil, ErrReverted
	}

	record, err := c.orders.RecordFill(ctx, newIntent, pendingKey)
	if err != nil {
		return nil, err
	}
	return &types.MatchResponse{TxHash: tx.Hash().Hex(), Record: *record}, nil
}

// CancelOrder cancels the stored pending order and then makes a best-effort
// attempt to invalidate the intent's signature on-chain. The on-chain leg is
// advisory; its failure never unwinds the store cancellation.
func (c *Client) CancelOrder(ctx context.Context, key string) (*types.OrderRecord, error) {
	record, err := c.orders.Cancel(ctx, key)
	if err != nil {
		return nil, err
	}

	order, err := toABIOrder(&record.Data.OrderIntent)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("skipping on-chain cancellation")
		return record, nil
	}

	opts := *c.opts
	opts.Context = ctx
	if tx, err := c.contract.Transact(&opts, "cancelOrders", []abiOrder{order}); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("on-chain cancellation failed")
	} else {
		c.logger.Info().Str("tx", tx.Hash().Hex()).Str("key", key).Msg("on-chain cancellation submitted")
	}
	return record, nil
}
