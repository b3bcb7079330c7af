package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-mirror/internal/adapter"
	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
)

// EthereumClient is the ledger client the reconciler reads from
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum_client.go -package=mocks -mock_names=EthereumClient=MockEthereumClient
type EthereumClient interface {
	// HeadBlockNumber returns the current head block number
	HeadBlockNumber(ctx context.Context) (uint64, error)

	// GetLogs returns the logs emitted by the given addresses in [fromBlock, toBlock],
	// sorted by block number and log index. An empty range returns no logs.
	GetLogs(ctx context.Context, fromBlock, toBlock uint64, emitters []common.Address) ([]types.Log, error)

	// SubscribeNewHead subscribes to new block headers
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)

	// VerifyConnection checks that the endpoint answers and serves the configured chain.
	// It returns the current head block number.
	VerifyConnection(ctx context.Context) (uint64, error)

	// Close closes the connection
	Close()
}

// RetryConfig bounds the retry of a single log query on transient errors
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig is used when no retry configuration is given
var DefaultRetryConfig = RetryConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

type ethereumClient struct {
	chainID domain.Chain
	client  adapter.EthClient
	retry   RetryConfig
}

// NewClient creates a new ledger client over an Ethereum RPC connection
func NewClient(chainID domain.Chain, client adapter.EthClient, retry RetryConfig) EthereumClient {
	return &ethereumClient{chainID: chainID, client: client, retry: retry}
}

// HeadBlockNumber returns the current head block number
func (c *ethereumClient) HeadBlockNumber(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// VerifyConnection makes a round trip to the endpoint. HTTP clients dial lazily,
// so this is the first call that can fail on an unreachable node.
func (c *ethereumClient) VerifyConnection(ctx context.Context) (uint64, error) {
	expected, err := c.chainID.EIP155ChainID()
	if err != nil {
		return 0, err
	}

	served, err := c.client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain id: %w", err)
	}
	if !served.IsUint64() || served.Uint64() != expected {
		return 0, fmt.Errorf("%w: configured %s, endpoint serves chain id %s", domain.ErrChainMismatch, c.chainID, served.String())
	}

	return c.HeadBlockNumber(ctx)
}

// SubscribeNewHead subscribes to new block headers
func (c *ethereumClient) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	return c.client.SubscribeNewHead(ctx, ch)
}

// GetLogs fetches the logs for the range, halving the query step whenever the
// provider rejects a query for returning too many results
func (c *ethereumClient) GetLogs(ctx context.Context, fromBlock, toBlock uint64, emitters []common.Address) ([]types.Log, error) {
	if fromBlock > toBlock {
		return []types.Log{}, nil
	}

	query := ethereum.FilterQuery{
		Addresses: emitters,
	}

	var allLogs []types.Log
	stepSize := toBlock - fromBlock + 1
	currentFrom := fromBlock

	for currentFrom <= toBlock {
		currentTo := currentFrom + stepSize - 1
		if currentTo > toBlock || currentTo < currentFrom {
			currentTo = toBlock
		}

		chunkQuery := query
		chunkQuery.FromBlock = new(big.Int).SetUint64(currentFrom)
		chunkQuery.ToBlock = new(big.Int).SetUint64(currentTo)

		logs, err := c.filterLogsWithRetry(ctx, chunkQuery)
		if err == nil {
			allLogs = append(allLogs, logs...)
			currentFrom = currentTo + 1
			continue
		}

		if !isTooManyResultsError(err) {
			return nil, fmt.Errorf("failed to get logs for range %d-%d: %w", currentFrom, currentTo, err)
		}

		if stepSize == 1 {
			return nil, fmt.Errorf("too many results for single block %d: %w", currentFrom, err)
		}

		stepSize = stepSize / 2

		logger.WarnCtx(ctx, "Too many results, reducing step size",
			zap.Uint64("oldStepSize", stepSize*2),
			zap.Uint64("newStepSize", stepSize),
			zap.Uint64("fromBlock", currentFrom),
			zap.Uint64("toBlock", currentTo))
	}

	sortLogs(allLogs)

	return allLogs, nil
}

// filterLogsWithRetry retries transient failures of a single query.
// "Too many results" is returned immediately so the caller can shrink the range.
func (c *ethereumClient) filterLogsWithRetry(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	b.MaxInterval = c.retry.MaxInterval
	b.MaxElapsedTime = 0 // bounded by MaxRetries and the context

	var logs []types.Log
	operation := func() error {
		var err error
		logs, err = c.client.FilterLogs(ctx, query)
		if err != nil && (isTooManyResultsError(err) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Log query failed, retrying",
			zap.Error(err),
			zap.String("chain", string(c.chainID)),
			zap.Duration("next_retry_in", next))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.retry.MaxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}

	return logs, nil
}

// sortLogs orders logs by (block number, log index)
func sortLogs(logs []types.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	// Check for common "too many results" error messages
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum") ||
		strings.Contains(errStr, "block range is too wide")
}

// Close closes the connection
func (c *ethereumClient) Close() {
	if c.client == nil {
		return
	}

	c.client.Close()
	logger.Info("Ethereum RPC connection closed", zap.String("chain", string(c.chainID)))
}
