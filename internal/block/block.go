package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-mirror/internal/adapter"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
)

// BlockInfo represents cached head information
type BlockInfo struct {
	Number    uint64
	Timestamp time.Time
}

// BlockTimestampCache represents cached timestamp for a specific block number
type BlockTimestampCache struct {
	Timestamp time.Time
	CachedAt  time.Time
}

// BlockProvider provides cached access to the ledger head and to block timestamps.
// It reduces RPC calls by caching the head for a configurable TTL and block
// timestamps until they are pruned behind the cursor.
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=BlockProvider=MockBlockProvider
type BlockProvider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (uint64, error)

	// GetBlockTimestamp returns the timestamp for a given block number, potentially from cache
	GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)

	// GetBlockTimestamps resolves the timestamps of several blocks concurrently
	GetBlockTimestamps(ctx context.Context, blockNumbers []uint64) (map[uint64]time.Time, error)

	// Prune drops cached timestamps of blocks below the given number
	Prune(belowBlock uint64)
}

// BlockFetcher is the interface for fetching block information from the ledger
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=BlockFetcher=MockBlockFetcher
type BlockFetcher interface {
	// FetchLatestBlock fetches the latest block from the ledger
	FetchLatestBlock(ctx context.Context) (uint64, error)

	// FetchBlockTimestamp fetches the timestamp for a given block number
	FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Config holds configuration for the BlockProvider
type Config struct {
	// TTL is how long to cache the head block number
	TTL time.Duration

	// StaleWindow is how long to use stale data if fetching fails
	// If the cached data is older than this and fetch fails, return error
	StaleWindow time.Duration

	// BlockTimestampTTL is how long to cache block timestamps
	// Set to 0 to cache until pruned
	BlockTimestampTTL time.Duration

	// Workers bounds concurrent timestamp fetches in GetBlockTimestamps
	Workers int
}

// blockProvider implements BlockProvider with TTL-based caching
type blockProvider struct {
	fetcher BlockFetcher
	config  Config
	clock   adapter.Clock
	pool    pond.Pool

	mu              sync.RWMutex
	blockInfo       *BlockInfo
	blockTimestamps map[uint64]*BlockTimestampCache
}

// NewBlockProvider creates a new BlockProvider with caching
func NewBlockProvider(fetcher BlockFetcher, config Config, clock adapter.Clock) BlockProvider {
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}

	return &blockProvider{
		fetcher:         fetcher,
		config:          config,
		clock:           clock,
		pool:            pond.NewPool(workers),
		blockTimestamps: make(map[uint64]*BlockTimestampCache),
	}
}

// GetLatestBlock returns the latest block number, using cache if valid
func (p *blockProvider) GetLatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.blockInfo
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && now.Sub(cached.Timestamp) < p.config.TTL {
		logger.DebugCtx(ctx, "Using cached block number", zap.Uint64("block_number", cached.Number))
		return cached.Number, nil
	}

	blockNumber, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if cached != nil && now.Sub(cached.Timestamp) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Using stale block number", zap.Uint64("block_number", cached.Number), zap.Error(err))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	p.mu.Lock()
	// The head never moves backwards through the cache; a lagging RPC node is ignored
	if p.blockInfo == nil || blockNumber >= p.blockInfo.Number {
		p.blockInfo = &BlockInfo{Number: blockNumber, Timestamp: now}
	} else {
		logger.WarnCtx(ctx, "Ledger head moved backwards, keeping cached head",
			zap.Uint64("cached_block", p.blockInfo.Number),
			zap.Uint64("fetched_block", blockNumber))
		p.blockInfo.Timestamp = now
		blockNumber = p.blockInfo.Number
	}
	p.mu.Unlock()

	return blockNumber, nil
}

// GetBlockTimestamp returns the timestamp for a given block number, using cache if valid
func (p *blockProvider) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	p.mu.RLock()
	cached := p.blockTimestamps[blockNumber]
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && (p.config.BlockTimestampTTL == 0 || now.Sub(cached.CachedAt) < p.config.BlockTimestampTTL) {
		return cached.Timestamp, nil
	}

	timestamp, err := p.fetcher.FetchBlockTimestamp(ctx, blockNumber)
	if err != nil {
		if cached != nil && now.Sub(cached.CachedAt) < p.config.StaleWindow {
			return cached.Timestamp, nil
		}
		return time.Time{}, fmt.Errorf("failed to fetch block timestamp for block %d and no valid cache available: %w", blockNumber, err)
	}

	p.mu.Lock()
	p.blockTimestamps[blockNumber] = &BlockTimestampCache{
		Timestamp: timestamp,
		CachedAt:  now,
	}
	p.mu.Unlock()

	return timestamp, nil
}

// GetBlockTimestamps resolves the timestamps of distinct blocks on the worker pool.
// The first failure is returned and the partial result discarded.
func (p *blockProvider) GetBlockTimestamps(ctx context.Context, blockNumbers []uint64) (map[uint64]time.Time, error) {
	result := make(map[uint64]time.Time, len(blockNumbers))
	if len(blockNumbers) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	seen := make(map[uint64]struct{}, len(blockNumbers))
	group := p.pool.NewGroup()

	for _, blockNumber := range blockNumbers {
		if _, ok := seen[blockNumber]; ok {
			continue
		}
		seen[blockNumber] = struct{}{}

		group.SubmitErr(func() error {
			timestamp, err := p.GetBlockTimestamp(ctx, blockNumber)
			if err != nil {
				return err
			}
			mu.Lock()
			result[blockNumber] = timestamp
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// Prune drops cached timestamps of blocks below the given number
func (p *blockProvider) Prune(belowBlock uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for blockNumber := range p.blockTimestamps {
		if blockNumber < belowBlock {
			delete(p.blockTimestamps, blockNumber)
		}
	}
}
