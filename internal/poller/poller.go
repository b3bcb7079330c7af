package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-mirror/internal/adapter"
	"github.com/feral-file/ff-ticket-mirror/internal/block"
	"github.com/feral-file/ff-ticket-mirror/internal/classifier"
	"github.com/feral-file/ff-ticket-mirror/internal/cursor"
	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
	"github.com/feral-file/ff-ticket-mirror/internal/messaging"
	"github.com/feral-file/ff-ticket-mirror/internal/providers/ethereum"
	"github.com/feral-file/ff-ticket-mirror/internal/reconciler"
)

const (
	defaultBatchSize             = 2000
	defaultPollInterval          = 12 * time.Second
	defaultChunkTimeout          = 2 * time.Minute
	defaultFailureBackoffInitial = 5 * time.Second
	defaultFailureBackoffMax     = 5 * time.Minute
)

// Config holds the configuration for the poll loop
type Config struct {
	ProcessID string
	Chain     domain.Chain
	// BatchSize bounds the number of blocks applied per chunk
	BatchSize uint64
	// Confirmations is how many blocks behind the head the loop stays
	Confirmations uint64
	// PollInterval is the timer period; new heads also trigger a cycle
	PollInterval time.Duration
	// ChunkTimeout bounds fetching and applying one chunk
	ChunkTimeout time.Duration
	// FailureBackoffInitial and FailureBackoffMax bound the delay after a failed cycle
	FailureBackoffInitial time.Duration
	FailureBackoffMax     time.Duration
}

// BlockRange is an inclusive block range reported in Stats
type BlockRange struct {
	FromBlock uint64 `json:"from_block"`
	ToBlock   uint64 `json:"to_block"`
}

// Stats is a snapshot of the poll loop progress
type Stats struct {
	ProcessID           string      `json:"process_id"`
	Chain               string      `json:"chain"`
	LastProcessedBlock  uint64      `json:"last_processed_block"`
	HeadBlock           uint64      `json:"head_block"`
	Lag                 uint64      `json:"lag"`
	LastPassID          string      `json:"last_pass_id,omitempty"`
	LastRange           *BlockRange `json:"last_range,omitempty"`
	LastApplied         int         `json:"last_applied"`
	LastSkipped         int         `json:"last_skipped"`
	LastUnrecognized    int         `json:"last_unrecognized"`
	LastAnomalies       int         `json:"last_anomalies"`
	TotalApplied        uint64      `json:"total_applied"`
	ConsecutiveFailures int         `json:"consecutive_failures"`
	LastError           string      `json:"last_error,omitempty"`
	LastSuccessAt       *time.Time  `json:"last_success_at,omitempty"`
	NextRetryAt         *time.Time  `json:"next_retry_at,omitempty"`
}

// Poller drives the reconciler over the ledger
//
//go:generate mockgen -source=poller.go -destination=../mocks/poller.go -package=mocks -mock_names=Poller=MockPoller
type Poller interface {
	// Run ticks on the poll interval and on new heads until the context is cancelled.
	// A failed cycle delays the next one with exponential backoff.
	Run(ctx context.Context) error

	// Tick catches the mirror up with the confirmed head, one chunk at a time.
	// The cursor advances after every committed chunk.
	Tick(ctx context.Context) error

	// Stats returns a snapshot of the loop progress
	Stats() Stats
}

type poller struct {
	config     Config
	ledger     ethereum.EthereumClient
	blocks     block.BlockProvider
	classifier classifier.Classifier
	cursors    cursor.Manager
	reconciler reconciler.Reconciler
	publisher  messaging.Publisher
	clock      adapter.Clock
	backoff    *backoff.ExponentialBackOff

	mu    sync.RWMutex
	stats Stats
}

// NewPoller creates a new poll loop
func NewPoller(
	cfg Config,
	ledger ethereum.EthereumClient,
	blocks block.BlockProvider,
	classifier classifier.Classifier,
	cursors cursor.Manager,
	rec reconciler.Reconciler,
	publisher messaging.Publisher,
	clock adapter.Clock,
) Poller {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ChunkTimeout <= 0 {
		cfg.ChunkTimeout = defaultChunkTimeout
	}
	if cfg.FailureBackoffInitial <= 0 {
		cfg.FailureBackoffInitial = defaultFailureBackoffInitial
	}
	if cfg.FailureBackoffMax <= 0 {
		cfg.FailureBackoffMax = defaultFailureBackoffMax
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.FailureBackoffInitial
	b.MaxInterval = cfg.FailureBackoffMax
	b.MaxElapsedTime = 0 // never give up, the loop runs until cancelled
	b.Reset()

	return &poller{
		config:     cfg,
		ledger:     ledger,
		blocks:     blocks,
		classifier: classifier,
		cursors:    cursors,
		reconciler: rec,
		publisher:  publisher,
		clock:      clock,
		backoff:    b,
		stats: Stats{
			ProcessID: cfg.ProcessID,
			Chain:     string(cfg.Chain),
		},
	}
}

// Run runs the poll loop
func (p *poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	heads := make(chan *types.Header, 16)
	var subErr <-chan error
	sub, err := p.ledger.SubscribeNewHead(ctx, heads)
	if err != nil {
		logger.WarnCtx(ctx, "New head subscription unavailable, polling on timer only", zap.Error(err))
	} else {
		defer sub.Unsubscribe()
		subErr = sub.Err()
	}

	logger.InfoCtx(ctx, "Poll loop started",
		zap.String("processID", p.config.ProcessID),
		zap.Duration("pollInterval", p.config.PollInterval),
		zap.Uint64("batchSize", p.config.BatchSize),
		zap.Uint64("confirmations", p.config.Confirmations))

	p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Poll loop stopped")
			return ctx.Err()
		case <-ticker.C():
		case header := <-heads:
			if header != nil && header.Number != nil {
				logger.DebugCtx(ctx, "New head received", zap.Uint64("blockNumber", header.Number.Uint64()))
			}
		case err := <-subErr:
			logger.WarnCtx(ctx, "New head subscription ended, polling on timer only", zap.Error(err))
			subErr = nil
			continue
		}

		p.runCycle(ctx)
	}
}

// runCycle runs one tick unless the loop is backing off after a failure
func (p *poller) runCycle(ctx context.Context) {
	now := p.clock.Now()

	p.mu.RLock()
	retryAt := p.stats.NextRetryAt
	p.mu.RUnlock()

	if retryAt != nil && now.Before(*retryAt) {
		logger.DebugCtx(ctx, "Backing off after failure", zap.Time("retryAt", *retryAt))
		return
	}

	err := p.Tick(ctx)
	if err == nil {
		p.backoff.Reset()
		p.recordSuccess(p.clock.Now())
		return
	}

	if ctx.Err() != nil {
		return
	}

	delay := p.backoff.NextBackOff()
	failures := p.recordFailure(err, p.clock.Now().Add(delay))
	logger.ErrorCtx(ctx, fmt.Errorf("reconcile cycle failed: %w", err),
		zap.Int("consecutiveFailures", failures),
		zap.Duration("retryIn", delay))
}

// Tick catches up with the confirmed head
func (p *poller) Tick(ctx context.Context) error {
	current, err := p.cursors.Load(ctx)
	if err != nil {
		return err
	}

	head, err := p.blocks.GetLatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to get head: %w", err)
	}
	p.recordHead(head, current)

	if head < p.config.Confirmations {
		return nil
	}
	target := head - p.config.Confirmations

	if current.Next() > target {
		logger.DebugCtx(ctx, "Mirror is up to date",
			zap.Uint64("lastProcessedBlock", current.LastProcessedBlock),
			zap.Uint64("targetBlock", target))
		return nil
	}

	for current.Next() <= target {
		if err := ctx.Err(); err != nil {
			return err
		}

		from := current.Next()
		to := from + p.config.BatchSize - 1
		if to > target || to < from {
			to = target
		}

		current, err = p.processChunk(ctx, current, reconciler.Range{FromBlock: from, ToBlock: to})
		if err != nil {
			return err
		}
		p.recordHead(head, current)
	}

	return nil
}

// processChunk fetches, classifies and applies one chunk under the chunk deadline
func (p *poller) processChunk(ctx context.Context, current cursor.Cursor, rng reconciler.Range) (cursor.Cursor, error) {
	pass := logger.PassInfo{
		PassID:    ulid.Make().String(),
		ProcessID: p.config.ProcessID,
		FromBlock: rng.FromBlock,
		ToBlock:   rng.ToBlock,
	}
	ctx = logger.WithPass(ctx, pass)

	chunkCtx, cancel := context.WithTimeout(ctx, p.config.ChunkTimeout)
	defer cancel()

	logs, err := p.ledger.GetLogs(chunkCtx, rng.FromBlock, rng.ToBlock, p.classifier.Emitters())
	if err != nil {
		return current, fmt.Errorf("failed to get logs for blocks %d-%d: %w", rng.FromBlock, rng.ToBlock, err)
	}

	events := make([]domain.LedgerEvent, 0, len(logs))
	for _, log := range logs {
		events = append(events, p.classifier.Classify(log))
	}

	result, err := p.reconciler.Apply(chunkCtx, current, rng, events)
	if err != nil {
		return current, fmt.Errorf("failed to reconcile blocks %d-%d: %w", rng.FromBlock, rng.ToBlock, err)
	}

	p.recordPass(pass.PassID, rng, result)
	p.blocks.Prune(rng.ToBlock + 1)
	p.publish(ctx, result.Applied)

	return result.Cursor, nil
}

// publish announces committed changes; failures are logged and never retried
func (p *poller) publish(ctx context.Context, applied []domain.TicketEvent) {
	if len(applied) == 0 {
		return
	}

	changes := make([]domain.MirrorChange, 0, len(applied))
	for _, event := range applied {
		changes = append(changes, domain.NewMirrorChange(p.config.Chain, event))
	}

	if err := p.publisher.PublishChanges(ctx, changes); err != nil {
		logger.WarnCtx(ctx, "Failed to publish mirror changes", zap.Error(err), zap.Int("changes", len(changes)))
	}
}

// Stats returns a snapshot of the loop progress
func (p *poller) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := p.stats
	if p.stats.LastRange != nil {
		lastRange := *p.stats.LastRange
		snapshot.LastRange = &lastRange
	}
	return snapshot
}

func (p *poller) recordHead(head uint64, current cursor.Cursor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.HeadBlock = head
	p.stats.LastProcessedBlock = current.LastProcessedBlock
	p.stats.Lag = 0
	if head > current.LastProcessedBlock {
		p.stats.Lag = head - current.LastProcessedBlock
	}
}

func (p *poller) recordPass(passID string, rng reconciler.Range, result reconciler.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.LastPassID = passID
	p.stats.LastRange = &BlockRange{FromBlock: rng.FromBlock, ToBlock: rng.ToBlock}
	p.stats.LastApplied = len(result.Applied)
	p.stats.LastSkipped = result.Skipped
	p.stats.LastUnrecognized = result.Unrecognized
	p.stats.LastAnomalies = result.Anomalies
	p.stats.TotalApplied += uint64(len(result.Applied))
}

func (p *poller) recordSuccess(at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.ConsecutiveFailures = 0
	p.stats.LastError = ""
	p.stats.NextRetryAt = nil
	p.stats.LastSuccessAt = &at
}

func (p *poller) recordFailure(err error, retryAt time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.ConsecutiveFailures++
	p.stats.LastError = err.Error()
	p.stats.NextRetryAt = &retryAt
	return p.stats.ConsecutiveFailures
}
