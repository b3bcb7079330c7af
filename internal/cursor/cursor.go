package cursor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-mirror/internal/block"
	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
	"github.com/feral-file/ff-ticket-mirror/internal/store"
)

// Cursor is the checkpoint of one reconciler process: every ledger event in
// blocks up to and including LastProcessedBlock is reflected in the mirror
type Cursor struct {
	ProcessID          string
	LastProcessedBlock uint64
}

// Next returns the first block not yet processed
func (c Cursor) Next() uint64 {
	return c.LastProcessedBlock + 1
}

// Config holds the checkpoint settings of a reconciler process
type Config struct {
	// ProcessID names the cursor row
	ProcessID string
	// StartBlock is the first block to process when no cursor exists, 0 to derive it from the head
	StartBlock uint64
	// StartOffset is how far behind the head a fresh cursor starts when StartBlock is 0
	StartOffset uint64
}

// Manager loads and advances the reconciler checkpoint
//
//go:generate mockgen -source=cursor.go -destination=../mocks/cursor.go -package=mocks -mock_names=Manager=MockCursorManager
type Manager interface {
	// Load returns the stored cursor. When none exists a fallback cursor is derived
	// from the configuration and persisted so later loads start from the same block.
	Load(ctx context.Context) (Cursor, error)

	// Advance moves the cursor to toBlock through the given writer, usually the
	// transaction that applied the range. toBlock must not be behind the current cursor.
	Advance(ctx context.Context, w store.CursorStore, current Cursor, toBlock uint64) (Cursor, error)
}

type manager struct {
	config  Config
	cursors store.CursorStore
	blocks  block.BlockProvider
}

// NewManager creates a new checkpoint manager
func NewManager(cfg Config, cursors store.CursorStore, blocks block.BlockProvider) Manager {
	return &manager{config: cfg, cursors: cursors, blocks: blocks}
}

// Load returns the stored cursor or persists the fallback one
func (m *manager) Load(ctx context.Context) (Cursor, error) {
	lastProcessed, found, err := m.cursors.GetBlockCursor(ctx, m.config.ProcessID)
	if err != nil {
		return Cursor{}, fmt.Errorf("failed to load cursor: %w", err)
	}

	if found {
		return Cursor{ProcessID: m.config.ProcessID, LastProcessedBlock: lastProcessed}, nil
	}

	fallback, err := m.fallback(ctx)
	if err != nil {
		return Cursor{}, err
	}

	if err := m.cursors.SetBlockCursor(ctx, m.config.ProcessID, fallback); err != nil {
		return Cursor{}, fmt.Errorf("failed to persist initial cursor: %w", err)
	}

	logger.InfoCtx(ctx, "No cursor found, starting from fallback",
		zap.String("processID", m.config.ProcessID),
		zap.Uint64("lastProcessedBlock", fallback))

	return Cursor{ProcessID: m.config.ProcessID, LastProcessedBlock: fallback}, nil
}

// fallback computes the last processed block of a fresh deployment
func (m *manager) fallback(ctx context.Context) (uint64, error) {
	if m.config.StartBlock > 0 {
		return m.config.StartBlock - 1, nil
	}

	head, err := m.blocks.GetLatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get head for initial cursor: %w", err)
	}

	if head < m.config.StartOffset {
		return 0, nil
	}

	return head - m.config.StartOffset, nil
}

// Advance persists the new checkpoint through w
func (m *manager) Advance(ctx context.Context, w store.CursorStore, current Cursor, toBlock uint64) (Cursor, error) {
	if toBlock < current.LastProcessedBlock {
		return current, fmt.Errorf("%w: cursor at %d, advance to %d", domain.ErrRangeOutOfOrder, current.LastProcessedBlock, toBlock)
	}

	if err := w.SetBlockCursor(ctx, current.ProcessID, toBlock); err != nil {
		return current, fmt.Errorf("failed to advance cursor: %w", err)
	}

	return Cursor{ProcessID: current.ProcessID, LastProcessedBlock: toBlock}, nil
}
