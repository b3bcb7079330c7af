package reconciler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-mirror/internal/adapter"
	"github.com/feral-file/ff-ticket-mirror/internal/block"
	"github.com/feral-file/ff-ticket-mirror/internal/cursor"
	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
	"github.com/feral-file/ff-ticket-mirror/internal/store"
)

// Range is an inclusive block range
type Range struct {
	FromBlock uint64
	ToBlock   uint64
}

// Result summarizes one applied range
type Result struct {
	// Cursor is the checkpoint after the range committed
	Cursor cursor.Cursor
	// Applied lists the events that changed the mirror, in ledger order
	Applied []domain.TicketEvent
	// Skipped counts mint artifacts and events already reflected in the mirror
	Skipped int
	// Unrecognized counts logs the classifier could not decode
	Unrecognized int
	// Anomalies counts events whose effect disagreed with the mirrored state
	Anomalies int
}

// Reconciler applies classified ledger events to the mirror
//
//go:generate mockgen -source=reconciler.go -destination=../mocks/reconciler.go -package=mocks -mock_names=Reconciler=MockReconciler
type Reconciler interface {
	// Apply applies the events of a block range and advances the cursor to the end
	// of the range in one transaction. Events must be in ascending log order and
	// the range must start right after the current cursor. On error nothing is
	// written and the returned result carries the unchanged cursor.
	Apply(ctx context.Context, current cursor.Cursor, rng Range, events []domain.LedgerEvent) (Result, error)
}

type reconciler struct {
	store   store.Store
	cursors cursor.Manager
	blocks  block.BlockProvider
	json    adapter.JSON
	jcs     adapter.JCS
}

// New creates a new reconciler
func New(st store.Store, cursors cursor.Manager, blocks block.BlockProvider, json adapter.JSON, jcs adapter.JCS) Reconciler {
	return &reconciler{
		store:   st,
		cursors: cursors,
		blocks:  blocks,
		json:    json,
		jcs:     jcs,
	}
}

// Apply applies the range
func (r *reconciler) Apply(ctx context.Context, current cursor.Cursor, rng Range, events []domain.LedgerEvent) (Result, error) {
	if rng.FromBlock > rng.ToBlock || rng.FromBlock != current.Next() {
		return Result{Cursor: current}, fmt.Errorf("%w: cursor at %d, range %d-%d",
			domain.ErrRangeOutOfOrder, current.LastProcessedBlock, rng.FromBlock, rng.ToBlock)
	}

	if err := validateEvents(rng, events); err != nil {
		return Result{Cursor: current}, err
	}

	blockTimes, err := r.resolveBlockTimes(ctx, events)
	if err != nil {
		return Result{Cursor: current}, err
	}

	var result Result
	err = r.store.WithTransaction(ctx, func(tx store.MirrorTx) error {
		p := &pass{
			reconciler: r,
			tx:         tx,
			blockTimes: blockTimes,
			result:     &Result{},
		}

		for _, event := range events {
			if err := p.apply(ctx, event); err != nil {
				meta := event.Meta()
				return fmt.Errorf("failed to apply %s at block %d log %d: %w",
					event.Kind(), meta.BlockNumber, meta.LogIndex, err)
			}
		}

		next, err := r.cursors.Advance(ctx, tx, current, rng.ToBlock)
		if err != nil {
			return err
		}
		p.result.Cursor = next
		result = *p.result

		return nil
	})
	if err != nil {
		return Result{Cursor: current}, err
	}

	logger.InfoCtx(ctx, "Applied block range",
		zap.Uint64("fromBlock", rng.FromBlock),
		zap.Uint64("toBlock", rng.ToBlock),
		zap.Int("events", len(events)),
		zap.Int("applied", len(result.Applied)),
		zap.Int("skipped", result.Skipped),
		zap.Int("unrecognized", result.Unrecognized),
		zap.Int("anomalies", result.Anomalies))

	return result, nil
}

// validateEvents checks that events lie in the range and never go back in log order.
// Repeated positions are allowed; the repeat is skipped when applied.
func validateEvents(rng Range, events []domain.LedgerEvent) error {
	var previous *domain.LogPosition
	for _, event := range events {
		position := event.Meta().Position()
		if position.BlockNumber < rng.FromBlock || position.BlockNumber > rng.ToBlock {
			return fmt.Errorf("%w: %s at block %d, range %d-%d",
				domain.ErrEventOutsideRange, event.Kind(), position.BlockNumber, rng.FromBlock, rng.ToBlock)
		}
		if previous != nil && position.Before(*previous) {
			return fmt.Errorf("%w: block %d log %d after block %d log %d",
				domain.ErrEventOutOfOrder, position.BlockNumber, position.LogIndex, previous.BlockNumber, previous.LogIndex)
		}
		previous = &position
	}
	return nil
}

// resolveBlockTimes fetches the timestamps of every block holding a ticket event
func (r *reconciler) resolveBlockTimes(ctx context.Context, events []domain.LedgerEvent) (map[uint64]time.Time, error) {
	blockNumbers := make([]uint64, 0, len(events))
	for _, event := range events {
		if _, ok := event.(domain.TicketEvent); ok {
			blockNumbers = append(blockNumbers, event.Meta().BlockNumber)
		}
	}

	blockTimes, err := r.blocks.GetBlockTimestamps(ctx, blockNumbers)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve block timestamps: %w", err)
	}

	return blockTimes, nil
}
