package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-ticket-mirror/internal/store/schema"
)

// CursorStore defines the interface for storing and retrieving block cursors
type CursorStore interface {
	// GetBlockCursor retrieves the last processed block number for a process.
	// found is false when the process has never committed a range.
	GetBlockCursor(ctx context.Context, processID string) (block uint64, found bool, err error)
	// SetBlockCursor stores the last processed block number for a process.
	// The stored value never decreases.
	SetBlockCursor(ctx context.Context, processID string, blockNumber uint64) error
}

type cursorStore struct {
	db *gorm.DB
}

// NewCursorStore creates a new cursor store
func NewCursorStore(db *gorm.DB) CursorStore {
	return &cursorStore{db: db}
}

// GetBlockCursor retrieves the last processed block number for a process
func (s *cursorStore) GetBlockCursor(ctx context.Context, processID string) (uint64, bool, error) {
	var cursor schema.SyncCursor
	err := s.db.WithContext(ctx).Where("process_id = ?", processID).First(&cursor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get block cursor: %w", err)
	}

	return cursor.LastProcessedBlock, true, nil
}

// SetBlockCursor upserts the cursor, ignoring values behind the stored one
func (s *cursorStore) SetBlockCursor(ctx context.Context, processID string, blockNumber uint64) error {
	cursor := schema.SyncCursor{
		ProcessID:          processID,
		LastProcessedBlock: blockNumber,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "process_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_processed_block": gorm.Expr("excluded.last_processed_block"),
			"updated_at":           gorm.Expr("now()"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "sync_cursors.last_processed_block <= excluded.last_processed_block"},
		}},
	}).Create(&cursor).Error
	if err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}

	return nil
}
