package schema

import "time"

// SyncCursor stores the last block whose events are fully reflected in the mirror,
// one row per reconciler process identity
type SyncCursor struct {
	ProcessID          string    `gorm:"column:process_id;primaryKey;type:text"`
	LastProcessedBlock uint64    `gorm:"column:last_processed_block;type:bigint;not null"`
	UpdatedAt          time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
	CreatedAt          time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

func (SyncCursor) TableName() string {
	return "sync_cursors"
}
