package schema

import (
	"time"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
)

// Ticket represents the tickets table - the mirrored state of one minted ticket
type Ticket struct {
	// TokenID is the ledger-assigned token identifier
	TokenID uint64 `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	// EventID is the event the ticket admits to (nil when the mint was never observed)
	EventID *uint64 `gorm:"column:event_id;type:bigint;index:idx_tickets_event_id"`
	// OwnerWallet is the lowercase address of the current owner
	OwnerWallet *string `gorm:"column:owner_wallet;type:text;index:idx_tickets_owner_wallet"`
	// Status is the mirrored lifecycle status
	Status domain.TicketStatus `gorm:"column:status;type:text;not null"`
	// IsCheckedIn reports whether the ticket has been used
	IsCheckedIn bool `gorm:"column:is_checked_in;not null;default:false"`
	// CheckedInAt is when the ticket was used
	CheckedInAt *time.Time `gorm:"column:checked_in_at;type:timestamptz"`
	// LastTxHash is the transaction of the last ledger event applied to this ticket
	LastTxHash *string `gorm:"column:last_tx_hash;type:text"`
	// LastBlockNumber and LastLogIndex locate the last applied ledger event.
	// Events at or before this position have already been applied and are skipped.
	LastBlockNumber *uint64 `gorm:"column:last_block_number;type:bigint"`
	LastLogIndex    *uint   `gorm:"column:last_log_index;type:integer"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Ticket model
func (Ticket) TableName() string {
	return "tickets"
}

// AppliedPosition returns the log position of the last applied event, or nil if none
func (t *Ticket) AppliedPosition() *domain.LogPosition {
	if t.LastBlockNumber == nil || t.LastLogIndex == nil {
		return nil
	}
	return &domain.LogPosition{BlockNumber: *t.LastBlockNumber, LogIndex: *t.LastLogIndex}
}

// HasApplied reports whether an event at the given position is already reflected in the row
func (t *Ticket) HasApplied(position domain.LogPosition) bool {
	applied := t.AppliedPosition()
	return applied != nil && !applied.Before(position)
}
