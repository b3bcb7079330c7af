package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
)

// TransactionRecord represents the transaction_records table - append-only audit of
// ledger events that move ownership or money. (tx_hash, type, token_id) is unique.
type TransactionRecord struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenID references the ticket
	TokenID uint64 `gorm:"column:token_id;not null;uniqueIndex:idx_transaction_records_dedup"`
	// Type is one of transfer, list, unlist, sale
	Type domain.TransactionType `gorm:"column:type;type:text;not null;uniqueIndex:idx_transaction_records_dedup"`
	// FromWallet is the sender or seller
	FromWallet *string `gorm:"column:from_wallet;type:text"`
	// ToWallet is the recipient or buyer
	ToWallet *string `gorm:"column:to_wallet;type:text"`
	// PriceToken is the amount in ledger-native units for list and sale records
	PriceToken *string `gorm:"column:price_token;type:numeric(78,0)"`
	// TxHash is the transaction that emitted the event
	TxHash string `gorm:"column:tx_hash;type:text;not null;uniqueIndex:idx_transaction_records_dedup"`
	// BlockNumber is the block the event was recorded in
	BlockNumber uint64 `gorm:"column:block_number;type:bigint;not null"`
	// LogIndex is the position of the event in the block
	LogIndex uint `gorm:"column:log_index;type:integer;not null"`
	// BlockTime is the block timestamp
	BlockTime time.Time `gorm:"column:block_time;not null;type:timestamptz"`
	// Raw is the canonical JSON of the classified event
	Raw datatypes.JSON `gorm:"column:raw;type:jsonb"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TransactionRecord model
func (TransactionRecord) TableName() string {
	return "transaction_records"
}
