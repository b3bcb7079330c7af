package schema

import (
	"time"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
)

// Listing represents the listings table - one marketplace offer for a ticket.
// At most one row per token_id has status 'active' (partial unique index).
type Listing struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenID references the listed ticket
	TokenID uint64 `gorm:"column:token_id;not null;index:idx_listings_token_id"`
	// SellerWallet is the lowercase address of the seller
	SellerWallet string `gorm:"column:seller_wallet;type:text;not null"`
	// PriceToken is the asking price in ledger-native units (up to 78 digits)
	PriceToken string `gorm:"column:price_token;type:numeric(78,0);not null"`
	// Status is active until the listing is cancelled or sold
	Status domain.ListingStatus `gorm:"column:status;type:text;not null"`
	// BuyerWallet is set when the listing is sold
	BuyerWallet *string `gorm:"column:buyer_wallet;type:text"`
	// ListedAt is the block time of the Listed event
	ListedAt time.Time `gorm:"column:listed_at;not null;type:timestamptz"`
	// ResolvedAt is the block time of the event that closed the listing
	ResolvedAt *time.Time `gorm:"column:resolved_at;type:timestamptz"`
	// OpenTxHash is the transaction that opened the listing
	OpenTxHash string `gorm:"column:open_tx_hash;type:text;not null"`
	// OpenBlockNumber is the block of the Listed event
	OpenBlockNumber uint64 `gorm:"column:open_block_number;type:bigint;not null"`
	// CloseTxHash is the transaction that closed the listing
	CloseTxHash *string `gorm:"column:close_tx_hash;type:text"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}
