package store

import (
	"context"
	"time"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/store/schema"
)

// CloseListingInput describes how an active listing was resolved
type CloseListingInput struct {
	Status      domain.ListingStatus
	BuyerWallet *string
	ResolvedAt  time.Time
	CloseTxHash string
}

// MirrorTx is the set of mirror writes available inside one database transaction.
// Everything written through a MirrorTx, including the cursor, commits or rolls back together.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=MirrorTx=MockMirrorTx
type MirrorTx interface {
	CursorStore

	// GetTicketForUpdate retrieves a ticket and locks its row until the transaction ends.
	// Returns nil when the ticket does not exist.
	GetTicketForUpdate(ctx context.Context, tokenID uint64) (*schema.Ticket, error)
	// SaveTicket inserts the ticket or overwrites the mutable columns of an existing row
	SaveTicket(ctx context.Context, ticket *schema.Ticket) error
	// GetActiveListing retrieves the active listing of a ticket, nil when there is none
	GetActiveListing(ctx context.Context, tokenID uint64) (*schema.Listing, error)
	// CreateListing inserts a new listing
	CreateListing(ctx context.Context, listing *schema.Listing) error
	// CloseListing resolves an active listing. Listings that are already closed are left untouched.
	CloseListing(ctx context.Context, listingID uint64, input CloseListingInput) error
	// CreateTransactionRecord appends a transaction record. It reports false when a
	// record with the same (tx_hash, type, token_id) already exists.
	CreateTransactionRecord(ctx context.Context, record *schema.TransactionRecord) (bool, error)
}

// ProcessLock is a held reconciler lock
type ProcessLock interface {
	// Release gives the lock up so another process can take over
	Release(ctx context.Context) error
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	CursorStore

	// GetTicket retrieves a ticket by token ID, nil when it does not exist
	GetTicket(ctx context.Context, tokenID uint64) (*schema.Ticket, error)
	// GetActiveListing retrieves the active listing of a ticket, nil when there is none
	GetActiveListing(ctx context.Context, tokenID uint64) (*schema.Listing, error)
	// GetListings retrieves all listings of a ticket ordered by creation
	GetListings(ctx context.Context, tokenID uint64) ([]schema.Listing, error)
	// GetTransactionRecords retrieves the transaction records of a ticket in ledger order
	GetTransactionRecords(ctx context.Context, tokenID uint64) ([]schema.TransactionRecord, error)
	// CreatePendingTicket records a ticket that is expected to be minted for an event.
	// Existing tickets are left untouched.
	CreatePendingTicket(ctx context.Context, tokenID uint64, eventID uint64) error

	// WithTransaction runs fn in a database transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(tx MirrorTx) error) error

	// AcquireProcessLock takes the advisory lock for a reconciler identity.
	// Returns domain.ErrLockHeld when another session holds it.
	AcquireProcessLock(ctx context.Context, processID string) (ProcessLock, error)

	// Ping checks the database connection
	Ping(ctx context.Context) error
}
