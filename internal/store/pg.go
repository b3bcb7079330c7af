package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
	"github.com/feral-file/ff-ticket-mirror/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, reasonable defaults are used:
//   - MaxOpenConns: 10 (if 0)
//   - MaxIdleConns: 2 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 10
	}
	if maxIdleConns == 0 {
		maxIdleConns = 2
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetBlockCursor retrieves the last processed block number for a process
func (s *pgStore) GetBlockCursor(ctx context.Context, processID string) (uint64, bool, error) {
	return NewCursorStore(s.db).GetBlockCursor(ctx, processID)
}

// SetBlockCursor stores the last processed block number for a process
func (s *pgStore) SetBlockCursor(ctx context.Context, processID string, blockNumber uint64) error {
	return NewCursorStore(s.db).SetBlockCursor(ctx, processID, blockNumber)
}

// GetTicket retrieves a ticket by token ID
func (s *pgStore) GetTicket(ctx context.Context, tokenID uint64) (*schema.Ticket, error) {
	return s.getTicket(s.db.WithContext(ctx), tokenID)
}

// GetTicketForUpdate retrieves a ticket and takes a row lock on it
func (s *pgStore) GetTicketForUpdate(ctx context.Context, tokenID uint64) (*schema.Ticket, error) {
	return s.getTicket(s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tokenID)
}

func (s *pgStore) getTicket(db *gorm.DB, tokenID uint64) (*schema.Ticket, error) {
	var ticket schema.Ticket
	err := db.Where("token_id = ?", tokenID).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

// SaveTicket upserts the ticket row
func (s *pgStore) SaveTicket(ctx context.Context, ticket *schema.Ticket) error {
	if !ticket.Status.Valid() {
		return fmt.Errorf("invalid ticket status: %s", ticket.Status)
	}

	ticket.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"event_id",
			"owner_wallet",
			"status",
			"is_checked_in",
			"checked_in_at",
			"last_tx_hash",
			"last_block_number",
			"last_log_index",
			"updated_at",
		}),
	}).Create(ticket).Error
	if err != nil {
		return fmt.Errorf("failed to save ticket: %w", err)
	}

	return nil
}

// CreatePendingTicket inserts a placeholder ticket ahead of its mint
func (s *pgStore) CreatePendingTicket(ctx context.Context, tokenID uint64, eventID uint64) error {
	ticket := schema.Ticket{
		TokenID: tokenID,
		EventID: &eventID,
		Status:  domain.TicketStatusPending,
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoNothing: true,
	}).Create(&ticket)
	if result.Error != nil {
		return fmt.Errorf("failed to create pending ticket: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		logger.DebugCtx(ctx, "Ticket already exists, pending placeholder skipped", zap.Uint64("tokenID", tokenID))
	}

	return nil
}

// GetActiveListing retrieves the active listing of a ticket
func (s *pgStore) GetActiveListing(ctx context.Context, tokenID uint64) (*schema.Listing, error) {
	var listing schema.Listing
	err := s.db.WithContext(ctx).
		Where("token_id = ? AND status = ?", tokenID, domain.ListingStatusActive).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active listing: %w", err)
	}
	return &listing, nil
}

// GetListings retrieves all listings of a ticket
func (s *pgStore) GetListings(ctx context.Context, tokenID uint64) ([]schema.Listing, error) {
	var listings []schema.Listing
	err := s.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("id ASC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	return listings, nil
}

// CreateListing inserts a new listing
func (s *pgStore) CreateListing(ctx context.Context, listing *schema.Listing) error {
	if err := s.db.WithContext(ctx).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// CloseListing resolves an active listing
func (s *pgStore) CloseListing(ctx context.Context, listingID uint64, input CloseListingInput) error {
	if input.Status == domain.ListingStatusActive {
		return fmt.Errorf("cannot close listing %d with status %s", listingID, input.Status)
	}

	result := s.db.WithContext(ctx).
		Model(&schema.Listing{}).
		Where("id = ? AND status = ?", listingID, domain.ListingStatusActive).
		Updates(map[string]interface{}{
			"status":        input.Status,
			"buyer_wallet":  input.BuyerWallet,
			"resolved_at":   input.ResolvedAt,
			"close_tx_hash": input.CloseTxHash,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to close listing: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		logger.WarnCtx(ctx, "Listing was not active, nothing closed", zap.Uint64("listingID", listingID))
	}

	return nil
}

// CreateTransactionRecord appends a transaction record unless it already exists
func (s *pgStore) CreateTransactionRecord(ctx context.Context, record *schema.TransactionRecord) (bool, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "type"}, {Name: "token_id"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create transaction record: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetTransactionRecords retrieves the transaction records of a ticket in ledger order
func (s *pgStore) GetTransactionRecords(ctx context.Context, tokenID uint64) ([]schema.TransactionRecord, error) {
	var records []schema.TransactionRecord
	err := s.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("block_number ASC, log_index ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction records: %w", err)
	}
	return records, nil
}

// WithTransaction runs fn in a database transaction
func (s *pgStore) WithTransaction(ctx context.Context, fn func(tx MirrorTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

// Ping checks the database connection
func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}

// AcquireProcessLock takes a session-level advisory lock on a dedicated connection.
// The lock is held for as long as the connection stays open.
func (s *pgStore) AcquireProcessLock(ctx context.Context, processID string) (ProcessLock, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock connection: %w", err)
	}

	var acquired bool
	err = conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", processID).Scan(&acquired)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	if !acquired {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s", domain.ErrLockHeld, processID)
	}

	logger.InfoCtx(ctx, "Acquired reconciler lock", zap.String("processID", processID))

	return &pgProcessLock{conn: conn, processID: processID}, nil
}

type pgProcessLock struct {
	conn      *sql.Conn
	processID string
}

// Release unlocks and returns the dedicated connection to the pool
func (l *pgProcessLock) Release(ctx context.Context) error {
	defer func() {
		_ = l.conn.Close()
	}()

	var released bool
	err := l.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", l.processID).Scan(&released)
	if err != nil {
		return fmt.Errorf("failed to release advisory lock: %w", err)
	}

	if !released {
		logger.WarnCtx(ctx, "Advisory lock was not held", zap.String("processID", l.processID))
	}

	return nil
}
