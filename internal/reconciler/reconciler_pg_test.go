package reconciler_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/ff-ticket-mirror/internal/adapter"
	"github.com/feral-file/ff-ticket-mirror/internal/cursor"
	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/reconciler"
	"github.com/feral-file/ff-ticket-mirror/internal/store"
	"github.com/feral-file/ff-ticket-mirror/internal/store/schema"
)

const testProcessID = "ticket-reconciler-test"

var (
	pgOnce      sync.Once
	pgErr       error
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// startPGContainer starts PostgreSQL on first use so the mock-based tests run without Docker
func startPGContainer() error {
	ctx := context.Background()

	dsn := ""
	if dbHost := os.Getenv("TEST_DB_HOST"); dbHost != "" {
		dbPort := os.Getenv("TEST_DB_PORT")
		if dbPort == "" {
			dbPort = "5432"
		}
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, os.Getenv("TEST_DB_USER"), os.Getenv("TEST_DB_PASSWORD"), os.Getenv("TEST_DB_NAME"))
	} else {
		var err error
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			return fmt.Errorf("failed to start PostgreSQL container: %w", err)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			return fmt.Errorf("failed to get connection string: %w", err)
		}
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	schemaSQL, err := os.ReadFile(filepath.Join("..", "..", "db", "init_pg_db.sql")) //nolint:gosec,G304
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	if err := db.Exec(string(schemaSQL)).Error; err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	testDB = db
	return nil
}

func terminatePGContainer() {
	if pgContainer == nil {
		return
	}
	if err := pgContainer.Terminate(context.Background()); err != nil {
		fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
	}
}

// fakeBlocks derives block timestamps from block numbers
type fakeBlocks struct{}

func (fakeBlocks) GetLatestBlock(context.Context) (uint64, error) { return 0, nil }

func (fakeBlocks) GetBlockTimestamp(_ context.Context, blockNumber uint64) (time.Time, error) {
	return blockTime(blockNumber), nil
}

func (fakeBlocks) GetBlockTimestamps(_ context.Context, blockNumbers []uint64) (map[uint64]time.Time, error) {
	times := make(map[uint64]time.Time, len(blockNumbers))
	for _, n := range blockNumbers {
		times[n] = blockTime(n)
	}
	return times, nil
}

func (fakeBlocks) Prune(uint64) {}

// pgHarness wires a reconciler to a PostgreSQL store isolated in a rolled-back transaction
type pgHarness struct {
	store      store.Store
	cursors    cursor.Manager
	reconciler reconciler.Reconciler
}

func setupPGTest(t *testing.T) *pgHarness {
	pgOnce.Do(func() { pgErr = startPGContainer() })
	require.NoError(t, pgErr)

	tx := testDB.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		tx.Rollback()
	})

	st := store.NewPGStore(tx)
	return newPGHarness(st)
}

func newPGHarness(st store.Store) *pgHarness {
	cursors := cursor.NewManager(cursor.Config{ProcessID: testProcessID, StartBlock: 100}, st, fakeBlocks{})
	return &pgHarness{
		store:      st,
		cursors:    cursors,
		reconciler: reconciler.New(st, cursors, fakeBlocks{}, adapter.NewJSON(), adapter.NewJCS()),
	}
}

// apply loads the cursor and applies [from, to]
func (h *pgHarness) apply(t *testing.T, from, to uint64, events ...domain.LedgerEvent) reconciler.Result {
	ctx := context.Background()

	current, err := h.cursors.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, from, current.Next())

	result, err := h.reconciler.Apply(ctx, current, reconciler.Range{FromBlock: from, ToBlock: to}, events)
	require.NoError(t, err)
	return result
}

func (h *pgHarness) ticket(t *testing.T, tokenID uint64) *schema.Ticket {
	ticket, err := h.store.GetTicket(context.Background(), tokenID)
	require.NoError(t, err)
	return ticket
}

func (h *pgHarness) records(t *testing.T, tokenID uint64) []schema.TransactionRecord {
	records, err := h.store.GetTransactionRecords(context.Background(), tokenID)
	require.NoError(t, err)
	return records
}

func (h *pgHarness) listings(t *testing.T, tokenID uint64) []schema.Listing {
	listings, err := h.store.GetListings(context.Background(), tokenID)
	require.NoError(t, err)
	return listings
}

// ticketLifecycle is mint, transfer, list and sale of token 42 for event 7
func ticketLifecycle() []domain.LedgerEvent {
	return []domain.LedgerEvent{
		&domain.TicketMinted{EventMeta: meta(100, 0, "0xmint"), TokenID: 42, EventID: 7, Owner: walletA},
		&domain.TransferredOwnership{EventMeta: meta(100, 1, "0xmint"), From: domain.ETHEREUM_ZERO_ADDRESS, To: walletA, TokenID: 42, MintArtifact: true},
		&domain.TransferredOwnership{EventMeta: meta(101, 0, "0xtransfer"), From: walletA, To: walletB, TokenID: 42},
		&domain.Listed{EventMeta: meta(102, 3, "0xlist"), TokenID: 42, Seller: walletB, Price: big.NewInt(10)},
		&domain.Sold{EventMeta: meta(103, 1, "0xsale"), TokenID: 42, Seller: walletB, Buyer: walletC, Price: big.NewInt(10)},
	}
}

func assertLifecycleState(t *testing.T, h *pgHarness) {
	ticket := h.ticket(t, 42)
	require.NotNil(t, ticket)
	assert.Equal(t, domain.TicketStatusSold, ticket.Status)
	assert.Equal(t, walletC, *ticket.OwnerWallet)
	assert.Equal(t, uint64(7), *ticket.EventID)
	assert.Equal(t, "0xsale", *ticket.LastTxHash)
	assert.False(t, ticket.IsCheckedIn)

	listings := h.listings(t, 42)
	require.Len(t, listings, 1)
	assert.Equal(t, domain.ListingStatusSold, listings[0].Status)
	assert.Equal(t, walletB, listings[0].SellerWallet)
	assert.Equal(t, walletC, *listings[0].BuyerWallet)
	assert.Equal(t, "10", listings[0].PriceToken)

	records := h.records(t, 42)
	require.Len(t, records, 3)
	assert.Equal(t, domain.TransactionTypeTransfer, records[0].Type)
	assert.Equal(t, domain.TransactionTypeList, records[1].Type)
	assert.Equal(t, domain.TransactionTypeSale, records[2].Type)
	assert.Equal(t, "10", *records[2].PriceToken)
	assert.True(t, blockTime(103).Equal(records[2].BlockTime))
}

func TestReconcilerPG_TicketLifecycle(t *testing.T) {
	h := setupPGTest(t)

	result := h.apply(t, 100, 110, ticketLifecycle()...)
	assert.Equal(t, uint64(110), result.Cursor.LastProcessedBlock)
	assert.Len(t, result.Applied, 4)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Anomalies)

	assertLifecycleState(t, h)

	stored, found, err := h.store.GetBlockCursor(context.Background(), testProcessID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(110), stored)
}

func TestReconcilerPG_ReplayIsIdempotent(t *testing.T) {
	h := setupPGTest(t)
	ctx := context.Background()

	h.apply(t, 100, 110, ticketLifecycle()...)

	// Replaying the same range from an older checkpoint changes nothing
	stale := cursor.Cursor{ProcessID: testProcessID, LastProcessedBlock: 99}
	result, err := h.reconciler.Apply(ctx, stale, reconciler.Range{FromBlock: 100, ToBlock: 110}, ticketLifecycle())
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	assert.Equal(t, 5, result.Skipped)
	assert.Equal(t, uint64(110), result.Cursor.LastProcessedBlock)

	assertLifecycleState(t, h)
}

func TestReconcilerPG_DuplicateSoldRecordsOneSale(t *testing.T) {
	h := setupPGTest(t)

	sold := &domain.Sold{EventMeta: meta(103, 1, "0xsale"), TokenID: 42, Seller: walletB, Buyer: walletC, Price: big.NewInt(10)}
	events := append(ticketLifecycle(), sold)

	result := h.apply(t, 100, 110, events...)
	assert.Len(t, result.Applied, 4)
	assert.Equal(t, 2, result.Skipped)

	assertLifecycleState(t, h)
}

func TestReconcilerPG_ResaleAfterSale(t *testing.T) {
	h := setupPGTest(t)

	first := h.apply(t, 100, 110, ticketLifecycle()...)
	assert.Equal(t, 0, first.Anomalies)

	// The buyer relists and sells the ticket on
	resale := h.apply(t, 111, 120,
		&domain.Listed{EventMeta: meta(112, 0, "0xrelist"), TokenID: 42, Seller: walletC, Price: big.NewInt(15)},
		&domain.Sold{EventMeta: meta(113, 2, "0xresale"), TokenID: 42, Seller: walletC, Buyer: walletA, Price: big.NewInt(15)},
	)
	assert.Len(t, resale.Applied, 2)
	assert.Equal(t, 0, resale.Anomalies)

	ticket := h.ticket(t, 42)
	require.NotNil(t, ticket)
	assert.Equal(t, domain.TicketStatusSold, ticket.Status)
	assert.Equal(t, walletA, *ticket.OwnerWallet)
	assert.Equal(t, "0xresale", *ticket.LastTxHash)

	listings := h.listings(t, 42)
	require.Len(t, listings, 2)
	for _, listing := range listings {
		assert.Equal(t, domain.ListingStatusSold, listing.Status)
		require.NotNil(t, listing.ResolvedAt)
	}
	assert.Equal(t, walletB, listings[0].SellerWallet)
	assert.Equal(t, walletC, *listings[0].BuyerWallet)
	assert.Equal(t, walletC, listings[1].SellerWallet)
	assert.Equal(t, walletA, *listings[1].BuyerWallet)
	assert.Equal(t, "15", listings[1].PriceToken)

	active, err := h.store.GetActiveListing(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, active)

	records := h.records(t, 42)
	require.Len(t, records, 5)
	assert.Equal(t, []domain.TransactionType{
		domain.TransactionTypeTransfer,
		domain.TransactionTypeList,
		domain.TransactionTypeSale,
		domain.TransactionTypeList,
		domain.TransactionTypeSale,
	}, []domain.TransactionType{records[0].Type, records[1].Type, records[2].Type, records[3].Type, records[4].Type})
	assert.Equal(t, "15", *records[4].PriceToken)

	// A sold ticket can also move by plain transfer
	moved := h.apply(t, 121, 130,
		&domain.TransferredOwnership{EventMeta: meta(121, 0, "0xgift"), From: walletA, To: walletB, TokenID: 42})
	assert.Equal(t, 0, moved.Anomalies)

	ticket = h.ticket(t, 42)
	assert.Equal(t, domain.TicketStatusTransferred, ticket.Status)
	assert.Equal(t, walletB, *ticket.OwnerWallet)
}

// failingStore fails SaveTicket for one token inside transactions
type failingStore struct {
	store.Store
	failToken uint64
}

type failingTx struct {
	store.MirrorTx
	failToken uint64
}

var errInjected = errors.New("injected failure")

func (s *failingStore) WithTransaction(ctx context.Context, fn func(tx store.MirrorTx) error) error {
	return s.Store.WithTransaction(ctx, func(tx store.MirrorTx) error {
		return fn(&failingTx{MirrorTx: tx, failToken: s.failToken})
	})
}

func (tx *failingTx) SaveTicket(ctx context.Context, ticket *schema.Ticket) error {
	if ticket.TokenID == tx.failToken {
		return errInjected
	}
	return tx.MirrorTx.SaveTicket(ctx, ticket)
}

func TestReconcilerPG_FailedRangeLeavesNoTrace(t *testing.T) {
	h := setupPGTest(t)
	ctx := context.Background()

	events := append(ticketLifecycle(),
		&domain.TicketMinted{EventMeta: meta(104, 0, "0xmint2"), TokenID: 43, EventID: 7, Owner: walletA})

	failing := newPGHarness(&failingStore{Store: h.store, failToken: 43})
	current, err := failing.cursors.Load(ctx)
	require.NoError(t, err)

	result, err := failing.reconciler.Apply(ctx, current, reconciler.Range{FromBlock: 100, ToBlock: 110}, events)
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, current, result.Cursor)

	// Nothing from the range is visible, including the earlier token
	assert.Nil(t, h.ticket(t, 42))
	assert.Empty(t, h.records(t, 42))
	assert.Empty(t, h.listings(t, 42))

	stored, _, err := h.store.GetBlockCursor(ctx, testProcessID)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), stored)

	// Retrying the range reaches the same state as an uninterrupted run
	h.apply(t, 100, 110, events...)
	assertLifecycleState(t, h)
	assert.NotNil(t, h.ticket(t, 43))
}

func TestReconcilerPG_AtMostOneActiveListing(t *testing.T) {
	h := setupPGTest(t)

	result := h.apply(t, 100, 110,
		&domain.TicketMinted{EventMeta: meta(100, 0, "0xmint"), TokenID: 42, EventID: 7, Owner: walletA},
		&domain.Listed{EventMeta: meta(101, 0, "0xlist1"), TokenID: 42, Seller: walletA, Price: big.NewInt(10)},
		&domain.Listed{EventMeta: meta(102, 0, "0xlist2"), TokenID: 42, Seller: walletA, Price: big.NewInt(12)},
	)
	// Re-list without unlist
	assert.Equal(t, 1, result.Anomalies)

	active, err := h.store.GetActiveListing(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "0xlist2", active.OpenTxHash)
	assert.Equal(t, "12", active.PriceToken)

	listings := h.listings(t, 42)
	require.Len(t, listings, 2)
	assert.Equal(t, domain.ListingStatusCancelled, listings[0].Status)
	assert.Equal(t, "0xlist2", *listings[0].CloseTxHash)

	h.apply(t, 111, 120,
		&domain.Unlisted{EventMeta: meta(111, 0, "0xunlist"), TokenID: 42, Seller: walletA})

	active, err = h.store.GetActiveListing(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Equal(t, domain.TicketStatusMinted, h.ticket(t, 42).Status)
}

func TestReconcilerPG_ToleratesMissingHistory(t *testing.T) {
	h := setupPGTest(t)

	// Transfer and check-in of a ticket whose mint was never seen
	result := h.apply(t, 100, 110,
		&domain.TransferredOwnership{EventMeta: meta(105, 0, "0xtransfer"), From: walletA, To: walletB, TokenID: 77},
		&domain.CheckedIn{EventMeta: meta(106, 0, "0xcheckin"), TokenID: 77, Timestamp: 1700000000},
		&domain.Sold{EventMeta: meta(107, 0, "0xsale"), TokenID: 78, Seller: walletA, Buyer: walletB, Price: big.NewInt(5)},
	)
	assert.Len(t, result.Applied, 3)
	assert.Positive(t, result.Anomalies)

	ticket := h.ticket(t, 77)
	require.NotNil(t, ticket)
	assert.Equal(t, domain.TicketStatusTransferred, ticket.Status)
	assert.Equal(t, walletB, *ticket.OwnerWallet)
	assert.Nil(t, ticket.EventID)
	assert.True(t, ticket.IsCheckedIn)
	assert.True(t, time.Unix(1700000000, 0).Equal(*ticket.CheckedInAt))

	sold := h.ticket(t, 78)
	require.NotNil(t, sold)
	assert.Equal(t, domain.TicketStatusSold, sold.Status)
	assert.Equal(t, walletB, *sold.OwnerWallet)
	assert.Len(t, h.records(t, 78), 1)

	// The late mint fills in the event without rewinding the status
	h.apply(t, 111, 120,
		&domain.TicketMinted{EventMeta: meta(111, 0, "0xmint"), TokenID: 77, EventID: 7, Owner: walletA})

	ticket = h.ticket(t, 77)
	assert.Equal(t, domain.TicketStatusTransferred, ticket.Status)
	assert.Equal(t, walletB, *ticket.OwnerWallet)
	assert.Equal(t, uint64(7), *ticket.EventID)
}

func TestReconcilerPG_PendingTicketIsMinted(t *testing.T) {
	h := setupPGTest(t)

	require.NoError(t, h.store.CreatePendingTicket(context.Background(), 42, 7))

	result := h.apply(t, 100, 110,
		&domain.TicketMinted{EventMeta: meta(100, 0, "0xmint"), TokenID: 42, EventID: 7, Owner: walletA})
	assert.Equal(t, 0, result.Anomalies)

	ticket := h.ticket(t, 42)
	assert.Equal(t, domain.TicketStatusMinted, ticket.Status)
	assert.Equal(t, walletA, *ticket.OwnerWallet)
}

func TestReconcilerPG_CheckInIsIdempotent(t *testing.T) {
	h := setupPGTest(t)

	h.apply(t, 100, 110,
		&domain.TicketMinted{EventMeta: meta(100, 0, "0xmint"), TokenID: 42, EventID: 7, Owner: walletA},
		&domain.CheckedIn{EventMeta: meta(101, 0, "0xcheckin1"), TokenID: 42, Timestamp: 0},
		&domain.CheckedIn{EventMeta: meta(102, 0, "0xcheckin2"), TokenID: 42, Timestamp: 1800000000},
	)

	ticket := h.ticket(t, 42)
	assert.True(t, ticket.IsCheckedIn)
	// A zero timestamp falls back to the block time and the second check-in keeps the first
	assert.True(t, blockTime(101).Equal(*ticket.CheckedInAt))
	assert.Equal(t, domain.TicketStatusMinted, ticket.Status)
}
