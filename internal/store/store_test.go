package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

var testBlockTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func stringPtr(s string) *string {
	return &s
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}

// buildTestTicket creates a minted ticket whose last applied event sits at (block, 0)
func buildTestTicket(tokenID uint64, owner string, block uint64) *schema.Ticket {
	return &schema.Ticket{
		TokenID:         tokenID,
		EventID:         uint64Ptr(7),
		OwnerWallet:     stringPtr(owner),
		Status:          domain.TicketStatusMinted,
		LastTxHash:      stringPtr("0xmint"),
		LastBlockNumber: uint64Ptr(block),
		LastLogIndex:    uintPtr(0),
	}
}

// buildTestListing creates an active listing
func buildTestListing(tokenID uint64, seller string, price string, txHash string) *schema.Listing {
	return &schema.Listing{
		TokenID:         tokenID,
		SellerWallet:    seller,
		PriceToken:      price,
		Status:          domain.ListingStatusActive,
		ListedAt:        testBlockTime,
		OpenTxHash:      txHash,
		OpenBlockNumber: 100,
	}
}

// buildTestRecord creates a transaction record
func buildTestRecord(tokenID uint64, recordType domain.TransactionType, txHash string, block uint64, logIndex uint) *schema.TransactionRecord {
	raw, _ := json.Marshal(map[string]string{"tx_hash": txHash})
	return &schema.TransactionRecord{
		TokenID:     tokenID,
		Type:        recordType,
		FromWallet:  stringPtr("0xaaa"),
		ToWallet:    stringPtr("0xbbb"),
		TxHash:      txHash,
		BlockNumber: block,
		LogIndex:    logIndex,
		BlockTime:   testBlockTime,
		Raw:         datatypes.JSON(raw),
	}
}

// =============================================================================
// Tests
// =============================================================================

func testBlockCursor(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get non-existent cursor reports not found", func(t *testing.T) {
		cursor, found, err := store.GetBlockCursor(ctx, "cursor_nonexistent")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, uint64(0), cursor)
	})

	t.Run("set and get cursor", func(t *testing.T) {
		processID := "cursor_set"

		err := store.SetBlockCursor(ctx, processID, 12345)
		require.NoError(t, err)

		cursor, found, err := store.GetBlockCursor(ctx, processID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint64(12345), cursor)
	})

	t.Run("cursor zero is distinguishable from missing", func(t *testing.T) {
		processID := "cursor_zero"

		require.NoError(t, store.SetBlockCursor(ctx, processID, 0))

		cursor, found, err := store.GetBlockCursor(ctx, processID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint64(0), cursor)
	})

	t.Run("cursor never decreases", func(t *testing.T) {
		processID := "cursor_monotonic"

		require.NoError(t, store.SetBlockCursor(ctx, processID, 200))
		require.NoError(t, store.SetBlockCursor(ctx, processID, 150))

		cursor, _, err := store.GetBlockCursor(ctx, processID)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), cursor)

		require.NoError(t, store.SetBlockCursor(ctx, processID, 250))

		cursor, _, err = store.GetBlockCursor(ctx, processID)
		require.NoError(t, err)
		assert.Equal(t, uint64(250), cursor)
	})
}

func testSaveTicket(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get non-existent ticket returns nil", func(t *testing.T) {
		ticket, err := store.GetTicket(ctx, 999_999)
		require.NoError(t, err)
		assert.Nil(t, ticket)
	})

	t.Run("insert then overwrite mutable columns", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			return tx.SaveTicket(ctx, buildTestTicket(42, "0xaaa", 100))
		})
		require.NoError(t, err)

		ticket, err := store.GetTicket(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Equal(t, domain.TicketStatusMinted, ticket.Status)
		assert.Equal(t, "0xaaa", *ticket.OwnerWallet)
		assert.Equal(t, uint64(7), *ticket.EventID)
		assert.True(t, ticket.HasApplied(domain.LogPosition{BlockNumber: 100, LogIndex: 0}))
		assert.False(t, ticket.HasApplied(domain.LogPosition{BlockNumber: 100, LogIndex: 1}))

		err = store.WithTransaction(ctx, func(tx MirrorTx) error {
			locked, err := tx.GetTicketForUpdate(ctx, 42)
			if err != nil {
				return err
			}
			checkedInAt := testBlockTime
			locked.OwnerWallet = stringPtr("0xbbb")
			locked.Status = domain.TicketStatusTransferred
			locked.IsCheckedIn = true
			locked.CheckedInAt = &checkedInAt
			locked.LastBlockNumber = uint64Ptr(101)
			locked.LastLogIndex = uintPtr(3)
			return tx.SaveTicket(ctx, locked)
		})
		require.NoError(t, err)

		ticket, err = store.GetTicket(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusTransferred, ticket.Status)
		assert.Equal(t, "0xbbb", *ticket.OwnerWallet)
		assert.True(t, ticket.IsCheckedIn)
		require.NotNil(t, ticket.CheckedInAt)
		assert.True(t, testBlockTime.Equal(*ticket.CheckedInAt))
		assert.Equal(t, uint64(101), *ticket.LastBlockNumber)
		assert.Equal(t, uint(3), *ticket.LastLogIndex)
	})

	t.Run("invalid status is rejected", func(t *testing.T) {
		ticket := buildTestTicket(43, "0xaaa", 100)
		ticket.Status = ""

		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			return tx.SaveTicket(ctx, ticket)
		})
		require.Error(t, err)
	})
}

func testCreatePendingTicket(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("creates a pending placeholder", func(t *testing.T) {
		require.NoError(t, store.CreatePendingTicket(ctx, 50, 9))

		ticket, err := store.GetTicket(ctx, 50)
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Equal(t, domain.TicketStatusPending, ticket.Status)
		assert.Equal(t, uint64(9), *ticket.EventID)
		assert.Nil(t, ticket.OwnerWallet)
		assert.Nil(t, ticket.AppliedPosition())
	})

	t.Run("existing ticket is left untouched", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			return tx.SaveTicket(ctx, buildTestTicket(51, "0xaaa", 100))
		})
		require.NoError(t, err)

		require.NoError(t, store.CreatePendingTicket(ctx, 51, 99))

		ticket, err := store.GetTicket(ctx, 51)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusMinted, ticket.Status)
		assert.Equal(t, uint64(7), *ticket.EventID)
	})
}

func testListings(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("no active listing returns nil", func(t *testing.T) {
		listing, err := store.GetActiveListing(ctx, 60)
		require.NoError(t, err)
		assert.Nil(t, listing)
	})

	t.Run("create and close as sold", func(t *testing.T) {
		var listingID uint64
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			listing := buildTestListing(61, "0xaaa", "123456789012345678901234567890", "0xlist")
			if err := tx.CreateListing(ctx, listing); err != nil {
				return err
			}
			listingID = listing.ID
			return nil
		})
		require.NoError(t, err)
		require.NotZero(t, listingID)

		active, err := store.GetActiveListing(ctx, 61)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, listingID, active.ID)
		assert.Equal(t, "123456789012345678901234567890", active.PriceToken)

		resolvedAt := testBlockTime.Add(time.Hour)
		err = store.WithTransaction(ctx, func(tx MirrorTx) error {
			return tx.CloseListing(ctx, listingID, CloseListingInput{
				Status:      domain.ListingStatusSold,
				BuyerWallet: stringPtr("0xbbb"),
				ResolvedAt:  resolvedAt,
				CloseTxHash: "0xsale",
			})
		})
		require.NoError(t, err)

		active, err = store.GetActiveListing(ctx, 61)
		require.NoError(t, err)
		assert.Nil(t, active)

		listings, err := store.GetListings(ctx, 61)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, domain.ListingStatusSold, listings[0].Status)
		assert.Equal(t, "0xbbb", *listings[0].BuyerWallet)
		assert.Equal(t, "0xsale", *listings[0].CloseTxHash)
		assert.True(t, resolvedAt.Equal(*listings[0].ResolvedAt))
	})

	t.Run("closing a closed listing changes nothing", func(t *testing.T) {
		var listingID uint64
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			listing := buildTestListing(62, "0xaaa", "10", "0xlist62")
			if err := tx.CreateListing(ctx, listing); err != nil {
				return err
			}
			listingID = listing.ID
			return tx.CloseListing(ctx, listingID, CloseListingInput{
				Status:      domain.ListingStatusCancelled,
				ResolvedAt:  testBlockTime,
				CloseTxHash: "0xunlist",
			})
		})
		require.NoError(t, err)

		err = store.WithTransaction(ctx, func(tx MirrorTx) error {
			return tx.CloseListing(ctx, listingID, CloseListingInput{
				Status:      domain.ListingStatusSold,
				BuyerWallet: stringPtr("0xccc"),
				ResolvedAt:  testBlockTime,
				CloseTxHash: "0xlate",
			})
		})
		require.NoError(t, err)

		listings, err := store.GetListings(ctx, 62)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, domain.ListingStatusCancelled, listings[0].Status)
		assert.Nil(t, listings[0].BuyerWallet)
	})

	t.Run("closing with active status is rejected", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			return tx.CloseListing(ctx, 1, CloseListingInput{Status: domain.ListingStatusActive})
		})
		require.Error(t, err)
	})

	t.Run("second active listing violates the partial unique index", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			return tx.CreateListing(ctx, buildTestListing(63, "0xaaa", "10", "0xfirst"))
		})
		require.NoError(t, err)

		err = store.WithTransaction(ctx, func(tx MirrorTx) error {
			return tx.CreateListing(ctx, buildTestListing(63, "0xaaa", "20", "0xsecond"))
		})
		require.Error(t, err)

		listings, err := store.GetListings(ctx, 63)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "0xfirst", listings[0].OpenTxHash)
	})
}

func testTransactionRecords(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("duplicate records are ignored", func(t *testing.T) {
		var first, second bool
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			var err error
			first, err = tx.CreateTransactionRecord(ctx, buildTestRecord(70, domain.TransactionTypeSale, "0xsale", 100, 4))
			if err != nil {
				return err
			}
			second, err = tx.CreateTransactionRecord(ctx, buildTestRecord(70, domain.TransactionTypeSale, "0xsale", 100, 4))
			return err
		})
		require.NoError(t, err)
		assert.True(t, first)
		assert.False(t, second)

		records, err := store.GetTransactionRecords(ctx, 70)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("same transaction with different types is kept", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			if _, err := tx.CreateTransactionRecord(ctx, buildTestRecord(71, domain.TransactionTypeSale, "0xtx", 100, 5)); err != nil {
				return err
			}
			_, err := tx.CreateTransactionRecord(ctx, buildTestRecord(71, domain.TransactionTypeTransfer, "0xtx", 100, 4))
			return err
		})
		require.NoError(t, err)

		records, err := store.GetTransactionRecords(ctx, 71)
		require.NoError(t, err)
		require.Len(t, records, 2)
		// Ledger order
		assert.Equal(t, domain.TransactionTypeTransfer, records[0].Type)
		assert.Equal(t, domain.TransactionTypeSale, records[1].Type)
		assert.JSONEq(t, `{"tx_hash":"0xtx"}`, string(records[0].Raw))
	})
}

func testWithTransaction(t *testing.T, store Store) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	t.Run("error rolls back every write including the cursor", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			if err := tx.SaveTicket(ctx, buildTestTicket(80, "0xaaa", 100)); err != nil {
				return err
			}
			if _, err := tx.CreateTransactionRecord(ctx, buildTestRecord(80, domain.TransactionTypeTransfer, "0xrb", 100, 0)); err != nil {
				return err
			}
			if err := tx.SetBlockCursor(ctx, "rollback_process", 100); err != nil {
				return err
			}
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		ticket, err := store.GetTicket(ctx, 80)
		require.NoError(t, err)
		assert.Nil(t, ticket)

		records, err := store.GetTransactionRecords(ctx, 80)
		require.NoError(t, err)
		assert.Empty(t, records)

		_, found, err := store.GetBlockCursor(ctx, "rollback_process")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("success commits every write", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx MirrorTx) error {
			if err := tx.SaveTicket(ctx, buildTestTicket(81, "0xaaa", 100)); err != nil {
				return err
			}
			return tx.SetBlockCursor(ctx, "commit_process", 100)
		})
		require.NoError(t, err)

		ticket, err := store.GetTicket(ctx, 81)
		require.NoError(t, err)
		assert.NotNil(t, ticket)

		cursor, found, err := store.GetBlockCursor(ctx, "commit_process")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint64(100), cursor)
	})
}

func testPing(t *testing.T, store Store) {
	require.NoError(t, store.Ping(context.Background()))
}

func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"BlockCursor", testBlockCursor},
		{"SaveTicket", testSaveTicket},
		{"CreatePendingTicket", testCreatePendingTicket},
		{"Listings", testListings},
		{"TransactionRecords", testTransactionRecords},
		{"WithTransaction", testWithTransaction},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
