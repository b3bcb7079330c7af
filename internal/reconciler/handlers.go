package reconciler

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
	"github.com/feral-file/ff-ticket-mirror/internal/store"
	"github.com/feral-file/ff-ticket-mirror/internal/store/schema"
)

// pass applies the events of one range inside one transaction
type pass struct {
	*reconciler
	tx         store.MirrorTx
	blockTimes map[uint64]time.Time
	result     *Result
}

func eventFields(event domain.LedgerEvent) []zap.Field {
	meta := event.Meta()
	fields := []zap.Field{
		zap.String("kind", string(event.Kind())),
		zap.String("txHash", meta.TxHash),
		zap.Uint64("blockNumber", meta.BlockNumber),
		zap.Uint("logIndex", meta.LogIndex),
	}
	if ticketEvent, ok := event.(domain.TicketEvent); ok {
		fields = append(fields, zap.Uint64("tokenID", ticketEvent.Token()))
	}
	return fields
}

// anomaly logs a disagreement between the ledger and the mirror. The ledger wins.
func (p *pass) anomaly(ctx context.Context, msg string, event domain.LedgerEvent, fields ...zap.Field) {
	p.result.Anomalies++
	logger.WarnCtx(ctx, msg, append(eventFields(event), fields...)...)
}

func (p *pass) apply(ctx context.Context, event domain.LedgerEvent) error {
	if unrecognized, ok := event.(*domain.Unrecognized); ok {
		p.result.Unrecognized++
		logger.WarnCtx(ctx, "Skipping unrecognized log",
			append(eventFields(event), zap.String("emitter", unrecognized.Emitter), zap.String("reason", unrecognized.Reason))...)
		return nil
	}

	ticketEvent, ok := event.(domain.TicketEvent)
	if !ok {
		return fmt.Errorf("unsupported ledger event %T", event)
	}

	if transfer, ok := event.(*domain.TransferredOwnership); ok && transfer.MintArtifact {
		p.result.Skipped++
		logger.DebugCtx(ctx, "Skipping mint side-effect transfer", eventFields(event)...)
		return nil
	}

	meta := event.Meta()
	ticket, err := p.tx.GetTicketForUpdate(ctx, ticketEvent.Token())
	if err != nil {
		return err
	}

	if ticket != nil && ticket.HasApplied(meta.Position()) {
		p.result.Skipped++
		logger.DebugCtx(ctx, "Event already reflected in mirror", eventFields(event)...)
		return nil
	}

	blockTime, ok := p.blockTimes[meta.BlockNumber]
	if !ok {
		return fmt.Errorf("missing timestamp for block %d", meta.BlockNumber)
	}

	switch e := event.(type) {
	case *domain.TicketMinted:
		ticket = p.applyMinted(ctx, ticket, e)
	case *domain.TransferredOwnership:
		ticket, err = p.applyTransferred(ctx, ticket, e, blockTime)
	case *domain.CheckedIn:
		ticket = p.applyCheckedIn(ctx, ticket, e, blockTime)
	case *domain.Listed:
		ticket, err = p.applyListed(ctx, ticket, e, blockTime)
	case *domain.Unlisted:
		ticket, err = p.applyUnlisted(ctx, ticket, e, blockTime)
	case *domain.Sold:
		ticket, err = p.applySold(ctx, ticket, e, blockTime)
	default:
		return fmt.Errorf("unsupported ticket event %T", event)
	}
	if err != nil {
		return err
	}

	txHash := meta.TxHash
	blockNumber := meta.BlockNumber
	logIndex := meta.LogIndex
	ticket.LastTxHash = &txHash
	ticket.LastBlockNumber = &blockNumber
	ticket.LastLogIndex = &logIndex

	if err := p.tx.SaveTicket(ctx, ticket); err != nil {
		return err
	}

	p.result.Applied = append(p.result.Applied, ticketEvent)
	logger.DebugCtx(ctx, "Applied ledger event", eventFields(event)...)

	return nil
}

// ensureTicket returns the ticket, creating an unstatused row for a ticket whose mint was never observed
func (p *pass) ensureTicket(ctx context.Context, ticket *schema.Ticket, event domain.TicketEvent) *schema.Ticket {
	if ticket != nil {
		return ticket
	}

	p.anomaly(ctx, "Ticket not found in mirror, creating it from a non-mint event", event)
	return &schema.Ticket{TokenID: event.Token()}
}

// transition moves the ticket to the next status, logging moves the state machine does not allow
func (p *pass) transition(ctx context.Context, ticket *schema.Ticket, next domain.TicketStatus, event domain.LedgerEvent) {
	current := ticket.Status
	if current != "" && current != next && !current.CanTransitionTo(next) {
		p.anomaly(ctx, "Unexpected ticket status transition", event,
			zap.String("from", string(current)),
			zap.String("to", string(next)))
	}
	ticket.Status = next
}

func (p *pass) applyMinted(ctx context.Context, ticket *schema.Ticket, e *domain.TicketMinted) *schema.Ticket {
	eventID := e.EventID
	owner := e.Owner

	if ticket == nil {
		return &schema.Ticket{
			TokenID:     e.TokenID,
			EventID:     &eventID,
			OwnerWallet: &owner,
			Status:      domain.TicketStatusMinted,
		}
	}

	if ticket.EventID != nil && *ticket.EventID != eventID {
		p.anomaly(ctx, "Minted event differs from the recorded event", e,
			zap.Uint64("recordedEventID", *ticket.EventID),
			zap.Uint64("eventID", eventID))
	}
	ticket.EventID = &eventID

	if ticket.Status == domain.TicketStatusPending || ticket.Status == "" {
		ticket.Status = domain.TicketStatusMinted
		ticket.OwnerWallet = &owner
		return ticket
	}

	if ticket.OwnerWallet == nil {
		ticket.OwnerWallet = &owner
	}

	logger.DebugCtx(ctx, "Ticket already progressed past mint, keeping status",
		append(eventFields(e), zap.String("status", string(ticket.Status)))...)

	return ticket
}

func (p *pass) applyTransferred(ctx context.Context, ticket *schema.Ticket, e *domain.TransferredOwnership, blockTime time.Time) (*schema.Ticket, error) {
	ticket = p.ensureTicket(ctx, ticket, e)

	if ticket.OwnerWallet != nil && *ticket.OwnerWallet != e.From {
		p.anomaly(ctx, "Transfer sender differs from mirrored owner", e,
			zap.String("owner", *ticket.OwnerWallet),
			zap.String("from", e.From))
	}

	p.transition(ctx, ticket, domain.TicketStatusTransferred, e)
	to := e.To
	ticket.OwnerWallet = &to

	from := e.From
	if err := p.record(ctx, domain.TransactionTypeTransfer, e, &from, &to, nil, blockTime); err != nil {
		return nil, err
	}

	return ticket, nil
}

func (p *pass) applyCheckedIn(ctx context.Context, ticket *schema.Ticket, e *domain.CheckedIn, blockTime time.Time) *schema.Ticket {
	ticket = p.ensureTicket(ctx, ticket, e)
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusMinted
	}

	if ticket.IsCheckedIn {
		logger.DebugCtx(ctx, "Ticket already checked in", eventFields(e)...)
		return ticket
	}

	checkedInAt := blockTime
	if e.Timestamp > 0 && e.Timestamp <= math.MaxInt64 {
		checkedInAt = time.Unix(int64(e.Timestamp), 0).UTC()
	}

	ticket.IsCheckedIn = true
	ticket.CheckedInAt = &checkedInAt

	return ticket
}

func (p *pass) applyListed(ctx context.Context, ticket *schema.Ticket, e *domain.Listed, blockTime time.Time) (*schema.Ticket, error) {
	ticket = p.ensureTicket(ctx, ticket, e)

	active, err := p.tx.GetActiveListing(ctx, e.TokenID)
	if err != nil {
		return nil, err
	}

	if active != nil {
		p.anomaly(ctx, "Ticket already has an active listing, cancelling it", e,
			zap.Uint64("listingID", active.ID),
			zap.String("openTxHash", active.OpenTxHash))

		err := p.tx.CloseListing(ctx, active.ID, store.CloseListingInput{
			Status:      domain.ListingStatusCancelled,
			ResolvedAt:  blockTime,
			CloseTxHash: e.TxHash,
		})
		if err != nil {
			return nil, err
		}
	}

	price := priceOrZero(e.Price)
	err = p.tx.CreateListing(ctx, &schema.Listing{
		TokenID:         e.TokenID,
		SellerWallet:    e.Seller,
		PriceToken:      price.String(),
		Status:          domain.ListingStatusActive,
		ListedAt:        blockTime,
		OpenTxHash:      e.TxHash,
		OpenBlockNumber: e.BlockNumber,
	})
	if err != nil {
		return nil, err
	}

	// An escrowed ticket is owned by the marketplace while listed, so only a missing owner is filled in
	if ticket.OwnerWallet == nil {
		seller := e.Seller
		ticket.OwnerWallet = &seller
	}

	p.transition(ctx, ticket, domain.TicketStatusListed, e)

	seller := e.Seller
	if err := p.record(ctx, domain.TransactionTypeList, e, &seller, nil, price, blockTime); err != nil {
		return nil, err
	}

	return ticket, nil
}

func (p *pass) applyUnlisted(ctx context.Context, ticket *schema.Ticket, e *domain.Unlisted, blockTime time.Time) (*schema.Ticket, error) {
	ticket = p.ensureTicket(ctx, ticket, e)

	active, err := p.tx.GetActiveListing(ctx, e.TokenID)
	if err != nil {
		return nil, err
	}

	if active == nil {
		p.anomaly(ctx, "Unlisted without an active listing", e)
	} else {
		if active.SellerWallet != e.Seller {
			p.anomaly(ctx, "Unlisting seller differs from listing seller", e,
				zap.String("listingSeller", active.SellerWallet),
				zap.String("seller", e.Seller))
		}

		err := p.tx.CloseListing(ctx, active.ID, store.CloseListingInput{
			Status:      domain.ListingStatusCancelled,
			ResolvedAt:  blockTime,
			CloseTxHash: e.TxHash,
		})
		if err != nil {
			return nil, err
		}
	}

	p.transition(ctx, ticket, domain.TicketStatusMinted, e)

	seller := e.Seller
	if err := p.record(ctx, domain.TransactionTypeUnlist, e, &seller, nil, nil, blockTime); err != nil {
		return nil, err
	}

	return ticket, nil
}

func (p *pass) applySold(ctx context.Context, ticket *schema.Ticket, e *domain.Sold, blockTime time.Time) (*schema.Ticket, error) {
	ticket = p.ensureTicket(ctx, ticket, e)
	price := priceOrZero(e.Price)
	buyer := e.Buyer

	active, err := p.tx.GetActiveListing(ctx, e.TokenID)
	if err != nil {
		return nil, err
	}

	if active == nil {
		p.anomaly(ctx, "Sold without an active listing", e)
	} else {
		if active.PriceToken != price.String() {
			p.anomaly(ctx, "Sale price differs from listing price", e,
				zap.String("listingPrice", active.PriceToken),
				zap.String("price", price.String()))
		}

		err := p.tx.CloseListing(ctx, active.ID, store.CloseListingInput{
			Status:      domain.ListingStatusSold,
			BuyerWallet: &buyer,
			ResolvedAt:  blockTime,
			CloseTxHash: e.TxHash,
		})
		if err != nil {
			return nil, err
		}
	}

	p.transition(ctx, ticket, domain.TicketStatusSold, e)
	ticket.OwnerWallet = &buyer

	seller := e.Seller
	if err := p.record(ctx, domain.TransactionTypeSale, e, &seller, &buyer, price, blockTime); err != nil {
		return nil, err
	}

	return ticket, nil
}

// record appends a transaction record; a record that already exists is left as is
func (p *pass) record(ctx context.Context, txType domain.TransactionType, e domain.TicketEvent, from, to *string, price *big.Int, blockTime time.Time) error {
	raw, err := p.canonicalJSON(e)
	if err != nil {
		return err
	}

	meta := e.Meta()
	created, err := p.tx.CreateTransactionRecord(ctx, &schema.TransactionRecord{
		TokenID:     e.Token(),
		Type:        txType,
		FromWallet:  from,
		ToWallet:    to,
		PriceToken:  domain.PriceString(price),
		TxHash:      meta.TxHash,
		BlockNumber: meta.BlockNumber,
		LogIndex:    meta.LogIndex,
		BlockTime:   blockTime,
		Raw:         raw,
	})
	if err != nil {
		return err
	}

	if !created {
		logger.DebugCtx(ctx, "Transaction record already exists", append(eventFields(e), zap.String("type", string(txType)))...)
	}

	return nil
}

// canonicalJSON renders the event as RFC 8785 JSON. Integers that may exceed
// 2^53 are rendered as strings so canonicalization keeps them exact.
func (p *pass) canonicalJSON(event domain.TicketEvent) (datatypes.JSON, error) {
	meta := event.Meta()
	payload := map[string]interface{}{
		"kind":         event.Kind(),
		"emitter":      meta.Emitter,
		"tx_hash":      meta.TxHash,
		"block_hash":   meta.BlockHash,
		"block_number": meta.BlockNumber,
		"log_index":    meta.LogIndex,
		"token_id":     strconv.FormatUint(event.Token(), 10),
	}

	switch e := event.(type) {
	case *domain.TransferredOwnership:
		payload["from"] = e.From
		payload["to"] = e.To
	case *domain.Listed:
		payload["seller"] = e.Seller
		payload["price"] = priceOrZero(e.Price).String()
	case *domain.Unlisted:
		payload["seller"] = e.Seller
	case *domain.Sold:
		payload["seller"] = e.Seller
		payload["buyer"] = e.Buyer
		payload["price"] = priceOrZero(e.Price).String()
	}

	data, err := p.json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw event: %w", err)
	}

	canonical, err := p.jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize raw event: %w", err)
	}

	return datatypes.JSON(canonical), nil
}

func priceOrZero(price *big.Int) *big.Int {
	if price == nil {
		return new(big.Int)
	}
	return price
}
