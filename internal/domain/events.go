package domain

import (
	"math/big"
)

// EventKind identifies a classified ledger event
type EventKind string

const (
	EventKindTicketMinted         EventKind = "ticket_minted"
	EventKindTransferredOwnership EventKind = "transferred_ownership"
	EventKindCheckedIn            EventKind = "checked_in"
	EventKindListed               EventKind = "listed"
	EventKindUnlisted             EventKind = "unlisted"
	EventKindSold                 EventKind = "sold"
	EventKindUnrecognized         EventKind = "unrecognized"
)

// LogPosition is the total order of logs on the ledger
type LogPosition struct {
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint   `json:"log_index"`
}

// Before reports whether p is strictly earlier than other
func (p LogPosition) Before(other LogPosition) bool {
	if p.BlockNumber != other.BlockNumber {
		return p.BlockNumber < other.BlockNumber
	}
	return p.LogIndex < other.LogIndex
}

// EventMeta carries the ledger coordinates shared by every event
type EventMeta struct {
	Emitter     string `json:"emitter"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	LogIndex    uint   `json:"log_index"`
}

// Position returns the log position of the event
func (m EventMeta) Position() LogPosition {
	return LogPosition{BlockNumber: m.BlockNumber, LogIndex: m.LogIndex}
}

// LedgerEvent is the closed set of classifier outputs.
// Only types in this package implement it.
type LedgerEvent interface {
	Kind() EventKind
	Meta() EventMeta
	isLedgerEvent()
}

// TicketEvent is a LedgerEvent that references a ticket
type TicketEvent interface {
	LedgerEvent
	Token() uint64
}

// TicketMinted is emitted by the ticket registry when a ticket is created
type TicketMinted struct {
	EventMeta
	TokenID uint64 `json:"token_id"`
	EventID uint64 `json:"event_id"`
	Owner   string `json:"owner"`
}

// TransferredOwnership is emitted by the ticket registry on every ownership change, including mints
type TransferredOwnership struct {
	EventMeta
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID uint64 `json:"token_id"`
	// MintArtifact is set when From is the zero address; the mint is applied from TicketMinted instead
	MintArtifact bool `json:"mint_artifact"`
}

// CheckedIn is emitted by the ticket registry when a ticket is used at the venue
type CheckedIn struct {
	EventMeta
	TokenID uint64 `json:"token_id"`
	// Timestamp is the check-in time in unix seconds as reported by the registry
	Timestamp uint64 `json:"timestamp"`
}

// Listed is emitted by the marketplace when a ticket is offered for sale
type Listed struct {
	EventMeta
	TokenID uint64   `json:"token_id"`
	Seller  string   `json:"seller"`
	Price   *big.Int `json:"price"`
}

// Unlisted is emitted by the marketplace when a seller withdraws an offer
type Unlisted struct {
	EventMeta
	TokenID uint64 `json:"token_id"`
	Seller  string `json:"seller"`
}

// Sold is emitted by the marketplace when an offer is filled
type Sold struct {
	EventMeta
	TokenID uint64   `json:"token_id"`
	Seller  string   `json:"seller"`
	Buyer   string   `json:"buyer"`
	Price   *big.Int `json:"price"`
}

// Unrecognized is a log that could not be decoded into a ticket event
type Unrecognized struct {
	EventMeta
	Reason string `json:"reason"`
}

func (e *TicketMinted) Kind() EventKind         { return EventKindTicketMinted }
func (e *TransferredOwnership) Kind() EventKind { return EventKindTransferredOwnership }
func (e *CheckedIn) Kind() EventKind            { return EventKindCheckedIn }
func (e *Listed) Kind() EventKind               { return EventKindListed }
func (e *Unlisted) Kind() EventKind             { return EventKindUnlisted }
func (e *Sold) Kind() EventKind                 { return EventKindSold }
func (e *Unrecognized) Kind() EventKind         { return EventKindUnrecognized }

func (e *TicketMinted) Meta() EventMeta         { return e.EventMeta }
func (e *TransferredOwnership) Meta() EventMeta { return e.EventMeta }
func (e *CheckedIn) Meta() EventMeta            { return e.EventMeta }
func (e *Listed) Meta() EventMeta               { return e.EventMeta }
func (e *Unlisted) Meta() EventMeta             { return e.EventMeta }
func (e *Sold) Meta() EventMeta                 { return e.EventMeta }
func (e *Unrecognized) Meta() EventMeta         { return e.EventMeta }

func (e *TicketMinted) Token() uint64         { return e.TokenID }
func (e *TransferredOwnership) Token() uint64 { return e.TokenID }
func (e *CheckedIn) Token() uint64            { return e.TokenID }
func (e *Listed) Token() uint64               { return e.TokenID }
func (e *Unlisted) Token() uint64             { return e.TokenID }
func (e *Sold) Token() uint64                 { return e.TokenID }

func (*TicketMinted) isLedgerEvent()         {}
func (*TransferredOwnership) isLedgerEvent() {}
func (*CheckedIn) isLedgerEvent()            {}
func (*Listed) isLedgerEvent()               {}
func (*Unlisted) isLedgerEvent()             {}
func (*Sold) isLedgerEvent()                 {}
func (*Unrecognized) isLedgerEvent()         {}

// MirrorChange describes one ledger event applied to the mirror.
// This is the payload published to NATS after a chunk commits.
type MirrorChange struct {
	Chain       Chain     `json:"chain"`
	Kind        EventKind `json:"kind"`
	TokenID     uint64    `json:"token_id"`
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	LogIndex    uint      `json:"log_index"`
	Owner       *string   `json:"owner,omitempty"` // owner after the event, when the event sets it
	Price       *string   `json:"price,omitempty"` // price in ledger-native units for list and sale events
}

// NewMirrorChange builds the notification payload for an applied ticket event
func NewMirrorChange(chain Chain, event TicketEvent) MirrorChange {
	meta := event.Meta()
	change := MirrorChange{
		Chain:       chain,
		Kind:        event.Kind(),
		TokenID:     event.Token(),
		TxHash:      meta.TxHash,
		BlockNumber: meta.BlockNumber,
		LogIndex:    meta.LogIndex,
	}

	switch e := event.(type) {
	case *TicketMinted:
		change.Owner = &e.Owner
	case *TransferredOwnership:
		change.Owner = &e.To
	case *Listed:
		change.Price = PriceString(e.Price)
	case *Sold:
		change.Owner = &e.Buyer
		change.Price = PriceString(e.Price)
	}

	return change
}

// PriceString renders a ledger amount as a decimal string, nil for a nil amount
func PriceString(price *big.Int) *string {
	if price == nil {
		return nil
	}
	s := price.String()
	return &s
}
