package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
	ChainPolygonMainnet  Chain = "eip155:137"
	ChainBaseMainnet     Chain = "eip155:8453"
)

// IsValidChain checks if a chain is valid
func IsValidChain(chain Chain) bool {
	return chain == ChainEthereumMainnet ||
		chain == ChainEthereumSepolia ||
		chain == ChainPolygonMainnet ||
		chain == ChainBaseMainnet
}

// EIP155ChainID returns the numeric chain id of an "eip155:<id>" chain
func (c Chain) EIP155ChainID() (uint64, error) {
	reference, ok := strings.CutPrefix(string(c), "eip155:")
	if !ok {
		return 0, fmt.Errorf("chain %q is not an eip155 chain", c)
	}
	id, err := strconv.ParseUint(reference, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chain %q has invalid reference: %w", c, err)
	}
	return id, nil
}

// TicketStatus represents the mirrored lifecycle status of a ticket
type TicketStatus string

const (
	// TicketStatusPending marks a row inserted by the off-chain pre-mint path, not yet seen on-chain
	TicketStatusPending     TicketStatus = "pending"
	TicketStatusMinted      TicketStatus = "minted"
	TicketStatusTransferred TicketStatus = "transferred"
	TicketStatusListed      TicketStatus = "listed"
	TicketStatusSold        TicketStatus = "sold"
)

// ticketTransitions lists the statuses reachable from each status.
// A sold ticket behaves like an owned one: it can be listed or transferred again.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusPending:     {TicketStatusMinted},
	TicketStatusMinted:      {TicketStatusTransferred, TicketStatusListed},
	TicketStatusTransferred: {TicketStatusTransferred, TicketStatusListed},
	TicketStatusListed:      {TicketStatusMinted, TicketStatusSold},
	TicketStatusSold:        {TicketStatusTransferred, TicketStatusListed},
}

// CanTransitionTo reports whether moving from s to next is an expected ledger transition
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, candidate := range ticketTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Valid checks if the ticket status is known
func (s TicketStatus) Valid() bool {
	_, ok := ticketTransitions[s]
	return ok
}

// ListingStatus represents the status of a marketplace listing
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusCancelled ListingStatus = "cancelled"
	ListingStatusSold      ListingStatus = "sold"
)

// TransactionType represents the type of an audited ledger transaction
type TransactionType string

const (
	TransactionTypeTransfer TransactionType = "transfer"
	TransactionTypeList     TransactionType = "list"
	TransactionTypeUnlist   TransactionType = "unlist"
	TransactionTypeSale     TransactionType = "sale"
)

// NormalizeAddress returns the lowercase hex form of an address
func NormalizeAddress(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// NormalizeAddressString lowercases and trims a hex address string
func NormalizeAddressString(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsZeroAddress checks if the address is the zero address
func IsZeroAddress(address string) bool {
	return NormalizeAddressString(address) == ETHEREUM_ZERO_ADDRESS
}
