package classifier

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
)

// Event signatures
var (
	// Ticket registry
	// TicketMinted(uint256 indexed tokenId, uint256 indexed eventId, address indexed owner)
	ticketMintedSignature = crypto.Keccak256Hash([]byte("TicketMinted(uint256,uint256,address)"))
	// TransferredOwnership(address indexed from, address indexed to, uint256 indexed tokenId)
	transferredOwnershipSignature = crypto.Keccak256Hash([]byte("TransferredOwnership(address,address,uint256)"))
	// CheckedIn(uint256 indexed tokenId, uint256 timestamp)
	checkedInSignature = crypto.Keccak256Hash([]byte("CheckedIn(uint256,uint256)"))

	// Marketplace escrow
	// Listed(uint256 indexed tokenId, address indexed seller, uint256 price)
	listedSignature = crypto.Keccak256Hash([]byte("Listed(uint256,address,uint256)"))
	// Unlisted(uint256 indexed tokenId, address indexed seller)
	unlistedSignature = crypto.Keccak256Hash([]byte("Unlisted(uint256,address)"))
	// Sold(uint256 indexed tokenId, address indexed seller, address indexed buyer, uint256 price)
	soldSignature = crypto.Keccak256Hash([]byte("Sold(uint256,address,address,uint256)"))
)

// uint256Arguments decodes a data payload made of a single uint256
var uint256Arguments = func() abi.Arguments {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Name: "value", Type: uint256Type}}
}()

// Config holds the emitter addresses the classifier accepts
type Config struct {
	TicketRegistry common.Address
	Marketplace    common.Address
}

// Classifier decodes raw ledger logs into domain events
//
//go:generate mockgen -source=classifier.go -destination=../mocks/classifier.go -package=mocks -mock_names=Classifier=MockClassifier
type Classifier interface {
	// Classify decodes a log. It never fails: undecodable logs become *domain.Unrecognized
	Classify(log types.Log) domain.LedgerEvent

	// Emitters returns the contract addresses whose logs the classifier understands
	Emitters() []common.Address
}

type decoder func(log types.Log, meta domain.EventMeta) (domain.LedgerEvent, error)

type classifier struct {
	config   Config
	registry map[common.Hash]decoder
	market   map[common.Hash]decoder
}

// New creates a new classifier for the given emitters
func New(cfg Config) Classifier {
	return &classifier{
		config: cfg,
		registry: map[common.Hash]decoder{
			ticketMintedSignature:         decodeTicketMinted,
			transferredOwnershipSignature: decodeTransferredOwnership,
			checkedInSignature:            decodeCheckedIn,
		},
		market: map[common.Hash]decoder{
			listedSignature:   decodeListed,
			unlistedSignature: decodeUnlisted,
			soldSignature:     decodeSold,
		},
	}
}

// Emitters returns the ticket registry and marketplace addresses
func (c *classifier) Emitters() []common.Address {
	return []common.Address{c.config.TicketRegistry, c.config.Marketplace}
}

// Classify dispatches on (emitter, topic0)
func (c *classifier) Classify(log types.Log) domain.LedgerEvent {
	meta := domain.EventMeta{
		Emitter:     domain.NormalizeAddress(log.Address),
		TxHash:      log.TxHash.Hex(),
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		LogIndex:    log.Index,
	}

	if log.Removed {
		return unrecognized(meta, "log removed by chain reorganization")
	}

	var decoders map[common.Hash]decoder
	switch log.Address {
	case c.config.TicketRegistry:
		decoders = c.registry
	case c.config.Marketplace:
		decoders = c.market
	default:
		return unrecognized(meta, "unknown emitter")
	}

	if len(log.Topics) == 0 {
		return unrecognized(meta, "log has no topics")
	}

	decode, ok := decoders[log.Topics[0]]
	if !ok {
		return unrecognized(meta, fmt.Sprintf("unknown event signature %s", log.Topics[0].Hex()))
	}

	event, err := decode(log, meta)
	if err != nil {
		return unrecognized(meta, err.Error())
	}

	return event
}

func unrecognized(meta domain.EventMeta, reason string) *domain.Unrecognized {
	return &domain.Unrecognized{EventMeta: meta, Reason: reason}
}

func decodeTicketMinted(log types.Log, meta domain.EventMeta) (domain.LedgerEvent, error) {
	if err := expectTopics(log, 4, "TicketMinted"); err != nil {
		return nil, err
	}

	tokenID, err := topicUint64(log.Topics[1], "tokenId")
	if err != nil {
		return nil, err
	}
	eventID, err := topicUint64(log.Topics[2], "eventId")
	if err != nil {
		return nil, err
	}
	owner, err := topicAddress(log.Topics[3], "owner")
	if err != nil {
		return nil, err
	}

	return &domain.TicketMinted{
		EventMeta: meta,
		TokenID:   tokenID,
		EventID:   eventID,
		Owner:     owner,
	}, nil
}

func decodeTransferredOwnership(log types.Log, meta domain.EventMeta) (domain.LedgerEvent, error) {
	if err := expectTopics(log, 4, "TransferredOwnership"); err != nil {
		return nil, err
	}

	from, err := topicAddress(log.Topics[1], "from")
	if err != nil {
		return nil, err
	}
	to, err := topicAddress(log.Topics[2], "to")
	if err != nil {
		return nil, err
	}
	tokenID, err := topicUint64(log.Topics[3], "tokenId")
	if err != nil {
		return nil, err
	}

	return &domain.TransferredOwnership{
		EventMeta:    meta,
		From:         from,
		To:           to,
		TokenID:      tokenID,
		MintArtifact: domain.IsZeroAddress(from),
	}, nil
}

func decodeCheckedIn(log types.Log, meta domain.EventMeta) (domain.LedgerEvent, error) {
	if err := expectTopics(log, 2, "CheckedIn"); err != nil {
		return nil, err
	}

	tokenID, err := topicUint64(log.Topics[1], "tokenId")
	if err != nil {
		return nil, err
	}
	timestamp, err := dataUint256(log.Data, "timestamp")
	if err != nil {
		return nil, err
	}
	if !timestamp.IsUint64() {
		return nil, fmt.Errorf("timestamp out of range")
	}

	return &domain.CheckedIn{
		EventMeta: meta,
		TokenID:   tokenID,
		Timestamp: timestamp.Uint64(),
	}, nil
}

func decodeListed(log types.Log, meta domain.EventMeta) (domain.LedgerEvent, error) {
	if err := expectTopics(log, 3, "Listed"); err != nil {
		return nil, err
	}

	tokenID, err := topicUint64(log.Topics[1], "tokenId")
	if err != nil {
		return nil, err
	}
	seller, err := topicAddress(log.Topics[2], "seller")
	if err != nil {
		return nil, err
	}
	price, err := dataUint256(log.Data, "price")
	if err != nil {
		return nil, err
	}

	return &domain.Listed{
		EventMeta: meta,
		TokenID:   tokenID,
		Seller:    seller,
		Price:     price,
	}, nil
}

func decodeUnlisted(log types.Log, meta domain.EventMeta) (domain.LedgerEvent, error) {
	if err := expectTopics(log, 3, "Unlisted"); err != nil {
		return nil, err
	}

	tokenID, err := topicUint64(log.Topics[1], "tokenId")
	if err != nil {
		return nil, err
	}
	seller, err := topicAddress(log.Topics[2], "seller")
	if err != nil {
		return nil, err
	}

	return &domain.Unlisted{
		EventMeta: meta,
		TokenID:   tokenID,
		Seller:    seller,
	}, nil
}

func decodeSold(log types.Log, meta domain.EventMeta) (domain.LedgerEvent, error) {
	if err := expectTopics(log, 4, "Sold"); err != nil {
		return nil, err
	}

	tokenID, err := topicUint64(log.Topics[1], "tokenId")
	if err != nil {
		return nil, err
	}
	seller, err := topicAddress(log.Topics[2], "seller")
	if err != nil {
		return nil, err
	}
	buyer, err := topicAddress(log.Topics[3], "buyer")
	if err != nil {
		return nil, err
	}
	price, err := dataUint256(log.Data, "price")
	if err != nil {
		return nil, err
	}

	return &domain.Sold{
		EventMeta: meta,
		TokenID:   tokenID,
		Seller:    seller,
		Buyer:     buyer,
		Price:     price,
	}, nil
}

func expectTopics(log types.Log, want int, event string) error {
	if len(log.Topics) != want {
		return fmt.Errorf("invalid %s event: expected %d topics, got %d", event, want, len(log.Topics))
	}
	return nil
}

// maxMirrorID is the largest identifier the mirror's BIGINT columns can hold
var maxMirrorID = big.NewInt(math.MaxInt64)

// topicUint64 decodes an indexed uint256 identifier that fits a signed 64-bit column
func topicUint64(topic common.Hash, field string) (uint64, error) {
	value := new(big.Int).SetBytes(topic.Bytes())
	if value.Cmp(maxMirrorID) > 0 {
		return 0, fmt.Errorf("%s out of range: %s", field, value.String())
	}
	return value.Uint64(), nil
}

// topicAddress decodes an indexed address, rejecting dirty high-order bytes
func topicAddress(topic common.Hash, field string) (string, error) {
	for _, b := range topic[:common.HashLength-common.AddressLength] {
		if b != 0 {
			return "", fmt.Errorf("%s is not a left-padded address: %s", field, topic.Hex())
		}
	}
	return domain.NormalizeAddress(common.BytesToAddress(topic.Bytes())), nil
}

func dataUint256(data []byte, field string) (*big.Int, error) {
	values, err := uint256Arguments.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", field, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("failed to decode %s: expected 1 value, got %d", field, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to decode %s: unexpected type %T", field, values[0])
	}
	return value, nil
}
