package classifier

import (
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
)

var (
	registryAddress    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	marketplaceAddress = common.HexToAddress("0x2000000000000000000000000000000000000002")
	walletA            = common.HexToAddress("0x000000000000000000000000000000000000AAAA")
	walletB            = common.HexToAddress("0x000000000000000000000000000000000000BBBB")
	txHash             = common.HexToHash("0xabc123")
)

func newTestClassifier() Classifier {
	return New(Config{TicketRegistry: registryAddress, Marketplace: marketplaceAddress})
}

func uintTopic(v uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(v))
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func uintData(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func buildLog(emitter common.Address, topics []common.Hash, data []byte) types.Log {
	return types.Log{
		Address:     emitter,
		Topics:      topics,
		Data:        data,
		TxHash:      txHash,
		BlockNumber: 500,
		Index:       7,
	}
}

func TestClassify_TicketMinted(t *testing.T) {
	c := newTestClassifier()

	event := c.Classify(buildLog(registryAddress,
		[]common.Hash{ticketMintedSignature, uintTopic(42), uintTopic(7), addressTopic(walletA)}, nil))

	minted, ok := event.(*domain.TicketMinted)
	require.True(t, ok, "expected TicketMinted, got %T", event)
	assert.Equal(t, uint64(42), minted.TokenID)
	assert.Equal(t, uint64(7), minted.EventID)
	assert.Equal(t, "0x000000000000000000000000000000000000aaaa", minted.Owner)
	assert.Equal(t, txHash.Hex(), minted.TxHash)
	assert.Equal(t, uint64(500), minted.BlockNumber)
	assert.Equal(t, uint(7), minted.LogIndex)
	assert.Equal(t, domain.NormalizeAddress(registryAddress), minted.Emitter)
}

func TestClassify_TransferredOwnership(t *testing.T) {
	c := newTestClassifier()

	t.Run("regular transfer", func(t *testing.T) {
		event := c.Classify(buildLog(registryAddress,
			[]common.Hash{transferredOwnershipSignature, addressTopic(walletA), addressTopic(walletB), uintTopic(42)}, nil))

		transfer, ok := event.(*domain.TransferredOwnership)
		require.True(t, ok)
		assert.Equal(t, "0x000000000000000000000000000000000000aaaa", transfer.From)
		assert.Equal(t, "0x000000000000000000000000000000000000bbbb", transfer.To)
		assert.Equal(t, uint64(42), transfer.TokenID)
		assert.False(t, transfer.MintArtifact)
	})

	t.Run("zero address sender is a mint artifact", func(t *testing.T) {
		event := c.Classify(buildLog(registryAddress,
			[]common.Hash{transferredOwnershipSignature, addressTopic(common.Address{}), addressTopic(walletB), uintTopic(42)}, nil))

		transfer, ok := event.(*domain.TransferredOwnership)
		require.True(t, ok)
		assert.True(t, transfer.MintArtifact)
	})
}

func TestClassify_CheckedIn(t *testing.T) {
	c := newTestClassifier()

	event := c.Classify(buildLog(registryAddress,
		[]common.Hash{checkedInSignature, uintTopic(42)}, uintData(1700000000)))

	checkedIn, ok := event.(*domain.CheckedIn)
	require.True(t, ok)
	assert.Equal(t, uint64(42), checkedIn.TokenID)
	assert.Equal(t, uint64(1700000000), checkedIn.Timestamp)
}

func TestClassify_MarketplaceEvents(t *testing.T) {
	c := newTestClassifier()

	t.Run("listed", func(t *testing.T) {
		event := c.Classify(buildLog(marketplaceAddress,
			[]common.Hash{listedSignature, uintTopic(42), addressTopic(walletA)}, uintData(10)))

		listed, ok := event.(*domain.Listed)
		require.True(t, ok)
		assert.Equal(t, uint64(42), listed.TokenID)
		assert.Equal(t, "0x000000000000000000000000000000000000aaaa", listed.Seller)
		assert.Equal(t, "10", listed.Price.String())
	})

	t.Run("unlisted", func(t *testing.T) {
		event := c.Classify(buildLog(marketplaceAddress,
			[]common.Hash{unlistedSignature, uintTopic(42), addressTopic(walletA)}, nil))

		unlisted, ok := event.(*domain.Unlisted)
		require.True(t, ok)
		assert.Equal(t, uint64(42), unlisted.TokenID)
		assert.Equal(t, "0x000000000000000000000000000000000000aaaa", unlisted.Seller)
	})

	t.Run("sold", func(t *testing.T) {
		event := c.Classify(buildLog(marketplaceAddress,
			[]common.Hash{soldSignature, uintTopic(42), addressTopic(walletA), addressTopic(walletB)}, uintData(10)))

		sold, ok := event.(*domain.Sold)
		require.True(t, ok)
		assert.Equal(t, uint64(42), sold.TokenID)
		assert.Equal(t, "0x000000000000000000000000000000000000aaaa", sold.Seller)
		assert.Equal(t, "0x000000000000000000000000000000000000bbbb", sold.Buyer)
		assert.Equal(t, "10", sold.Price.String())
	})
}

func TestClassify_Unrecognized(t *testing.T) {
	c := newTestClassifier()
	oversized := common.BytesToHash(common.LeftPadBytes(new(big.Int).Lsh(big.NewInt(1), 64).Bytes(), 32))
	dirtyAddress := common.HexToHash("0xff0000000000000000000000000000000000000000000000000000000000aaaa")

	tests := []struct {
		name string
		log  types.Log
	}{
		{
			name: "unknown emitter",
			log: buildLog(common.HexToAddress("0x3000000000000000000000000000000000000003"),
				[]common.Hash{ticketMintedSignature, uintTopic(1), uintTopic(1), addressTopic(walletA)}, nil),
		},
		{
			name: "registry event from marketplace",
			log: buildLog(marketplaceAddress,
				[]common.Hash{ticketMintedSignature, uintTopic(1), uintTopic(1), addressTopic(walletA)}, nil),
		},
		{
			name: "marketplace event from registry",
			log: buildLog(registryAddress,
				[]common.Hash{listedSignature, uintTopic(1), addressTopic(walletA)}, uintData(10)),
		},
		{
			name: "no topics",
			log:  buildLog(registryAddress, nil, nil),
		},
		{
			name: "unknown signature",
			log:  buildLog(registryAddress, []common.Hash{common.HexToHash("0xdeadbeef")}, nil),
		},
		{
			name: "missing topic",
			log: buildLog(registryAddress,
				[]common.Hash{ticketMintedSignature, uintTopic(1), uintTopic(1)}, nil),
		},
		{
			name: "extra topic",
			log: buildLog(marketplaceAddress,
				[]common.Hash{unlistedSignature, uintTopic(1), addressTopic(walletA), addressTopic(walletB)}, nil),
		},
		{
			name: "token id overflows uint64",
			log: buildLog(registryAddress,
				[]common.Hash{ticketMintedSignature, oversized, uintTopic(1), addressTopic(walletA)}, nil),
		},
		{
			name: "token id above int64",
			log: buildLog(registryAddress,
				[]common.Hash{ticketMintedSignature, common.BigToHash(new(big.Int).Lsh(big.NewInt(1), 63)), uintTopic(1), addressTopic(walletA)}, nil),
		},
		{
			name: "event id above int64",
			log: buildLog(registryAddress,
				[]common.Hash{ticketMintedSignature, uintTopic(1), common.BigToHash(new(big.Int).Lsh(big.NewInt(1), 63)), addressTopic(walletA)}, nil),
		},
		{
			name: "sold token id above int64",
			log: buildLog(marketplaceAddress,
				[]common.Hash{soldSignature, uintTopic(math.MaxUint64), addressTopic(walletA), addressTopic(walletB)}, uintData(10)),
		},
		{
			name: "address topic with dirty high bytes",
			log: buildLog(registryAddress,
				[]common.Hash{transferredOwnershipSignature, dirtyAddress, addressTopic(walletB), uintTopic(1)}, nil),
		},
		{
			name: "missing price payload",
			log: buildLog(marketplaceAddress,
				[]common.Hash{listedSignature, uintTopic(1), addressTopic(walletA)}, nil),
		},
		{
			name: "truncated price payload",
			log: buildLog(marketplaceAddress,
				[]common.Hash{soldSignature, uintTopic(1), addressTopic(walletA), addressTopic(walletB)}, []byte{0x01, 0x02}),
		},
		{
			name: "removed log",
			log: func() types.Log {
				l := buildLog(registryAddress,
					[]common.Hash{checkedInSignature, uintTopic(1)}, uintData(1))
				l.Removed = true
				return l
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event domain.LedgerEvent
			require.NotPanics(t, func() {
				event = c.Classify(tt.log)
			})

			unrecognized, ok := event.(*domain.Unrecognized)
			require.True(t, ok, "expected Unrecognized, got %T", event)
			assert.Equal(t, domain.EventKindUnrecognized, unrecognized.Kind())
			assert.NotEmpty(t, unrecognized.Reason)
			assert.Equal(t, uint64(500), unrecognized.BlockNumber)
		})
	}
}

func TestClassify_LargestMirrorableID(t *testing.T) {
	c := newTestClassifier()

	event := c.Classify(buildLog(registryAddress,
		[]common.Hash{ticketMintedSignature, uintTopic(math.MaxInt64), uintTopic(math.MaxInt64), addressTopic(walletA)}, nil))

	minted, ok := event.(*domain.TicketMinted)
	require.True(t, ok, "expected TicketMinted, got %T", event)
	assert.Equal(t, uint64(math.MaxInt64), minted.TokenID)
	assert.Equal(t, uint64(math.MaxInt64), minted.EventID)
}

func TestEmitters(t *testing.T) {
	c := newTestClassifier()
	assert.Equal(t, []common.Address{registryAddress, marketplaceAddress}, c.Emitters())
}
