package messaging

import (
	"context"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
)

// Publisher defines the interface for announcing committed mirror changes to a message broker.
// Delivery is best-effort: the mirror tables stay the source of truth.
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishChanges publishes the changes of one committed range, in ledger order
	PublishChanges(ctx context.Context, changes []domain.MirrorChange) error
	// Close closes the connection
	Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every change, used when no broker is configured
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishChanges(ctx context.Context, changes []domain.MirrorChange) error {
	return nil
}

func (noopPublisher) Close() {}
