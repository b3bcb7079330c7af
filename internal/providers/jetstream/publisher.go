package jetstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-mirror/internal/adapter"
	"github.com/feral-file/ff-ticket-mirror/internal/domain"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
	"github.com/feral-file/ff-ticket-mirror/internal/messaging"
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type publisher struct {
	nc            adapter.NatsConn
	js            adapter.JetStream
	subjectPrefix string
	json          adapter.JSON
}

// NewPublisher creates a new NATS JetStream publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "tickets"
	}

	return &publisher{
		nc:            nc,
		js:            js,
		subjectPrefix: prefix,
		json:          jsonAdapter,
	}, nil
}

// PublishChanges publishes each change on its own subject. The message ID is derived
// from the ledger position so JetStream drops the duplicates produced by replays.
func (p *publisher) PublishChanges(ctx context.Context, changes []domain.MirrorChange) error {
	for _, change := range changes {
		data, err := p.json.Marshal(change)
		if err != nil {
			return fmt.Errorf("failed to marshal change: %w", err)
		}

		subject := p.buildSubject(change)
		_, err = p.js.Publish(ctx, subject, data, jetstream.WithMsgID(messageID(change)))
		if err != nil {
			return fmt.Errorf("failed to publish change to %s: %w", subject, err)
		}

		logger.DebugCtx(ctx, "Published mirror change",
			zap.String("subject", subject),
			zap.Uint64("tokenID", change.TokenID),
			zap.String("txHash", change.TxHash))
	}

	return nil
}

// buildSubject constructs the NATS subject based on the change
func (p *publisher) buildSubject(change domain.MirrorChange) string {
	// Format: {prefix}.{chain}.{kind}
	// e.g., tickets.eip155_1.sold
	chain := strings.ReplaceAll(string(change.Chain), ":", "_")
	return fmt.Sprintf("%s.%s.%s", p.subjectPrefix, chain, change.Kind)
}

func messageID(change domain.MirrorChange) string {
	return fmt.Sprintf("%s:%s:%d:%s", change.Chain, change.TxHash, change.LogIndex, change.Kind)
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
