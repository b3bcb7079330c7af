package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	require.NoError(t, Initialize(Config{Debug: true}))
	assert.NotNil(t, Default())

	require.NoError(t, Initialize(Config{Debug: false}))
	assert.NotNil(t, Default())
}

func TestInitialize_WithSentryClient(t *testing.T) {
	originalLog, originalClient := log, sentryClient
	t.Cleanup(func() {
		log = originalLog
		sentryClient = originalClient
	})

	client, err := sentry.NewClient(sentry.ClientOptions{})
	require.NoError(t, err)

	require.NoError(t, Initialize(Config{
		Service:      "ticket-reconciler",
		SentryClient: client,
		Tags:         map[string]string{"chain": "eip155:1"},
	}))
	assert.Same(t, client, sentryClient)

	assert.NotPanics(t, func() {
		Error(errors.New("boom"))
		Flush(10 * time.Millisecond)
	})
}

func TestError_NilError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	original := log
	log = zap.New(core)
	t.Cleanup(func() { log = original })

	Error(nil, zap.String("component", "lock"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "error occurred", logs.All()[0].Message)
	assert.Equal(t, "lock", logs.All()[0].ContextMap()["component"])
}

func TestPassContext(t *testing.T) {
	_, ok := PassFromContext(context.Background())
	assert.False(t, ok)

	pass := PassInfo{PassID: "01HZX", ProcessID: "ticket-mirror", FromBlock: 10, ToBlock: 20}
	ctx := WithPass(context.Background(), pass)

	got, ok := PassFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, pass, got)
}

func TestFromContext_TagsPassFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	original := log
	log = zap.New(core)
	t.Cleanup(func() { log = original })

	ctx := WithPass(context.Background(), PassInfo{PassID: "01HZX", ProcessID: "ticket-mirror", FromBlock: 10, ToBlock: 20})
	InfoCtx(ctx, "Applied range")
	ErrorCtx(ctx, errors.New("boom"))

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Applied range", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "01HZX", fields["pass_id"])
	assert.Equal(t, "ticket-mirror", fields["process_id"])
	assert.Equal(t, uint64(10), fields["from_block"])
	assert.Equal(t, uint64(20), fields["to_block"])
	assert.Equal(t, "boom", logs.All()[1].Message)
}
