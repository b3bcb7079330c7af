package logger

import (
	"context"

	"go.uber.org/zap"
)

type passKey struct{}

// PassInfo identifies one reconcile pass over a block range.
// Every log line written with a context carrying it is tagged with these fields.
type PassInfo struct {
	PassID    string
	ProcessID string
	FromBlock uint64
	ToBlock   uint64
}

// Fields returns the zap fields of the pass
func (p PassInfo) Fields() []zap.Field {
	return []zap.Field{
		zap.String("pass_id", p.PassID),
		zap.String("process_id", p.ProcessID),
		zap.Uint64("from_block", p.FromBlock),
		zap.Uint64("to_block", p.ToBlock),
	}
}

// WithPass returns a context carrying the pass information
func WithPass(ctx context.Context, pass PassInfo) context.Context {
	return context.WithValue(ctx, passKey{}, pass)
}

// PassFromContext returns the pass information carried by the context
func PassFromContext(ctx context.Context) (PassInfo, bool) {
	if ctx == nil {
		return PassInfo{}, false
	}
	pass, ok := ctx.Value(passKey{}).(PassInfo)
	return pass, ok
}
