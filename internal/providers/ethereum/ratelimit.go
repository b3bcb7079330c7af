package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-ticket-mirror/internal/adapter"
)

// rateLimitedEthClient throttles the request methods of an EthClient.
// Subscriptions are long-lived and pass through.
type rateLimitedEthClient struct {
	adapter.EthClient
	limiter *rate.Limiter
}

// NewRateLimitedEthClient wraps client so that FilterLogs and HeaderByNumber share a
// token bucket of requestsPerSecond with the given burst. A non-positive rate returns
// client unchanged.
func NewRateLimitedEthClient(client adapter.EthClient, requestsPerSecond float64, burst int) adapter.EthClient {
	if requestsPerSecond <= 0 {
		return client
	}
	if burst <= 0 {
		burst = 1
	}

	return &rateLimitedEthClient{
		EthClient: client,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (c *rateLimitedEthClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.EthClient.FilterLogs(ctx, query)
}

func (c *rateLimitedEthClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.EthClient.HeaderByNumber(ctx, number)
}

func (c *rateLimitedEthClient) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
