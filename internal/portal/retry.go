package portal

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

func permanent(err error) error {
	return backoff.Permanent(err)
}

// retry runs fn up to c.attempts times with a fixed delay between attempts.
func (c *Client) retry(ctx context.Context, op string, fn func() error) error {
	var policy backoff.BackOff = backoff.NewConstantBackOff(c.delay)
	policy = backoff.WithMaxRetries(policy, uint64(c.attempts-1))
	policy = backoff.WithContext(policy, ctx)

	attempt := 1
	return backoff.RetryNotify(fn, policy, func(err error, wait time.Duration) {
		c.log.Warn("portal request failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("attempts", c.attempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		attempt++
	})
}
