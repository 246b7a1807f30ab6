// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryBaseDelay is the initial backoff interval between attempts. Tests
// override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// InvokeWithRetry calls the client with a per-attempt deadline and retries
// failed attempts with exponential backoff. maxRetries counts retries after
// the first attempt; timeout <= 0 means no per-attempt deadline. Context
// cancellation stops retrying immediately.
func InvokeWithRetry(ctx context.Context, c Client, prompt string, timeout time.Duration, maxRetries int) (string, error) {
	attempt := func() (string, error) {
		callCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		out, err := c.Complete(callCtx, prompt)
		if err != nil {
			// Root cancellation is not retryable.
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			return "", err
		}
		return out, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryBaseDelay
	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(maxRetries+1)),
	)
}
