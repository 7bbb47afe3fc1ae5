package main

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/russellsayshi/visualsort/pkg/transport"
	"go.uber.org/zap"
)

type dialFn func(ctx context.Context) (transport.Connection, error)

// retryingDial retries the transport connect only. Once a connection exists
// nothing on it is ever retried.
func retryingDial(dial dialFn, attempts int, initialInterval time.Duration, logger *zap.Logger) dialFn {
	if attempts <= 1 {
		return dial
	}

	return func(ctx context.Context) (transport.Connection, error) {
		var conn transport.Connection
		connect := func() error {
			c, err := dial(ctx)
			if err != nil {
				return err
			}
			conn = c
			return nil
		}

		expBackoff := backoff.NewExponentialBackOff()
		expBackoff.InitialInterval = initialInterval
		policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(attempts-1)), ctx)

		err := backoff.RetryNotify(connect, policy, func(err error, wait time.Duration) {
			logger.Warn("Visualization server not reachable yet, retrying", zap.Error(err), zap.Duration("wait", wait))
		})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}
