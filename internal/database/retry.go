package database

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy defines retry behavior for connection attempts.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// ConnectPolicy returns the policy used when opening stores at startup.
// Zero retries means a single attempt.
func ConnectPolicy(retries int, delay time.Duration) RetryPolicy {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return RetryPolicy{
		MaxRetries:    retries,
		InitialDelay:  delay,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Retry runs op until it succeeds, the policy is exhausted or ctx is done.
// The last operation error is returned.
func Retry(ctx context.Context, name string, policy RetryPolicy, logger *logrus.Logger, op func(context.Context) error) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 1
	}

	start := time.Now()
	delay := policy.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 0 {
				logger.WithFields(logrus.Fields{
					"operation": name,
					"attempts":  attempt + 1,
					"duration":  time.Since(start),
				}).Info("Operation recovered after retry")
			}
			return nil
		}
		if attempt == policy.MaxRetries {
			break
		}

		wait := policy.delay(delay)
		logger.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt + 1,
			"error":     lastErr.Error(),
			"delay":     wait,
		}).Warn("Operation failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * policy.BackoffFactor)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	if policy.MaxRetries > 0 {
		logger.WithFields(logrus.Fields{
			"operation": name,
			"attempts":  policy.MaxRetries + 1,
			"duration":  time.Since(start),
			"error":     lastErr.Error(),
		}).Error("Operation failed after all retries")
	}
	return lastErr
}

// delay applies up to 25% jitter in either direction.
func (p RetryPolicy) delay(base time.Duration) time.Duration {
	if !p.JitterEnabled || base <= 0 {
		return base
	}
	jitter := float64(base) * 0.25 * (rand.Float64()*2 - 1)
	return base + time.Duration(jitter)
}
