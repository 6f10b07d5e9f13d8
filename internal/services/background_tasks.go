package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// BackgroundTasks runs best-effort work detached from the request that
// scheduled it. Errors are logged and dropped.
type BackgroundTasks struct {
	logger  *logrus.Logger
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewBackgroundTasks(timeout time.Duration, logger *logrus.Logger) *BackgroundTasks {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BackgroundTasks{logger: logger, timeout: timeout}
}

// Go schedules fn with its own timeout. The context passed to fn keeps the
// values of ctx but not its cancellation. Returns false once Wait has begun.
func (b *BackgroundTasks) Go(ctx context.Context, name string, fn func(context.Context) error) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.WithField("task", name).Warn("Background task dropped during shutdown")
		return false
	}
	b.wg.Add(1)
	b.mu.Unlock()

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	go func() {
		defer b.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				b.logger.WithFields(logrus.Fields{"task": name, "panic": r}).Error("Background task panicked")
			}
		}()
		if err := fn(taskCtx); err != nil {
			b.logger.WithField("task", name).WithError(err).Warn("Background task failed")
		}
	}()
	return true
}

// Wait stops accepting tasks and blocks until running tasks finish or ctx is done.
func (b *BackgroundTasks) Wait(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
