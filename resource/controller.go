// Package resource bounds the IO and concurrency footprint of bulk builds.
//
// Building an xdb file from a multi-million line dump is batch work that
// often runs next to latency-sensitive services. The Controller lets callers
// cap write throughput during a build and bound the number of concurrent
// workers a verification pass may spawn.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// IOLimitBytesPerSec caps write throughput. If 0, unlimited.
	IOLimitBytesPerSec int64

	// MaxWorkers is the maximum number of concurrent verify workers.
	// If 0, defaults to 4.
	MaxWorkers int64
}

// Controller manages IO throughput and worker concurrency.
type Controller struct {
	workers   *semaphore.Weighted
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}

	c := &Controller{
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// A nil controller never throttles.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	// WaitN rejects bursts larger than the limiter allows; split them.
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// AcquireWorker reserves a worker slot, blocking until one is free.
// A nil controller imposes no bound.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workers.Acquire(ctx, 1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}
