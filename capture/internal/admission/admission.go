// Package admission bounds the number of captures running against the shared
// browser process. It is a thin FIFO wrapper over x/sync's weighted semaphore:
// waiters are served in arrival order, and a released slot can never be
// released twice.
package admission

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent is used when the configured limit is missing or < 1.
const DefaultMaxConcurrent = 2

// Controller gates concurrent captures.
type Controller struct {
	sem    *semaphore.Weighted
	max    int64
	active atomic.Int64
}

// NewController creates a controller admitting at most max concurrent holders.
// Values below 1 fall back to DefaultMaxConcurrent.
func NewController(max int) *Controller {
	if max < 1 {
		max = DefaultMaxConcurrent
	}
	return &Controller{
		sem: semaphore.NewWeighted(int64(max)),
		max: int64(max),
	}
}

// Slot is an admission token. Release it exactly once; extra calls are no-ops.
type Slot struct {
	release sync.Once
	c       *Controller
}

// Acquire blocks until a slot is free or ctx expires. Waiters are woken in
// FIFO order.
func (c *Controller) Acquire(ctx context.Context) (*Slot, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	c.active.Add(1)
	return &Slot{c: c}, nil
}

// Release returns the slot to the controller. Safe to call more than once.
func (s *Slot) Release() {
	s.release.Do(func() {
		s.c.active.Add(-1)
		s.c.sem.Release(1)
	})
}

// Active reports the current number of holders. Never exceeds Max.
func (c *Controller) Active() int { return int(c.active.Load()) }

// Max reports the configured concurrency limit.
func (c *Controller) Max() int { return int(c.max) }
