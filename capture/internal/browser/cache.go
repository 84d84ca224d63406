package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrCacheClosed is returned by Get after Close.
var ErrCacheClosed = errors.New("browser: session cache is closed")

// Factory constructs a fresh engine. Called at most once per in-flight
// version, however many callers arrive during initialisation. The ctx it
// receives is the cache's lifetime context, not any caller's: the engine must
// outlive the request that happened to trigger its launch.
type Factory func(ctx context.Context) (Engine, error)

// Session is a ready engine bound to a rule-set version.
type Session struct {
	Version string
	Engine  Engine
}

// SessionCache holds at most one ready Session. Get with a new version
// replaces the old session, closing it only after the new one is ready.
// Concurrent Gets for the same version share a single initialisation.
type SessionCache struct {
	factory Factory
	log     *slog.Logger

	// life bounds every engine the cache launches; cancelled on Close.
	life   context.Context
	cancel context.CancelFunc

	group   singleflight.Group
	mu      sync.Mutex
	current *Session
	closed  bool
}

// NewSessionCache creates an empty cache. No engine is launched until the
// first Get.
func NewSessionCache(factory Factory, log *slog.Logger) *SessionCache {
	if log == nil {
		log = slog.Default()
	}
	life, cancel := context.WithCancel(context.Background())
	return &SessionCache{factory: factory, log: log, life: life, cancel: cancel}
}

// Get returns the ready session for version, launching one if needed.
// An existing session at a different version is closed best-effort, but only
// once the replacement is ready, so concurrent requests on the old session
// are never yanked mid-capture by a version bump alone.
func (c *SessionCache) Get(ctx context.Context, version string) (*Session, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCacheClosed
	}
	if c.current != nil && c.current.Version == version {
		s := c.current
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	// Flights are keyed by version: a Get for a newer version never joins an
	// in-flight initialisation of a stale one, it starts its own. The stale
	// flight's result is discarded at publish time below. The engine launches
	// under the cache's lifetime context; the caller's ctx only bounds how
	// long this caller waits, so a cancelled request never kills the shared
	// session it happened to initialise.
	ch := c.group.DoChan(version, func() (any, error) {
		eng, err := c.factory(c.life)
		if err != nil {
			return nil, fmt.Errorf("browser: init session %q: %w", version, err)
		}
		return &Session{Version: version, Engine: eng}, nil
	})

	select {
	case <-ctx.Done():
		// This caller gives up, the flight does not: its engine is still
		// published (or closed) when it lands, so the launch is never leaked.
		go func() {
			if res := <-ch; res.Err == nil {
				c.publish(res.Val.(*Session))
			}
		}()
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return c.publish(res.Val.(*Session))
	}
}

// publish installs a freshly initialised session, closing whichever handle
// loses: the newcomer when an equal version won the race or the cache closed
// meanwhile, the stale current session otherwise.
func (c *SessionCache) publish(s *Session) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		s.Engine.Close()
		return nil, ErrCacheClosed
	}

	switch {
	case c.current == nil:
		c.current = s
	case c.current.Version == s.Version:
		// Another caller published the same version first; keep theirs.
		if c.current != s {
			s.Engine.Close()
		}
		s = c.current
	default:
		// Replace the stale session, old handle closed best-effort.
		old := c.current
		c.current = s
		c.log.Info("browser: session replaced",
			"old_version", old.Version, "new_version", s.Version)
		if err := old.Engine.Close(); err != nil {
			c.log.Warn("browser: close stale session", "error", err)
		}
	}

	return s, nil
}

// Close tears down the cached engine and cancels the lifetime context every
// launched engine was bound to. Subsequent Gets fail.
func (c *SessionCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancel()
	if c.current != nil {
		err := c.current.Engine.Close()
		c.current = nil
		return err
	}
	return nil
}
