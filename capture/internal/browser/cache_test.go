package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEngine struct {
	closed atomic.Bool
}

func (f *fakeEngine) NewPage(ctx context.Context) (Page, error) { return nil, errors.New("no pages") }
func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

func TestSessionCache_SharedInit(t *testing.T) {
	var launches atomic.Int64
	factory := func(ctx context.Context) (Engine, error) {
		launches.Add(1)
		time.Sleep(30 * time.Millisecond) // keep the flight open for joiners
		return &fakeEngine{}, nil
	}
	c := NewSessionCache(factory, nil)

	const callers = 8
	sessions := make([]*Session, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s, err := c.Get(context.Background(), "v1")
			if err != nil {
				t.Error(err)
				return
			}
			sessions[n] = s
		}(i)
	}
	wg.Wait()

	if got := launches.Load(); got != 1 {
		t.Fatalf("factory launched %d engines, want 1", got)
	}
	for i := 1; i < callers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent callers received different sessions")
		}
	}
}

func TestSessionCache_VersionReplacement(t *testing.T) {
	var engines []*fakeEngine
	var mu sync.Mutex
	factory := func(ctx context.Context) (Engine, error) {
		e := &fakeEngine{}
		mu.Lock()
		engines = append(engines, e)
		mu.Unlock()
		return e, nil
	}
	c := NewSessionCache(factory, nil)

	s1, err := c.Get(context.Background(), "v1")
	if err != nil {
		t.Fatal(err)
	}
	s2, err := c.Get(context.Background(), "v2")
	if err != nil {
		t.Fatal(err)
	}

	if s1 == s2 {
		t.Fatal("version bump returned the old session")
	}
	if len(engines) != 2 {
		t.Fatalf("launched %d engines, want 2", len(engines))
	}
	if !engines[0].closed.Load() {
		t.Fatal("stale engine was not closed after replacement")
	}
	if engines[1].closed.Load() {
		t.Fatal("fresh engine was closed")
	}

	// Same version again: cached, no third launch.
	s3, err := c.Get(context.Background(), "v2")
	if err != nil {
		t.Fatal(err)
	}
	if s3 != s2 {
		t.Fatal("expected cached session for matching version")
	}
	if len(engines) != 2 {
		t.Fatalf("launched %d engines, want 2", len(engines))
	}
}

func TestSessionCache_EngineOutlivesLaunchingRequest(t *testing.T) {
	var factoryCtx context.Context
	c := NewSessionCache(func(ctx context.Context) (Engine, error) {
		factoryCtx = ctx
		return &fakeEngine{}, nil
	}, nil)

	// The first request launches the engine, then its context dies (the host
	// layer timing out or an MCP call returning). The cached session must not
	// die with it.
	reqCtx, cancel := context.WithCancel(context.Background())
	if _, err := c.Get(reqCtx, "production"); err != nil {
		t.Fatal(err)
	}
	cancel()

	if err := factoryCtx.Err(); err != nil {
		t.Fatalf("engine context dead after launching request ended: %v", err)
	}

	s, err := c.Get(context.Background(), "production")
	if err != nil {
		t.Fatalf("cached session unusable after first request ended: %v", err)
	}
	if s == nil || s.Engine == nil {
		t.Fatal("no session returned")
	}

	// Close is what ends the engine's context, nothing else.
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if factoryCtx.Err() == nil {
		t.Fatal("engine context still alive after cache close")
	}
}

func TestSessionCache_AbandonedWaitDoesNotKillFlight(t *testing.T) {
	release := make(chan struct{})
	var launches atomic.Int64
	c := NewSessionCache(func(ctx context.Context) (Engine, error) {
		launches.Add(1)
		<-release
		return &fakeEngine{}, nil
	}, nil)

	// Caller 1's deadline expires mid-initialisation; caller 2 joined the
	// same flight first and must still get the engine.
	shortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	type result struct {
		s   *Session
		err error
	}
	second := make(chan result, 1)
	go func() {
		s, err := c.Get(context.Background(), "v1")
		second <- result{s, err}
	}()
	// Caller 2 is in the flight once the factory is running; the factory is
	// blocked on release, so both callers share the one launch.
	for launches.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	if _, err := c.Get(shortCtx, "v1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	close(release)
	res := <-second
	if res.err != nil {
		t.Fatalf("surviving caller failed: %v", res.err)
	}
	if res.s == nil {
		t.Fatal("no session after flight landed")
	}

	// Published: the next Get reuses it rather than launching again.
	if _, err := c.Get(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}
	if got := launches.Load(); got != 1 {
		t.Fatalf("launched %d engines, want 1", got)
	}
}

func TestSessionCache_FactoryError(t *testing.T) {
	boom := errors.New("chrome missing")
	c := NewSessionCache(func(ctx context.Context) (Engine, error) {
		return nil, boom
	}, nil)

	if _, err := c.Get(context.Background(), "v1"); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestSessionCache_Closed(t *testing.T) {
	e := &fakeEngine{}
	c := NewSessionCache(func(ctx context.Context) (Engine, error) { return e, nil }, nil)

	if _, err := c.Get(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !e.closed.Load() {
		t.Fatal("engine not closed with cache")
	}
	if _, err := c.Get(context.Background(), "v1"); !errors.Is(err, ErrCacheClosed) {
		t.Fatalf("expected ErrCacheClosed, got %v", err)
	}
}
