// Package browser owns the automation engine: the Chrome process driven via
// Rod, the per-capture page handles, and the version-keyed session cache that
// guarantees a single ready browser per rule-set version.
//
// The capture pipeline depends only on the Engine and Page contracts below,
// which mirror the CDP primitives it needs: navigate, evaluate, wait,
// viewport, screenshot. Tests substitute scripted fakes.
package browser

import (
	"context"
	"encoding/json"
)

// Viewport is the logical page size plus device scale factor.
type Viewport struct {
	Width  int
	Height int
	Scale  float64
}

// Page is one exclusively-owned browser tab. All methods honour ctx deadlines;
// Close must be called on every exit path.
type Page interface {
	// Navigate loads the URL and waits for the load event. A navigation
	// failure is fatal to the capture; a load-event timeout is not.
	Navigate(ctx context.Context, url string) error

	// WaitSelector blocks until the selector matches or ctx expires.
	WaitSelector(ctx context.Context, selector string) error

	// Eval runs a JS function in page context and returns its serialisable
	// result. Promises are awaited.
	Eval(ctx context.Context, js string, args ...any) (json.RawMessage, error)

	// Poll re-evaluates the JS predicate until it is truthy or ctx expires.
	Poll(ctx context.Context, js string, args ...any) error

	// Click resolves an element via the JS locator (a function returning the
	// element or null) and performs a native input click on it.
	Click(ctx context.Context, js string, args ...any) error

	// SetViewport resizes the emulated viewport.
	SetViewport(ctx context.Context, vp Viewport) error

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// HTML returns the serialised document, for out-of-page fallbacks.
	HTML(ctx context.Context) (string, error)

	Close() error
}

// Engine is one live browser process.
type Engine interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}
