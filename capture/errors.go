package capture

import (
	"errors"
	"fmt"
)

// Sentinel errors. All terminal failures surface as a tagged Result, never as
// a panic or an error thrown past the orchestrator boundary.
var (
	// ErrInvalidInput marks a URL that is not a Polymarket event or market
	// page. Terminal, no retry.
	ErrInvalidInput = errors.New("capture: invalid input URL")

	// ErrEngineUninitialized marks a capture attempted against a closed or
	// never-initialised browser session cache.
	ErrEngineUninitialized = errors.New("capture: automation engine not initialized")
)

// NavigationError is a fatal engine-level navigation failure. Navigation is
// the one wait in the pipeline whose timeout is terminal: without the page
// there is nothing to degrade to.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("capture: navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// CaptureError is a fatal engine-level failure after navigation (viewport,
// screenshot, page creation).
type CaptureError struct {
	Stage string
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture: %s: %v", e.Stage, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
