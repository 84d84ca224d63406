package capture

import (
	"fmt"
	"math"
)

// Aspect selects the export canvas shape.
type Aspect string

const (
	// AspectTwitter is the 7:8 portrait card Twitter renders inline.
	AspectTwitter Aspect = "twitter"
	// AspectSquare is a 1:1 canvas.
	AspectSquare Aspect = "square"
)

// TimeRange values accepted for the chart tab. Empty leaves the page default.
var timeRanges = map[string]bool{
	"": true, "1h": true, "6h": true, "1d": true, "1w": true, "1m": true, "max": true,
}

// Watermark modes.
const (
	WatermarkNone     = "none"
	WatermarkWordmark = "wordmark"
	WatermarkIcon     = "icon"
)

// PayoutOptions controls the optional investment annotation on the trading
// affordances.
type PayoutOptions struct {
	// InvestmentUSD > 0 appends "$<investment> → $<payout>" under each buy
	// button.
	InvestmentUSD float64
}

// Request describes one capture. Immutable once admitted; the orchestrator
// normalises a copy, never the caller's value.
type Request struct {
	SourceURL   string
	Aspect      Aspect
	TimeRange   string
	Watermark   string
	DebugLayout bool
	Payout      PayoutOptions
}

// normalize fills defaults and validates enum fields.
func (r *Request) normalize() error {
	if r.SourceURL == "" {
		return fmt.Errorf("capture: empty source URL")
	}
	if r.Aspect == "" {
		r.Aspect = AspectTwitter
	}
	if r.Aspect != AspectTwitter && r.Aspect != AspectSquare {
		return fmt.Errorf("capture: unknown aspect %q", r.Aspect)
	}
	if !timeRanges[r.TimeRange] {
		return fmt.Errorf("capture: unknown time range %q", r.TimeRange)
	}
	switch r.Watermark {
	case "":
		r.Watermark = WatermarkNone
	case WatermarkNone, WatermarkWordmark, WatermarkIcon:
	default:
		return fmt.Errorf("capture: unknown watermark mode %q", r.Watermark)
	}
	return nil
}

// canvasHeight returns the logical export height for a canvas width.
// Twitter is width x round(width*8/7); square is width x width.
func (r *Request) canvasHeight(width int) int {
	if r.Aspect == AspectSquare {
		return width
	}
	return int(math.Round(float64(width) * 8 / 7))
}

// Result is the terminal outcome of one capture.
type Result struct {
	ImageBytes  []byte
	FileName    string
	MarketTitle string
	SourceURL   string
	Success     bool
	Err         error
}
