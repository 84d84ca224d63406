package layout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/browser"
)

// Fitting constants. All adjustments are shrink-only: the chart never grows
// past its rendered base height and never drops below the mode floor;
// avoiding overlap is preferred over readable miniaturisation right up to
// that floor.
const (
	// BaseChartFloorPx is the absolute chart height floor in the standard
	// modes.
	BaseChartFloorPx = 300

	// NestedChartFloorPx is the lower floor allowed in nested-outcome mode,
	// where the enlarged outcome card claims extra vertical space.
	NestedChartFloorPx = 160

	// SafetyBufferPx is the required gap between the volume row and the buy
	// container (and between content and the viewport bottom in nested mode).
	SafetyBufferPx = 16

	// OverlapMarginPx is added on top of a measured overlap when shrinking,
	// so the corrected layout does not land exactly on the boundary.
	OverlapMarginPx = 12

	// Chip-strip geometry: a strip counts only if it has at least MinChips
	// chip-like children (each chipMin..chipMax px tall) sitting within
	// chipProximityPx strictly above the chart.
	MinChips        = 2
	chipMinPx       = 24
	chipMaxPx       = 44
	chipProximityPx = 120

	// Chip-strip shrink clamp bounds.
	chipShrinkMinPx = 28
	chipShrinkMaxPx = 90
)

// FitOptions selects the fit strategy.
type FitOptions struct {
	Nested       bool // nested-outcome mode: lower floor, overflow shrink
	MultiOutcome bool // event mode: the viewport, not the chart, is tuned
	CTAHeightPx  int  // height of the appended Trade CTA (multi-outcome)

	// ViewportHeightPx is the aspect-derived canvas height the capture will
	// use; the default plan keeps it.
	ViewportHeightPx int
}

// FitPlan is the computed size adjustment. Derived from exactly one Snapshot
// and consumed exactly once by Apply.
type FitPlan struct {
	ChartHeightPx    int
	ViewportHeightPx int

	consumed bool
}

// ErrPlanConsumed reports a second Apply of the same plan. The plan encodes
// geometry from a snapshot that is stale after the first application.
var ErrPlanConsumed = errors.New("layout: fit plan already consumed")

// Fit reconciles the measured content stack against the target canvas.
func Fit(snap Snapshot, opts FitOptions) FitPlan {
	base := snap.Chart.H
	chartH := base

	floor := float64(BaseChartFloorPx)
	if opts.Nested {
		floor = NestedChartFloorPx
	}

	if opts.MultiOutcome {
		// Event layout: outcome rows are hidden and a fixed CTA is pinned to
		// the bottom, so the viewport itself is resized to contentBottom +
		// ctaHeight. Zero forced whitespace; chart height stays put.
		return FitPlan{
			ChartHeightPx:    int(math.Round(chartH)),
			ViewportHeightPx: int(math.Round(snap.ContentBottom)) + opts.CTAHeightPx,
		}
	}

	if strip := chipStripHeight(snap); strip > 0 {
		chartH -= clamp(strip, chipShrinkMinPx, chipShrinkMaxPx)
	}

	if !snap.Volume.Zero() && !snap.Buy.Zero() {
		limit := snap.Buy.Y - SafetyBufferPx
		if snap.Volume.Bottom() >= limit {
			chartH -= (snap.Volume.Bottom() - limit) + OverlapMarginPx
		}
	}

	if opts.Nested {
		vh := float64(opts.ViewportHeightPx)
		if vh == 0 {
			vh = snap.ViewportHeight
		}
		if overflow := snap.ContentBottom - (vh - SafetyBufferPx); overflow > 0 {
			chartH -= overflow
		}
	}

	// Shrink-only with floor.
	chartH = math.Min(chartH, base)
	chartH = math.Max(chartH, math.Min(floor, base))

	vp := opts.ViewportHeightPx
	if vp == 0 {
		vp = int(math.Round(snap.ViewportHeight))
	}

	return FitPlan{
		ChartHeightPx:    int(math.Round(chartH)),
		ViewportHeightPx: vp,
	}
}

// chipStripHeight returns the strip height when the snapshot shows a genuine
// date-chip strip above the chart, else 0.
func chipStripHeight(snap Snapshot) float64 {
	if snap.Chips.Zero() || snap.Chart.Zero() {
		return 0
	}
	// Strictly above the chart, within proximity.
	if snap.Chips.Bottom() > snap.Chart.Y {
		return 0
	}
	if snap.Chart.Y-snap.Chips.Bottom() > chipProximityPx {
		return 0
	}
	chipLike := 0
	for _, h := range snap.ChipHeights {
		if h >= chipMinPx && h <= chipMaxPx {
			chipLike++
		}
	}
	if chipLike < MinChips {
		return 0
	}
	return snap.Chips.H
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// applyPlanScript resizes the chart container and its inner chart primitive
// to the planned height. The viewport change is the engine's job, not the
// page's.
const applyPlanScript = `(chartHeight) => {
	const chart = document.querySelector('[class*="chart"]') ||
		document.querySelector('svg')?.closest('div');
	if (!chart) return false;
	chart.style.height = chartHeight + 'px';
	const svg = chart.querySelector('svg');
	if (svg) {
		svg.style.height = chartHeight + 'px';
		svg.setAttribute('height', chartHeight);
	}
	return true;
}`

// Apply writes the plan into the page and resizes the capture viewport.
// A plan is single-use; the second call fails with ErrPlanConsumed.
//
// A non-positive chart height means the probe never measured the chart (the
// plan was fitted from a degraded snapshot); the chart is left alone and only
// the viewport is applied, since writing height 0 would destroy it.
func (p *FitPlan) Apply(ctx context.Context, page browser.Page, width int, scale float64) error {
	if p.consumed {
		return ErrPlanConsumed
	}
	p.consumed = true

	if p.ChartHeightPx > 0 {
		if _, err := page.Eval(ctx, applyPlanScript, p.ChartHeightPx); err != nil {
			return fmt.Errorf("layout: apply chart height: %w", err)
		}
	}
	err := page.SetViewport(ctx, browser.Viewport{
		Width:  width,
		Height: p.ViewportHeightPx,
		Scale:  scale,
	})
	if err != nil {
		return fmt.Errorf("layout: apply viewport: %w", err)
	}
	return nil
}
