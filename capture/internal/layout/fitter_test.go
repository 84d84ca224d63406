package layout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/browser"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		Title:          Rect{X: 0, Y: 20, W: 700, H: 60},
		Chart:          Rect{X: 0, Y: 200, W: 700, H: 420},
		Buy:            Rect{X: 0, Y: 700, W: 700, H: 80},
		Volume:         Rect{X: 0, Y: 630, W: 300, H: 24},
		ViewportHeight: 914,
	}
}

func TestFit_NoAdjustmentNeeded(t *testing.T) {
	snap := baseSnapshot()
	plan := Fit(snap, FitOptions{ViewportHeightPx: 914})
	if plan.ChartHeightPx != 420 {
		t.Fatalf("chart height = %d, want unchanged 420", plan.ChartHeightPx)
	}
	if plan.ViewportHeightPx != 914 {
		t.Fatalf("viewport = %d, want 914", plan.ViewportHeightPx)
	}
}

func TestFit_ChipStripShrinks(t *testing.T) {
	snap := baseSnapshot()
	snap.Chips = Rect{X: 0, Y: 160, W: 400, H: 36}
	snap.ChipHeights = []float64{32, 32, 32}

	plan := Fit(snap, FitOptions{ViewportHeightPx: 914})
	if plan.ChartHeightPx != 420-36 {
		t.Fatalf("chart height = %d, want 420-36", plan.ChartHeightPx)
	}
}

func TestFit_ChipShrinkClamped(t *testing.T) {
	snap := baseSnapshot()

	// Strip taller than the clamp ceiling shrinks by exactly 90.
	snap.Chips = Rect{X: 0, Y: 80, W: 400, H: 120}
	snap.ChipHeights = []float64{30, 30}
	plan := Fit(snap, FitOptions{ViewportHeightPx: 914})
	if plan.ChartHeightPx != 420-90 {
		t.Fatalf("chart height = %d, want 420-90 (clamp max)", plan.ChartHeightPx)
	}

	// Tiny strip still shrinks by the clamp minimum 28.
	snap = baseSnapshot()
	snap.Chips = Rect{X: 0, Y: 170, W: 400, H: 26}
	snap.ChipHeights = []float64{26, 26}
	plan = Fit(snap, FitOptions{ViewportHeightPx: 914})
	if plan.ChartHeightPx != 420-28 {
		t.Fatalf("chart height = %d, want 420-28 (clamp min)", plan.ChartHeightPx)
	}
}

func TestFit_ChipStripRejected(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Snapshot)
	}{
		{"below chart", func(s *Snapshot) {
			s.Chips = Rect{X: 0, Y: 650, W: 400, H: 36}
			s.ChipHeights = []float64{32, 32}
		}},
		{"too far above", func(s *Snapshot) {
			s.Chips = Rect{X: 0, Y: 20, W: 400, H: 36}
			s.ChipHeights = []float64{32, 32}
		}},
		{"one chip only", func(s *Snapshot) {
			s.Chips = Rect{X: 0, Y: 160, W: 400, H: 36}
			s.ChipHeights = []float64{32}
		}},
		{"children not chip-sized", func(s *Snapshot) {
			s.Chips = Rect{X: 0, Y: 160, W: 400, H: 36}
			s.ChipHeights = []float64{12, 90, 150}
		}},
	}
	for _, c := range cases {
		snap := baseSnapshot()
		c.mod(&snap)
		plan := Fit(snap, FitOptions{ViewportHeightPx: 914})
		if plan.ChartHeightPx != 420 {
			t.Errorf("%s: chart height = %d, want unchanged 420", c.name, plan.ChartHeightPx)
		}
	}
}

func TestFit_VolumeOverlapShrinks(t *testing.T) {
	snap := baseSnapshot()
	// Volume bottom at 700 vs buy top 700: inside the 16px safety buffer by
	// exactly 16, so shrink = 16 + 12 margin.
	snap.Volume = Rect{X: 0, Y: 676, W: 300, H: 24}

	plan := Fit(snap, FitOptions{ViewportHeightPx: 914})
	if plan.ChartHeightPx != 420-(16+12) {
		t.Fatalf("chart height = %d, want 420-28", plan.ChartHeightPx)
	}
}

func TestFit_BaseFloor(t *testing.T) {
	snap := baseSnapshot()
	snap.Chart.H = 320
	// Massive overlap tries to push the chart far below the floor.
	snap.Volume = Rect{X: 0, Y: 640, W: 300, H: 200}

	plan := Fit(snap, FitOptions{ViewportHeightPx: 914})
	if plan.ChartHeightPx != BaseChartFloorPx {
		t.Fatalf("chart height = %d, want floor %d", plan.ChartHeightPx, BaseChartFloorPx)
	}
}

func TestFit_NestedOverflowAndFloor(t *testing.T) {
	snap := baseSnapshot()
	snap.ContentBottom = 1000 // 102 past the 914-16 limit

	plan := Fit(snap, FitOptions{Nested: true, ViewportHeightPx: 914})
	if plan.ChartHeightPx != 420-102 {
		t.Fatalf("chart height = %d, want 420-102", plan.ChartHeightPx)
	}

	// Overflow beyond the nested floor clamps at 160.
	snap.ContentBottom = 1400
	plan = Fit(snap, FitOptions{Nested: true, ViewportHeightPx: 914})
	if plan.ChartHeightPx != NestedChartFloorPx {
		t.Fatalf("chart height = %d, want nested floor %d", plan.ChartHeightPx, NestedChartFloorPx)
	}
}

func TestFit_ShrinkOnly(t *testing.T) {
	snap := baseSnapshot()
	snap.Chart.H = 250 // already under the base floor

	plan := Fit(snap, FitOptions{ViewportHeightPx: 914})
	if plan.ChartHeightPx != 250 {
		t.Fatalf("chart height = %d; fitter must never grow the chart", plan.ChartHeightPx)
	}
}

func TestFit_MultiOutcomeTunesViewport(t *testing.T) {
	snap := baseSnapshot()
	snap.ContentBottom = 640

	plan := Fit(snap, FitOptions{MultiOutcome: true, CTAHeightPx: 72, ViewportHeightPx: 914})
	if plan.ViewportHeightPx != 640+72 {
		t.Fatalf("viewport = %d, want contentBottom+CTA = 712", plan.ViewportHeightPx)
	}
	if plan.ChartHeightPx != 420 {
		t.Fatalf("chart height = %d; multi-outcome mode must not touch the chart", plan.ChartHeightPx)
	}
}

type planPage struct {
	evals     int
	viewports []browser.Viewport
}

func (p *planPage) Navigate(ctx context.Context, url string) error     { return nil }
func (p *planPage) WaitSelector(ctx context.Context, sel string) error { return nil }
func (p *planPage) Eval(ctx context.Context, js string, args ...any) (json.RawMessage, error) {
	p.evals++
	return json.RawMessage(`true`), nil
}
func (p *planPage) Poll(ctx context.Context, js string, args ...any) error  { return nil }
func (p *planPage) Click(ctx context.Context, js string, args ...any) error { return nil }
func (p *planPage) SetViewport(ctx context.Context, vp browser.Viewport) error {
	p.viewports = append(p.viewports, vp)
	return nil
}
func (p *planPage) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }
func (p *planPage) HTML(ctx context.Context) (string, error)       { return "", nil }
func (p *planPage) Close() error                                   { return nil }

func TestFitPlan_UnmeasuredChartNeverWritten(t *testing.T) {
	// A failed probe degrades to a zero snapshot. The plan must not write a
	// zero height onto whatever chart element the script would match; only
	// the viewport is applied.
	snap := Snapshot{ViewportHeight: 914}
	plan := Fit(snap, FitOptions{ViewportHeightPx: 914})
	if plan.ChartHeightPx != 0 {
		t.Fatalf("chart height = %d, want 0 for an unmeasured chart", plan.ChartHeightPx)
	}

	page := &planPage{}
	if err := plan.Apply(context.Background(), page, 800, 2); err != nil {
		t.Fatal(err)
	}
	if page.evals != 0 {
		t.Fatalf("chart-height script evaluated %d times on an unmeasured chart, want 0", page.evals)
	}
	if len(page.viewports) != 1 || page.viewports[0].Height != 914 {
		t.Fatalf("viewport calls = %+v, want one 914px set", page.viewports)
	}
}

func TestFitPlan_ConsumedExactlyOnce(t *testing.T) {
	plan := Fit(baseSnapshot(), FitOptions{ViewportHeightPx: 914})
	page := &planPage{}

	if err := plan.Apply(context.Background(), page, 800, 2); err != nil {
		t.Fatal(err)
	}
	if len(page.viewports) != 1 || page.viewports[0].Height != 914 || page.viewports[0].Width != 800 {
		t.Fatalf("viewport calls = %+v", page.viewports)
	}

	if err := plan.Apply(context.Background(), page, 800, 2); !errors.Is(err, ErrPlanConsumed) {
		t.Fatalf("second apply: err = %v, want ErrPlanConsumed", err)
	}
}
