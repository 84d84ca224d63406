package rules

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/browser"
)

// fakePage scripts Eval/Click responses and records every call.
type fakePage struct {
	evals  []evalCall
	clicks []string
	polls  []string

	onEval  func(js string, args ...any) (string, error)
	onClick func(js string, args ...any) error
}

type evalCall struct {
	js   string
	args []any
}

func (f *fakePage) Navigate(ctx context.Context, url string) error      { return nil }
func (f *fakePage) WaitSelector(ctx context.Context, sel string) error  { return nil }
func (f *fakePage) SetViewport(ctx context.Context, vp browser.Viewport) error { return nil }
func (f *fakePage) Screenshot(ctx context.Context) ([]byte, error)      { return nil, nil }
func (f *fakePage) HTML(ctx context.Context) (string, error)            { return "", nil }
func (f *fakePage) Close() error                                        { return nil }

func (f *fakePage) Eval(ctx context.Context, js string, args ...any) (json.RawMessage, error) {
	f.evals = append(f.evals, evalCall{js: js, args: args})
	if f.onEval != nil {
		s, err := f.onEval(js, args...)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(s), nil
	}
	return json.RawMessage(`null`), nil
}

func (f *fakePage) Poll(ctx context.Context, js string, args ...any) error {
	f.polls = append(f.polls, js)
	return nil
}

func (f *fakePage) Click(ctx context.Context, js string, args ...any) error {
	f.clicks = append(f.clicks, js)
	if f.onClick != nil {
		return f.onClick(js, args...)
	}
	return nil
}

func testEnv(p *fakePage) *Env {
	return &Env{Page: p, Log: slog.New(slog.DiscardHandler)}
}

func TestComplementCents_SumsToExactly100(t *testing.T) {
	for _, first := range []float64{1, 34, 34.5, 50, 66.6, 99} {
		second := ComplementCents(first)
		if first+second != 100.0 {
			t.Errorf("first %v + complement %v = %v, want exactly 100.0",
				first, second, first+second)
		}
	}
}

func TestPayoutUSD(t *testing.T) {
	cases := []struct {
		invest, cents, want float64
	}{
		{100, 40, 250},
		{100, 34, 294},  // 294.117… rounds down
		{100, 66, 152},  // 151.51… rounds up
		{50, 25, 200},
		{100, 0, 0}, // degenerate price, no annotation value
	}
	for _, c := range cases {
		if got := PayoutUSD(c.invest, c.cents); got != c.want {
			t.Errorf("PayoutUSD(%v, %v) = %v, want %v", c.invest, c.cents, got, c.want)
		}
	}
}

func TestButtonRestyle_CorrectsSecondPriceOnly(t *testing.T) {
	p := &fakePage{
		onEval: func(js string, args ...any) (string, error) {
			if js == readBuyPricesScript {
				return `[34, 67]`, nil // labels drifted apart mid-render
			}
			return `2`, nil
		},
	}
	env := testEnv(p)
	ButtonRestyle().Apply(context.Background(), env)

	if len(p.evals) != 2 {
		t.Fatalf("evals = %d, want read + apply", len(p.evals))
	}
	apply := p.evals[1]
	if apply.js != applyButtonStyleScript {
		t.Fatal("second eval is not the apply script")
	}
	// First arg is the corrected second price; the first price is never sent,
	// so the script cannot touch it.
	if got := apply.args[0]; got != "66" {
		t.Fatalf("corrected second price = %v, want %q", got, "66")
	}
}

func TestButtonRestyle_PayoutAnnotations(t *testing.T) {
	p := &fakePage{
		onEval: func(js string, args ...any) (string, error) {
			if js == readBuyPricesScript {
				return `[40, 60]`, nil
			}
			return `2`, nil
		},
	}
	env := testEnv(p)
	env.InvestmentUSD = 100
	ButtonRestyle().Apply(context.Background(), env)

	apply := p.evals[1]
	notes, ok := apply.args[1].([]string)
	if !ok || len(notes) != 2 {
		t.Fatalf("annotations = %v", apply.args[1])
	}
	if notes[0] != "$100 → $250" {
		t.Errorf("first annotation = %q", notes[0])
	}
	if notes[1] != "$100 → $167" { // corrected second price 60¢: 100/0.6 rounds to 167
		t.Errorf("second annotation = %q", notes[1])
	}
}

func TestButtonRestyle_SingleBuyButtonNoCorrection(t *testing.T) {
	p := &fakePage{
		onEval: func(js string, args ...any) (string, error) {
			if js == readBuyPricesScript {
				return `[34]`, nil
			}
			return `1`, nil
		},
	}
	ButtonRestyle().Apply(context.Background(), testEnv(p))

	if got := p.evals[1].args[0]; got != nil {
		t.Fatalf("corrected price = %v, want nil for a single affordance", got)
	}
}

func TestWatermarkInjection_Modes(t *testing.T) {
	// none: nothing is evaluated, so no overlay node can exist.
	p := &fakePage{}
	env := testEnv(p)
	env.Watermark = "none"
	WatermarkInjection().Apply(context.Background(), env)
	if len(p.evals) != 0 {
		t.Fatalf("watermark=none evaluated %d scripts, want 0", len(p.evals))
	}

	// icon: the overlay script runs with the fixed id and the icon mark.
	p = &fakePage{}
	env = testEnv(p)
	env.Watermark = "icon"
	WatermarkInjection().Apply(context.Background(), env)
	if len(p.evals) != 1 || p.evals[0].js != watermarkScript {
		t.Fatal("watermark=icon did not run the overlay script")
	}
	if p.evals[0].args[0] != watermarkID {
		t.Fatalf("overlay id = %v, want %q", p.evals[0].args[0], watermarkID)
	}
	if svg := p.evals[0].args[1].(string); !strings.Contains(svg, "<rect") {
		t.Fatal("icon mode did not pass the icon mark")
	}
}

func TestTimeRangeSelection_SyntheticFallback(t *testing.T) {
	p := &fakePage{
		onEval: func(js string, args ...any) (string, error) {
			switch js {
			case rangeAppliedScript:
				return `false`, nil
			case syntheticClickScript:
				return `true`, nil
			}
			return `null`, nil
		},
		onClick: func(js string, args ...any) error {
			return errors.New("element covered")
		},
	}
	env := testEnv(p)
	env.TimeRange = "6h"
	TimeRangeSelection().Apply(context.Background(), env)

	if len(p.clicks) != 1 {
		t.Fatalf("native clicks = %d, want 1 attempt", len(p.clicks))
	}
	var sawSynthetic bool
	for _, e := range p.evals {
		if e.js == syntheticClickScript {
			sawSynthetic = true
		}
	}
	if !sawSynthetic {
		t.Fatal("native click failure did not fall back to synthetic dispatch")
	}
	if !env.TimeRangeChanged {
		t.Fatal("TimeRangeChanged not set after click")
	}
	if len(p.polls) != 1 {
		t.Fatalf("re-render polls = %d, want 1", len(p.polls))
	}
}

func TestTimeRangeSelection_AlreadySelected(t *testing.T) {
	p := &fakePage{
		onEval: func(js string, args ...any) (string, error) { return `true`, nil },
	}
	env := testEnv(p)
	env.TimeRange = "1d"
	TimeRangeSelection().Apply(context.Background(), env)

	if len(p.clicks) != 0 || env.TimeRangeChanged {
		t.Fatal("selected range should not be re-clicked")
	}
}

func TestRules_ScriptsGuardOnMarkers(t *testing.T) {
	// Every mutating pass must check an applied marker (or remove-by-fixed-id)
	// before inserting nodes, so double application is structurally a no-op.
	guarded := map[string]string{
		"chrome_removal":      "data-pmshot-chrome",
		"header_restyle":      "data-pmshot-header",
		"banner_removal":      "data-pmshot-banner",
		"outcome_filter":      "data-pmshot-outcome",
		"event_cta":           "pmshot-trade-cta",
		"watermark_injection": "getElementById(id)?.remove()",
	}
	for _, r := range append(Base(), OutcomeFilter(), EventCTA()) {
		marker, ok := guarded[r.Name]
		if !ok {
			continue
		}
		found := false
		for _, s := range r.scripts {
			if strings.Contains(s, marker) {
				found = true
			}
		}
		if !found {
			t.Errorf("rule %s: no idempotency marker %q in its scripts", r.Name, marker)
		}
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a, b := Fingerprint(), Fingerprint()
	if a != b {
		t.Fatalf("fingerprint not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "rules-") || len(a) != len("rules-")+16 {
		t.Fatalf("unexpected fingerprint shape %q", a)
	}
}

func TestApply_SwallowsDegradations(t *testing.T) {
	p := &fakePage{
		onEval: func(js string, args ...any) (string, error) {
			return "", errors.New("selector vanished")
		},
	}
	// Must not panic or propagate; missing optional elements never fail the
	// pipeline.
	ChromeRemoval().Apply(context.Background(), testEnv(p))
}
