// Package rules is the ordered catalog of DOM-transformation passes that turn
// a live Polymarket page into the export layout. Every pass is idempotent:
// its script checks an "already applied" marker before inserting or resizing
// anything, so re-running a rule on identical DOM state is a structural no-op.
//
// Rules tolerate missing targets. Polymarket ships markup changes without
// notice, so a pass that finds nothing logs and moves on; absence of an
// optional element never fails a capture.
package rules

import (
	"context"
	"log/slog"
	"time"

	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/browser"
)

// All passes stamp mutated nodes with data-pmshot-* marker attributes (or use
// fixed element ids) so a repeat invocation skips them.

// Env carries the per-request knobs and the page handle through a rule run.
// One Env lives for exactly one capture; rules may record findings on it for
// the orchestrator (e.g. whether the time-range click forced a re-render).
type Env struct {
	Page browser.Page
	Log  *slog.Logger

	TimeRange     string  // 1h | 6h | 1d | 1w | 1m | max
	Watermark     string  // none | wordmark | icon
	InvestmentUSD float64 // > 0 appends the payout annotation
	DebugLayout   bool

	// Nested-outcome focus, set by the orchestrator from the page-mode
	// decision before the mode-specific passes run.
	OutcomeLabel string
	OutcomeIndex int

	// TimeRangeChanged is set by TimeRangeSelection when its click observably
	// re-rendered the chart; the orchestrator re-applies axis and watermark
	// passes afterwards.
	TimeRangeChanged bool
}

// Rule is one named, idempotent mutation pass.
type Rule struct {
	Name    string
	scripts []string // every JS source the rule evaluates; fingerprint input
	run     func(ctx context.Context, env *Env) error
}

// Apply runs the rule. Failures are degradations, not errors: the pipeline is
// tuned to one site's markup and prefers a lower-fidelity image over no image,
// so errors are logged and swallowed here.
func (r Rule) Apply(ctx context.Context, env *Env) {
	if err := r.run(ctx, env); err != nil {
		env.Log.Warn("rules: pass degraded", "rule", r.Name, "error", err)
	}
}

// Base returns the passes applied to every capture, in pipeline order.
func Base() []Rule {
	return []Rule{
		ChromeRemoval(),
		HeaderRestyle(),
		AxisRestyle(),
		ButtonRestyle(),
		WatermarkInjection(),
		TimeRangeSelection(),
		BannerRemoval(),
	}
}

// evalDiscard runs a mutation script whose return value is only diagnostic.
func evalDiscard(ctx context.Context, env *Env, js string, args ...any) error {
	_, err := env.Page.Eval(ctx, js, args...)
	return err
}

// sleepCtx waits d or until ctx is done. Used only where the page injects
// content asynchronously with no observable predicate to poll (the promo
// banner); everything else in the pipeline polls a DOM condition instead.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// boundedCtx derives a child context for one in-rule wait.
func boundedCtx(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(ctx, d)
}
