package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// findRangeTabScript returns the tab element whose text equals the requested
// range, compared lowercase-exact so "1D" matches "1d" but "1d chart" does
// not.
const findRangeTabScript = `(range) => {
	const tabs = document.querySelectorAll('[role="tab"], [class*="range"] button, [class*="time"] button');
	for (const t of tabs) {
		if ((t.textContent || '').trim().toLowerCase() === range) return t;
	}
	return null;
}`

// syntheticClickScript is the fallback when the native input click fails
// (overlapping elements, off-screen tab): dispatch a DOM click directly.
const syntheticClickScript = `(range) => {
	const tabs = document.querySelectorAll('[role="tab"], [class*="range"] button, [class*="time"] button');
	for (const t of tabs) {
		if ((t.textContent || '').trim().toLowerCase() === range) {
			t.scrollIntoView({block: 'center'});
			t.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true}));
			return true;
		}
	}
	return false;
}`

// rangeAppliedScript checks whether the requested tab is already selected.
const rangeAppliedScript = `(range) => {
	const tabs = document.querySelectorAll('[role="tab"], [class*="range"] button, [class*="time"] button');
	for (const t of tabs) {
		if ((t.textContent || '').trim().toLowerCase() !== range) continue;
		return t.getAttribute('aria-selected') === 'true' ||
			/active|selected/.test(t.className);
	}
	return false;
}`

// chartRenderedScript is the re-render predicate. Network idle does not
// guarantee the SVG repainted, so the pass polls for observable chart output:
// axis ticks or path data present.
const chartRenderedScript = `() => {
	const svg = document.querySelector('[class*="chart"] svg, svg');
	if (!svg) return false;
	if (svg.querySelectorAll('[class*="tick"] text, text').length > 0) return true;
	const path = svg.querySelector('path[d]');
	return !!(path && path.getAttribute('d').length > 10);
}`

// TimeRangeSelection clicks the requested time-range tab and waits for the
// chart to re-render. Sets Env.TimeRangeChanged so downstream passes whose
// inline styles the re-render discarded can be re-applied.
func TimeRangeSelection() Rule {
	return Rule{
		Name: "time_range_selection",
		scripts: []string{
			findRangeTabScript, syntheticClickScript,
			rangeAppliedScript, chartRenderedScript,
		},
		run: func(ctx context.Context, env *Env) error {
			if env.TimeRange == "" {
				return nil
			}
			rng := env.TimeRange

			raw, err := env.Page.Eval(ctx, rangeAppliedScript, rng)
			if err == nil {
				var selected bool
				if json.Unmarshal(raw, &selected) == nil && selected {
					return nil // already on the requested range
				}
			}

			if err := env.Page.Click(ctx, findRangeTabScript, rng); err != nil {
				env.Log.Warn("rules: native range click failed, dispatching synthetic",
					"range", rng, "error", err)
				fraw, ferr := env.Page.Eval(ctx, syntheticClickScript, rng)
				if ferr != nil {
					return ferr
				}
				var clicked bool
				if json.Unmarshal(fraw, &clicked) != nil || !clicked {
					return fmt.Errorf("rules: time_range_selection: no tab matches %q", rng)
				}
			}

			env.TimeRangeChanged = true

			// Bounded poll for visible chart output; expiry degrades (the old
			// chart is still a usable image), it does not fail the capture.
			pollCtx, cancel := boundedCtx(ctx, 8*time.Second)
			defer cancel()
			if err := env.Page.Poll(pollCtx, chartRenderedScript); err != nil {
				env.Log.Warn("rules: chart re-render not observed", "range", rng, "error", err)
			}
			return nil
		},
	}
}
