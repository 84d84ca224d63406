package rules

import "context"

// axisRestyleScript forces chart tick labels to be visible and readable at
// export size, and nudges the leftmost time-axis label inward so it is not
// clipped by the chart edge. Re-runnable: the chart re-renders after a
// time-range change and drops the inline styles, so this pass keys its marker
// on the tick nodes rather than the document.
const axisRestyleScript = `() => {
	const ticks = document.querySelectorAll(
		'svg [class*="tick"] text, svg text[class*="axis"], [class*="chart"] svg text');
	let styled = 0;
	for (const t of ticks) {
		if (t.hasAttribute('data-pmshot-axis')) continue;
		t.setAttribute('data-pmshot-axis', '1');
		t.style.setProperty('visibility', 'visible', 'important');
		t.style.setProperty('opacity', '1', 'important');
		t.style.setProperty('font-size', '13px', 'important');
		styled++;
	}

	// Leftmost time label hugs x=0 and gets clipped; anchoring it start-side
	// and shifting it right keeps it inside the plot.
	let leftmost = null;
	for (const t of ticks) {
		const x = t.getBoundingClientRect().left;
		if (t.textContent.trim() && (!leftmost || x < leftmost.getBoundingClientRect().left)) {
			leftmost = t;
		}
	}
	if (leftmost && !leftmost.hasAttribute('data-pmshot-axis-shift')) {
		leftmost.setAttribute('data-pmshot-axis-shift', '1');
		leftmost.setAttribute('text-anchor', 'start');
		leftmost.setAttribute('dx', '4');
	}

	return styled;
}`

// AxisRestyle makes chart tick labels legible and unclipped.
func AxisRestyle() Rule {
	return Rule{
		Name:    "axis_restyle",
		scripts: []string{axisRestyleScript},
		run: func(ctx context.Context, env *Env) error {
			return evalDiscard(ctx, env, axisRestyleScript)
		},
	}
}
