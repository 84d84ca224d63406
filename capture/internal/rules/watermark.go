package rules

import "context"

// watermarkID is the fixed overlay id. Removal-before-insert keyed on this id
// makes repeat injection structurally a no-op.
const watermarkID = "pmshot-watermark"

// Inline brand marks, sized for the chart overlay. The wordmark is the full
// logotype; the icon is the mark alone.
const (
	wordmarkSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 280 48" width="280" height="48"><text x="0" y="36" font-family="Inter,Helvetica,sans-serif" font-size="34" font-weight="700" fill="currentColor">Polymarket</text></svg>`
	iconSVG     = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 48 48" width="96" height="96"><rect x="4" y="4" width="40" height="40" rx="8" fill="none" stroke="currentColor" stroke-width="4"/><path d="M14 32 L24 16 L34 32" fill="none" stroke="currentColor" stroke-width="4" stroke-linecap="round" stroke-linejoin="round"/></svg>`
)

// watermarkScript centers a low-opacity brand mark over the chart container.
// Any prior overlay with the same id is removed first.
const watermarkScript = `(id, svg) => {
	document.getElementById(id)?.remove();

	const chart = document.querySelector('[class*="chart"]') ||
		document.querySelector('svg')?.closest('div');
	if (!chart) return false;

	if (getComputedStyle(chart).position === 'static') {
		chart.style.position = 'relative';
	}

	const mark = document.createElement('div');
	mark.id = id;
	mark.innerHTML = svg;
	mark.style.cssText =
		'position:absolute;top:50%;left:50%;transform:translate(-50%,-50%);' +
		'opacity:0.12;pointer-events:none;z-index:10;color:currentColor;';
	chart.appendChild(mark);
	return true;
}`

// removeWatermarkScript strips the overlay, for watermark mode "none" after a
// re-render re-applied passes.
const removeWatermarkScript = `(id) => {
	const el = document.getElementById(id);
	if (el) { el.remove(); return true; }
	return false;
}`

// WatermarkInjection overlays the brand mark requested by the capture. Mode
// "none" evaluates nothing, so no overlay node ever exists.
func WatermarkInjection() Rule {
	return Rule{
		Name:    "watermark_injection",
		scripts: []string{watermarkScript, removeWatermarkScript},
		run: func(ctx context.Context, env *Env) error {
			switch env.Watermark {
			case "", "none":
				return nil
			case "icon":
				return evalDiscard(ctx, env, watermarkScript, watermarkID, iconSVG)
			default: // wordmark
				return evalDiscard(ctx, env, watermarkScript, watermarkID, wordmarkSVG)
			}
		},
	}
}
