package pagemode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/browser"
)

// observeScript collects the structural evidence Decide needs in one pass.
// Buy affordances are buttons whose visible text starts with "Buy " (the
// direct Yes/No trading controls); legend entries are the outcome rows that
// carry a color swatch next to their label.
const observeScript = `() => {
	const out = { buyAffordances: 0, legend: [] };

	for (const b of document.querySelectorAll('button')) {
		const text = (b.textContent || '').trim();
		if (/^Buy\s+\S/.test(text)) out.buyAffordances++;
	}

	const rows = document.querySelectorAll(
		'[class*="legend"] [class*="item"], [data-outcome], [class*="market-group"] [class*="row"]');
	const seen = new Set();
	for (const row of rows) {
		const label = (row.querySelector('p, span, [class*="title"]')?.textContent || '').trim();
		if (!label || seen.has(label)) continue;
		seen.add(label);
		const swatch = row.querySelector('[style*="background"], svg circle, [class*="color"]');
		const img = row.querySelector('img');
		out.legend.push({
			label: label,
			imageKey: img ? (img.currentSrc || img.src || '') : '',
			colored: !!swatch,
		});
	}

	return out;
}`

// Observe runs the read-only structural probe against the live page.
func Observe(ctx context.Context, page browser.Page) (Observation, error) {
	raw, err := page.Eval(ctx, observeScript)
	if err != nil {
		return Observation{}, fmt.Errorf("pagemode: observe: %w", err)
	}
	var obs Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return Observation{}, fmt.Errorf("pagemode: decode observation: %w", err)
	}
	return obs, nil
}
