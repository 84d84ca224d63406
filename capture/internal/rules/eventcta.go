package rules

import "context"

// TradeCTAHeightPx is the fixed height of the bottom "Trade" call-to-action
// appended in multi-outcome mode. The layout fitter sizes the capture
// viewport to contentBottom + this height so the CTA sits flush at the
// bottom edge with no forced whitespace.
const TradeCTAHeightPx = 72

const tradeCTAID = "pmshot-trade-cta"

// eventCTAScript is the MultiOutcomeEvent mode pass: the individual outcome
// rows are hidden (the chart legend already tells the story) and one
// full-width Trade CTA is fixed to the bottom of the viewport.
const eventCTAScript = `(ctaHeight) => {
	if (document.getElementById('pmshot-trade-cta')) return false;

	const rows = document.querySelectorAll(
		'[class*="market-group"] [class*="row"], [data-outcome]');
	for (const row of rows) {
		if (row.hasAttribute('data-pmshot-hidden')) continue;
		row.setAttribute('data-pmshot-hidden', '1');
		row.style.setProperty('display', 'none', 'important');
	}

	const cta = document.createElement('div');
	cta.id = 'pmshot-trade-cta';
	cta.textContent = 'Trade';
	cta.style.cssText =
		'position:fixed;left:0;right:0;bottom:0;height:' + ctaHeight + 'px;' +
		'display:flex;align-items:center;justify-content:center;' +
		'background:#2d9cdb;color:#fff;font-size:24px;font-weight:700;z-index:20;';
	document.body.appendChild(cta);
	return true;
}`

// EventCTA hides the outcome rows and pins a full-width Trade CTA to the
// bottom of the page.
func EventCTA() Rule {
	return Rule{
		Name:    "event_cta",
		scripts: []string{eventCTAScript},
		run: func(ctx context.Context, env *Env) error {
			return evalDiscard(ctx, env, eventCTAScript, TradeCTAHeightPx)
		},
	}
}
