package rules

import "context"

// outcomeFilterScript focuses a multi-outcome page on one outcome: every
// other outcome card is hidden, the target card's price and label are
// enlarged to a fixed scale, and the chart legend is reduced to the target
// series by toggling the other legend entries off.
const outcomeFilterScript = `(label, index) => {
	if (document.documentElement.hasAttribute('data-pmshot-outcome')) return false;
	document.documentElement.setAttribute('data-pmshot-outcome', '1');

	const rows = document.querySelectorAll(
		'[class*="market-group"] [class*="row"], [data-outcome], [class*="outcome"][class*="card"]');
	let kept = null;
	let i = 0;
	for (const row of rows) {
		const text = (row.textContent || '').trim();
		const match = label ? text.includes(label) : i === index;
		if (match && !kept) {
			kept = row;
		} else {
			row.setAttribute('data-pmshot-hidden', '1');
			row.style.setProperty('display', 'none', 'important');
		}
		i++;
	}

	if (kept) {
		const price = kept.querySelector('[class*="price"], [class*="percent"]');
		if (price) { price.style.fontSize = '32px'; price.style.fontWeight = '700'; }
		const name = kept.querySelector('p, [class*="title"]');
		if (name) { name.style.fontSize = '22px'; name.style.fontWeight = '600'; }
		const avatar = kept.querySelector('img');
		if (avatar) { avatar.style.width = '44px'; avatar.style.height = '44px'; }
	}

	// Single-series chart: click the other legend entries off.
	const legend = document.querySelectorAll('[class*="legend"] [class*="item"]');
	for (const item of legend) {
		const text = (item.textContent || '').trim();
		if (label && !text.includes(label) && !item.hasAttribute('data-pmshot-legend-off')) {
			item.setAttribute('data-pmshot-legend-off', '1');
			item.dispatchEvent(new MouseEvent('click', {bubbles: true}));
		}
	}

	return !!kept;
}`

// OutcomeFilter is the NestedOutcome mode pass: hide the other outcomes and
// enlarge the focused one. The target comes from Env (OutcomeLabel/Index),
// resolved earlier by the page-mode decision.
func OutcomeFilter() Rule {
	return Rule{
		Name:    "outcome_filter",
		scripts: []string{outcomeFilterScript},
		run: func(ctx context.Context, env *Env) error {
			return evalDiscard(ctx, env, outcomeFilterScript, env.OutcomeLabel, env.OutcomeIndex)
		},
	}
}
