package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// readBuyPricesScript reads the cent prices off the two complementary trading
// affordances without touching them. Price text looks like "Buy Yes 34¢".
const readBuyPricesScript = `() => {
	const prices = [];
	for (const b of document.querySelectorAll('button')) {
		const text = (b.textContent || '').trim();
		const m = text.match(/^Buy\s+.+?([\d.]+)\s*¢/);
		if (m) prices.push(parseFloat(m[1]));
		if (prices.length === 2) break;
	}
	return prices;
}`

// applyButtonStyleScript enlarges the trading affordances to a fixed export
// height and rewrites the second price label to the corrected value. It never
// rewrites the first label; the first price is the source of truth and the
// second is derived from it.
const applyButtonStyleScript = `(secondCents, annotations) => {
	if (document.documentElement.hasAttribute('data-pmshot-buttons')) return false;
	document.documentElement.setAttribute('data-pmshot-buttons', '1');

	const buys = [];
	for (const b of document.querySelectorAll('button')) {
		if (/^Buy\s+\S/.test((b.textContent || '').trim())) buys.push(b);
		if (buys.length === 2) break;
	}

	for (const b of buys) {
		b.style.height = '64px';
		b.style.fontSize = '20px';
		b.style.fontWeight = '600';
	}

	if (buys.length === 2 && secondCents !== null) {
		const label = buys[1];
		label.innerHTML = label.innerHTML.replace(
			/([\d.]+)\s*¢/, secondCents + '¢');
	}

	if (annotations && annotations.length === buys.length) {
		for (let i = 0; i < buys.length; i++) {
			const id = 'pmshot-payout-' + i;
			document.getElementById(id)?.remove();
			const note = document.createElement('div');
			note.id = id;
			note.textContent = annotations[i];
			note.style.cssText =
				'font-size:13px;opacity:0.7;text-align:center;margin-top:4px;';
			buys[i].insertAdjacentElement('afterend', note);
		}
	}

	return buys.length;
}`

// ComplementCents returns the corrected price for the second of two
// complementary affordances so the pair sums to exactly 100.0. The first
// price is never adjusted.
func ComplementCents(firstCents float64) float64 {
	return 100 - firstCents
}

// PayoutUSD is the payout for a winning position: shares bought at priceCents
// each pay out $1. Matches the site's own rounding (to whole dollars).
func PayoutUSD(investmentUSD, priceCents float64) float64 {
	if priceCents <= 0 {
		return 0
	}
	return math.Round(investmentUSD / (priceCents / 100))
}

func formatCents(c float64) string {
	if c == math.Trunc(c) {
		return fmt.Sprintf("%.0f", c)
	}
	return fmt.Sprintf("%.1f", c)
}

// ButtonRestyle enlarges trading affordances, corrects the complementary
// price pair, and optionally appends the investment → payout annotation.
func ButtonRestyle() Rule {
	return Rule{
		Name:    "button_restyle",
		scripts: []string{readBuyPricesScript, applyButtonStyleScript},
		run: func(ctx context.Context, env *Env) error {
			raw, err := env.Page.Eval(ctx, readBuyPricesScript)
			if err != nil {
				return err
			}
			var prices []float64
			if err := json.Unmarshal(raw, &prices); err != nil {
				return fmt.Errorf("rules: button_restyle: decode prices: %w", err)
			}

			var second any // null when there is no complementary pair
			if len(prices) == 2 {
				second = formatCents(ComplementCents(prices[0]))
			}

			var annotations []string
			if env.InvestmentUSD > 0 && len(prices) == 2 {
				corrected := ComplementCents(prices[0])
				annotations = []string{
					fmt.Sprintf("$%.0f → $%.0f", env.InvestmentUSD, PayoutUSD(env.InvestmentUSD, prices[0])),
					fmt.Sprintf("$%.0f → $%.0f", env.InvestmentUSD, PayoutUSD(env.InvestmentUSD, corrected)),
				}
			}

			return evalDiscard(ctx, env, applyButtonStyleScript, second, annotations)
		},
	}
}
