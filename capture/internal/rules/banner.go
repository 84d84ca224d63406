package rules

import (
	"context"
	"time"
)

// bannerRemovalScript hides promo banners. Removal is surgical: when a banner
// shares a container with trading affordances, only the banner subtree is
// hidden, never the shared container.
const bannerRemovalScript = `() => {
	let hidden = 0;
	const candidates = document.querySelectorAll(
		'[class*="banner"], [class*="promo"], [class*="announcement"]');
	for (const el of candidates) {
		if (el.hasAttribute('data-pmshot-banner')) continue;

		// Never hide an ancestor of the buy buttons.
		let containsTrading = false;
		for (const b of el.querySelectorAll('button')) {
			if (/^Buy\s+\S/.test((b.textContent || '').trim())) { containsTrading = true; break; }
		}
		if (containsTrading) continue;

		el.setAttribute('data-pmshot-banner', '1');
		el.style.setProperty('display', 'none', 'important');
		hidden++;
	}
	return hidden;
}`

// bannerSettleDelay is how long the second pass waits for the banner that the
// page injects asynchronously after load. There is no DOM predicate to poll
// for a banner that may never arrive, so this one wait stays time-based.
const bannerSettleDelay = 700 * time.Millisecond

// BannerRemoval hides promo banners in two passes: one immediate, one after a
// short delay to catch late async injection.
func BannerRemoval() Rule {
	return Rule{
		Name:    "banner_removal",
		scripts: []string{bannerRemovalScript},
		run: func(ctx context.Context, env *Env) error {
			if err := evalDiscard(ctx, env, bannerRemovalScript); err != nil {
				return err
			}
			if err := sleepCtx(ctx, bannerSettleDelay); err != nil {
				return err
			}
			return evalDiscard(ctx, env, bannerRemovalScript)
		},
	}
}
