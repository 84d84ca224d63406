package rules

import "context"

// chromeRemovalScript hides everything around the market card: navigation,
// auth prompts, modals, comment composers, and the below-the-fold sections.
//
// Sections are located by a small fixed vocabulary of heading labels rather
// than class names, which survive Polymarket's CSS churn far better. The
// height sanity filter ([30,200]px) keeps a matched label from hiding a huge
// shared ancestor that happens to contain the text.
const chromeRemovalScript = `() => {
	if (document.documentElement.hasAttribute('data-pmshot-chrome')) return 0;
	document.documentElement.setAttribute('data-pmshot-chrome', '1');

	let hidden = 0;
	const hide = (el) => {
		if (!el || el.hasAttribute('data-pmshot-hidden')) return;
		el.setAttribute('data-pmshot-hidden', '1');
		el.style.setProperty('display', 'none', 'important');
		hidden++;
	};

	// Fixed chrome: nav bars, banners pinned to the viewport, dialogs.
	for (const sel of ['nav', 'header nav', '[role="dialog"]', '[class*="modal"]',
			'[class*="cookie"]', 'footer']) {
		for (const el of document.querySelectorAll(sel)) hide(el);
	}

	// Labelled sections below the fold. Walk up from the matched text node to
	// a container of plausible header height, then hide that container's
	// section. A container outside [30,200]px is an over-broad match.
	const vocab = ['order book', 'comments', 'top holders', 'activity',
		'related', 'about', 'resolution', 'log in', 'sign up'];
	const headers = document.querySelectorAll('h2, h3, [role="tab"], [class*="section"] > div');
	for (const h of headers) {
		const text = (h.textContent || '').trim().toLowerCase();
		if (!vocab.some((v) => text === v || text.startsWith(v))) continue;

		let box = h;
		for (let i = 0; i < 4 && box.parentElement; i++) {
			const r = box.getBoundingClientRect();
			if (r.height >= 30 && r.height <= 200) break;
			box = box.parentElement;
		}
		const r = box.getBoundingClientRect();
		if (r.height < 30 || r.height > 200) continue;

		const section = box.closest('section, [class*="section"]') || box.parentElement;
		hide(section);
	}

	return hidden;
}`

// ChromeRemoval hides page chrome and below-the-fold sections.
func ChromeRemoval() Rule {
	return Rule{
		Name:    "chrome_removal",
		scripts: []string{chromeRemovalScript},
		run: func(ctx context.Context, env *Env) error {
			return evalDiscard(ctx, env, chromeRemovalScript)
		},
	}
}
