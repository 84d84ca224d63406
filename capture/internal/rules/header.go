package rules

import "context"

// headerRestyleScript enlarges the title block to export-resolution sizes.
// The live page serves mobile-tuned sizing; a 2x capture of that reads tiny
// in a social feed, so the title, market icon, brand mark, and delta
// indicator all get fixed pixel sizes here.
const headerRestyleScript = `() => {
	if (document.documentElement.hasAttribute('data-pmshot-header')) return false;
	document.documentElement.setAttribute('data-pmshot-header', '1');

	const title = document.querySelector('h1') ||
		document.querySelector('[class*="market"] [class*="title"]');
	if (title) {
		title.style.fontSize = '34px';
		title.style.lineHeight = '1.2';
		title.style.fontWeight = '700';
	}

	const icon = title && (title.parentElement.querySelector('img') ||
		title.closest('[class*="header"]')?.querySelector('img'));
	if (icon) {
		icon.style.width = '56px';
		icon.style.height = '56px';
		icon.style.borderRadius = '8px';
	}

	const brand = document.querySelector('a[href="/"] svg, [class*="logo"] svg');
	if (brand) {
		brand.style.width = '140px';
		brand.style.height = 'auto';
	}

	const delta = document.querySelector('[class*="delta"], [class*="change"]');
	if (delta) delta.style.fontSize = '20px';

	return !!title;
}`

// HeaderRestyle sizes the title block for export resolution.
func HeaderRestyle() Rule {
	return Rule{
		Name:    "header_restyle",
		scripts: []string{headerRestyleScript},
		run: func(ctx context.Context, env *Env) error {
			return evalDiscard(ctx, env, headerRestyleScript)
		},
	}
}
