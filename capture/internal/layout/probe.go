// Package layout measures the transformed page and reconciles its
// variable-height content stack against the fixed export canvas.
//
// The probe is strictly read-only; a Snapshot is valid only until the next
// DOM-mutating pass runs and is never reused across that boundary. The fitter
// consumes one Snapshot, produces one FitPlan, and the plan is applied
// exactly once before capture.
package layout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/browser"
)

// Rect is an element's viewport-relative bounding box.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Bottom() float64 { return r.Y + r.H }
func (r Rect) Zero() bool      { return r.W == 0 && r.H == 0 }

// Snapshot holds the named region rectangles from one probe pass, plus the
// chip geometry needed by the chip-strip heuristic.
type Snapshot struct {
	Title  Rect `json:"title"`
	Chart  Rect `json:"chartContainer"`
	Buy    Rect `json:"buyButtonsContainer"`
	Volume Rect `json:"volumeRow"`
	Chips  Rect `json:"dateChipsRow"`

	// ChipHeights are the individual chip element heights inside the chip
	// row, used to validate chip-likeness (24-44px each).
	ChipHeights []float64 `json:"chipHeights"`

	// ContentBottom is the lowest visible edge of the market card content,
	// the multi-outcome viewport tunable.
	ContentBottom float64 `json:"contentBottom"`

	// ViewportHeight is the current emulated viewport height.
	ViewportHeight float64 `json:"viewportHeight"`
}

// probeScript resolves each region through its ranked strategies (first match
// wins) and measures it. For the buy region, the nearest fixed-position
// ancestor is measured when one exists, since that is the box the fitter must
// avoid overlapping.
const probeScript = `(regions) => {
	const find = (strategies) => {
		for (const s of strategies) {
			for (const el of document.querySelectorAll(s.selector)) {
				if (el.closest('[data-pmshot-hidden]')) continue;
				if (s.contains && !(el.textContent || '').includes(s.contains)) continue;
				return el;
			}
		}
		return null;
	};
	const rect = (el) => {
		if (!el) return {x: 0, y: 0, w: 0, h: 0};
		const r = el.getBoundingClientRect();
		return {x: r.x, y: r.y, w: r.width, h: r.height};
	};

	const out = {viewportHeight: window.innerHeight, chipHeights: []};
	let contentBottom = 0;

	for (const entry of regions) {
		let el = find(entry.strategies);

		if (entry.region === 'buyButtonsContainer' && el) {
			// Measure the fixed-position ancestor if the buttons sit in one.
			let anc = el;
			while (anc && anc !== document.body) {
				if (getComputedStyle(anc).position === 'fixed') { el = anc; break; }
				anc = anc.parentElement;
			}
			el = el.closest('[class*="trade"], form') || el;
		}

		if (entry.region === 'dateChipsRow' && el) {
			// The chip row is the parent holding the chip elements.
			const row = el.parentElement || el;
			for (const chip of row.children) {
				out.chipHeights.push(chip.getBoundingClientRect().height);
			}
			el = row;
		}

		const r = rect(el);
		out[entry.region] = r;
		if (el && r.y + r.h > contentBottom && r.h > 0) contentBottom = r.y + r.h;
	}

	out.contentBottom = contentBottom;
	return out;
}`

// Probe measures the named regions. Read-only; safe to call repeatedly, but
// the result is stale as soon as any rule mutates the DOM.
func Probe(ctx context.Context, page browser.Page) (Snapshot, error) {
	raw, err := page.Eval(ctx, probeScript, strategiesArg())
	if err != nil {
		return Snapshot{}, fmt.Errorf("layout: probe: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("layout: decode snapshot: %w", err)
	}
	return snap, nil
}

// debugOutlineScript draws translucent outlines around the probed regions,
// for the debug-layout capture mode.
const debugOutlineScript = `(rects) => {
	document.getElementById('pmshot-debug')?.remove();
	const host = document.createElement('div');
	host.id = 'pmshot-debug';
	for (const [name, r] of Object.entries(rects)) {
		if (!r || !r.w) continue;
		const box = document.createElement('div');
		box.style.cssText = 'position:fixed;pointer-events:none;z-index:99;' +
			'border:2px dashed rgba(255,0,128,0.7);' +
			'left:' + r.x + 'px;top:' + r.y + 'px;width:' + r.w + 'px;height:' + r.h + 'px;';
		const tag = document.createElement('span');
		tag.textContent = name;
		tag.style.cssText = 'font-size:10px;background:rgba(255,0,128,0.7);color:#fff;';
		box.appendChild(tag);
		host.appendChild(box);
	}
	document.body.appendChild(host);
	return true;
}`

// DrawDebugOutlines overlays the snapshot's rectangles on the page.
func DrawDebugOutlines(ctx context.Context, page browser.Page, snap Snapshot) error {
	rects := map[string]Rect{
		string(RegionTitle):  snap.Title,
		string(RegionChart):  snap.Chart,
		string(RegionBuy):    snap.Buy,
		string(RegionVolume): snap.Volume,
		string(RegionChips):  snap.Chips,
	}
	if _, err := page.Eval(ctx, debugOutlineScript, rects); err != nil {
		return fmt.Errorf("layout: debug outlines: %w", err)
	}
	return nil
}
