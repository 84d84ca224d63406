package layout

// Region names the logical page regions the fitter reasons about.
type Region string

const (
	RegionTitle  Region = "title"
	RegionChart  Region = "chartContainer"
	RegionBuy    Region = "buyButtonsContainer"
	RegionVolume Region = "volumeRow"
	RegionChips  Region = "dateChipsRow"
	RegionLegend Region = "legend"
)

// Strategy is one way of locating a region: a CSS selector, optionally
// narrowed by a text predicate the element's content must contain.
type Strategy struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
	Contains string `json:"contains,omitempty"`
}

// Locators is the ranked strategy table. Per region, strategies are tried in
// order and the first match wins. Keeping this as data (rather than selector
// literals scattered through scripts) makes the ranking testable and the
// site-markup churn a one-table fix.
var Locators = map[Region][]Strategy{
	RegionTitle: {
		{Name: "h1", Selector: "h1"},
		{Name: "market-title-class", Selector: `[class*="market"] [class*="title"]`},
	},
	RegionChart: {
		{Name: "chart-class", Selector: `[class*="chart"]`},
		{Name: "svg-parent", Selector: "svg"},
	},
	RegionBuy: {
		{Name: "buy-button-text", Selector: "button", Contains: "Buy "},
		{Name: "trade-panel-class", Selector: `[class*="trade"] button`},
	},
	RegionVolume: {
		{Name: "volume-text", Selector: "p, span", Contains: "Vol."},
		{Name: "volume-class", Selector: `[class*="volume"]`},
	},
	RegionChips: {
		{Name: "chip-row-class", Selector: `[class*="chip"]`},
		{Name: "pill-row-class", Selector: `[class*="pill"]`},
	},
	RegionLegend: {
		{Name: "legend-class", Selector: `[class*="legend"]`},
	},
}

// strategiesArg flattens the table into the JSON shape the probe script
// consumes: ordered {region, strategies} pairs.
func strategiesArg() []map[string]any {
	regions := []Region{RegionTitle, RegionChart, RegionBuy, RegionVolume, RegionChips, RegionLegend}
	out := make([]map[string]any, 0, len(regions))
	for _, r := range regions {
		out = append(out, map[string]any{
			"region":     string(r),
			"strategies": Locators[r],
		})
	}
	return out
}
