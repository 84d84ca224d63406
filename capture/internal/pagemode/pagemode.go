// Package pagemode classifies a loaded Polymarket page. The classifier works
// from observed structure, not the URL: a grouped URL can still render a
// plain single-market layout, so the URL alone would misroute the rule set.
package pagemode

import (
	"strings"
)

// Mode selects the rule subset and fit strategy for a capture.
type Mode int

const (
	// SingleMarket is a page with direct Yes/No style buy affordances.
	SingleMarket Mode = iota + 1
	// MultiOutcomeEvent is a grouped event rendering a legend of outcomes.
	MultiOutcomeEvent
	// NestedOutcome is a multi-outcome event focused on one outcome.
	NestedOutcome
)

func (m Mode) String() string {
	switch m {
	case SingleMarket:
		return "single_market"
	case MultiOutcomeEvent:
		return "multi_outcome_event"
	case NestedOutcome:
		return "nested_outcome"
	default:
		return "unknown"
	}
}

// LegendEntry is one outcome row observed in the chart legend.
type LegendEntry struct {
	Label    string `json:"label"`
	ImageKey string `json:"imageKey"` // outcome icon URL, often embeds the slug
	Colored  bool   `json:"colored"`
}

// Observation is the structural evidence gathered from the live page by the
// probe. It is read-only and safe to inspect after DOM mutations.
type Observation struct {
	BuyAffordances int           `json:"buyAffordances"`
	Legend         []LegendEntry `json:"legend"`
}

// Decision is the resolved mode plus bookkeeping for degraded resolutions.
type Decision struct {
	Mode         Mode
	OutcomeLabel string // matched legend label, NestedOutcome only
	OutcomeIndex int    // matched legend index, NestedOutcome only
	Degraded     bool   // nested slug requested but no legend entry matched
	Ambiguous    bool   // slug matched more than one entry, first kept
}

// Decide classifies the page. Order: direct buy affordances win outright;
// then a requested nested outcome is honoured when a legend entry matches,
// degrading to the event-level layout when it does not; then a colored legend
// marks a multi-outcome event; anything else is treated as a single market.
func Decide(obs Observation, nestedSlug string) Decision {
	if obs.BuyAffordances >= 2 {
		return Decision{Mode: SingleMarket}
	}

	if nestedSlug != "" {
		if idx, ambiguous, ok := matchLegend(obs.Legend, nestedSlug); ok {
			return Decision{
				Mode:         NestedOutcome,
				OutcomeLabel: obs.Legend[idx].Label,
				OutcomeIndex: idx,
				Ambiguous:    ambiguous,
			}
		}
		return Decision{Mode: MultiOutcomeEvent, Degraded: true}
	}

	if coloredEntries(obs.Legend) > 2 {
		return Decision{Mode: MultiOutcomeEvent}
	}

	return Decision{Mode: SingleMarket}
}

func coloredEntries(legend []LegendEntry) int {
	n := 0
	for _, e := range legend {
		if e.Colored {
			n++
		}
	}
	return n
}

// matchLegend finds the legend entry for a nested outcome slug. Icon-URL
// matching is tried first because it is exact; keyword overlap against the
// labels is the fallback. Overlapping keywords can match several entries, in
// which case the first candidate is kept and flagged ambiguous.
func matchLegend(legend []LegendEntry, slug string) (idx int, ambiguous, ok bool) {
	slug = strings.ToLower(slug)

	for i, e := range legend {
		if e.ImageKey != "" && strings.Contains(strings.ToLower(e.ImageKey), slug) {
			return i, false, true
		}
	}

	keywords := slugKeywords(slug)
	if len(keywords) == 0 {
		return 0, false, false
	}

	// Score by keyword overlap; a unique best score is a clean match, a tie
	// keeps the earliest entry and flags the ambiguity.
	best, bestScore, ties := 0, 0, 0
	for i, e := range legend {
		label := strings.ToLower(e.Label)
		score := 0
		for _, kw := range keywords {
			if strings.Contains(label, kw) {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, ties = i, score, 1
		case score == bestScore && score > 0:
			ties++
		}
	}

	if bestScore == 0 {
		return 0, false, false
	}
	return best, ties > 1, true
}

// slugKeywords splits a kebab slug into matchable tokens, dropping filler
// words too generic to identify an outcome.
func slugKeywords(slug string) []string {
	stop := map[string]bool{
		"will": true, "the": true, "a": true, "an": true, "of": true,
		"to": true, "in": true, "on": true, "for": true, "by": true,
		"and": true, "or": true, "be": true, "is": true,
	}
	var kws []string
	for _, tok := range strings.Split(slug, "-") {
		if len(tok) < 3 || stop[tok] {
			continue
		}
		kws = append(kws, tok)
	}
	return kws
}
