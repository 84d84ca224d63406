package layout

import "testing"

func TestLocators_EveryRegionRanked(t *testing.T) {
	for _, region := range []Region{RegionTitle, RegionChart, RegionBuy, RegionVolume, RegionChips, RegionLegend} {
		strategies := Locators[region]
		if len(strategies) == 0 {
			t.Errorf("region %s has no locator strategies", region)
			continue
		}
		seen := map[string]bool{}
		for _, s := range strategies {
			if s.Name == "" || s.Selector == "" {
				t.Errorf("region %s: strategy missing name or selector: %+v", region, s)
			}
			if seen[s.Name] {
				t.Errorf("region %s: duplicate strategy name %q", region, s.Name)
			}
			seen[s.Name] = true
		}
	}
}

func TestStrategiesArg_PreservesRegionOrder(t *testing.T) {
	arg := strategiesArg()
	want := []string{"title", "chartContainer", "buyButtonsContainer", "volumeRow", "dateChipsRow", "legend"}
	if len(arg) != len(want) {
		t.Fatalf("regions = %d, want %d", len(arg), len(want))
	}
	for i, entry := range arg {
		if entry["region"] != want[i] {
			t.Errorf("region[%d] = %v, want %s", i, entry["region"], want[i])
		}
	}
}
