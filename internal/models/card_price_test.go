package models

import (
	"testing"
	"time"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		input    string
		expected Currency
	}{
		{"USD", CurrencyUSD},
		{"usd", CurrencyUSD},
		{"AUD", CurrencyAUD},
		{" aud ", CurrencyAUD},
		{"AU", CurrencyAUD},
		{"", CurrencyUSD},
		{"EUR", CurrencyUSD}, // untracked currencies fall back to USD
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeCurrency(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeCurrency(%q) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParsePriceSource(t *testing.T) {
	tests := []struct {
		input    string
		expected PriceSource
	}{
		{"tcgplayer", SourceTCGPlayer},
		{"", SourceTCGPlayer},
		{"ebay_au", SourceEbayAU},
		{"EBAY", SourceEbayAU},
		{"unknown", SourceTCGPlayer},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParsePriceSource(tt.input); got != tt.expected {
				t.Errorf("ParsePriceSource(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCardValueIn(t *testing.T) {
	card := Card{
		PriceHistory: PriceHistory{
			TCGPlayer: TCGPlayerPrices{Market: 89.99, Low: 75, Mid: 90, High: 120},
			EbayAU:    EbaySale{LastSold: 135.50, LastSoldDate: "2024-02-15"},
		},
	}

	if got := card.ValueIn(CurrencyUSD); got != 89.99 {
		t.Errorf("ValueIn(USD) = %f, want 89.99", got)
	}
	if got := card.ValueIn(CurrencyAUD); got != 135.50 {
		t.Errorf("ValueIn(AUD) = %f, want 135.50", got)
	}

	// Absent figures count as zero
	empty := Card{}
	if got := empty.ValueIn(CurrencyUSD); got != 0 {
		t.Errorf("ValueIn(USD) on unpriced card = %f, want 0", got)
	}
}

func TestPriceHistoryObservedAt(t *testing.T) {
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	history := PriceHistory{
		TCGPlayer: TCGPlayerPrices{Market: 10, LastUpdated: &updated},
		EbayAU:    EbaySale{LastSold: 15, LastSoldDate: "2024-02-15"},
	}

	got, ok := history.ObservedAt(SourceTCGPlayer)
	if !ok || !got.Equal(updated) {
		t.Errorf("ObservedAt(tcgplayer) = %v, %v; want %v, true", got, ok, updated)
	}

	got, ok = history.ObservedAt(SourceEbayAU)
	if !ok || got.Format("2006-01-02") != "2024-02-15" {
		t.Errorf("ObservedAt(ebay_au) = %v, %v; want 2024-02-15, true", got, ok)
	}

	if _, ok := (PriceHistory{}).ObservedAt(SourceEbayAU); ok {
		t.Error("ObservedAt should report false when no sale date is known")
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cards := []Card{
		{Set: "Base", PriceHistory: PriceHistory{TCGPlayer: TCGPlayerPrices{Market: 10}, EbayAU: EbaySale{LastSold: 15}}},
		{Set: "Base", PriceHistory: PriceHistory{TCGPlayer: TCGPlayerPrices{Market: 20}}},
		{Set: "Jungle"},
	}

	stats := ComputeStats(cards, now)

	if stats.TotalCards != 3 {
		t.Errorf("TotalCards = %d, want 3", stats.TotalCards)
	}
	if stats.TotalValue[CurrencyUSD] != 30 {
		t.Errorf("TotalValue[USD] = %f, want 30", stats.TotalValue[CurrencyUSD])
	}
	if stats.TotalValue[CurrencyAUD] != 15 {
		t.Errorf("TotalValue[AUD] = %f, want 15", stats.TotalValue[CurrencyAUD])
	}
	if stats.DistinctSets != 2 {
		t.Errorf("DistinctSets = %d, want 2", stats.DistinctSets)
	}
	if !stats.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %v, want %v", stats.LastUpdated, now)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, time.Now())

	if stats.TotalCards != 0 || stats.DistinctSets != 0 {
		t.Errorf("empty collection stats = %+v, want zero counts", stats)
	}
	for _, currency := range AllCurrencies() {
		value, ok := stats.TotalValue[currency]
		if !ok || value != 0 {
			t.Errorf("TotalValue[%s] = %f (present=%v), want 0 present", currency, value, ok)
		}
	}
}

func TestCardUpdateApplyLeavesIdentityAlone(t *testing.T) {
	added := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	card := Card{ID: "abc", Name: "Pikachu", Set: "Base", AddedAt: added, Category: CategoryPokemon}

	notes := "signed"
	condition := ConditionGood
	updated := CardUpdate{Notes: &notes, Condition: &condition}.Apply(card)

	if updated.ID != "abc" || !updated.AddedAt.Equal(added) {
		t.Errorf("Apply changed identity: %+v", updated)
	}
	if updated.Notes != "signed" || updated.Condition != ConditionGood {
		t.Errorf("Apply did not merge fields: %+v", updated)
	}
	if updated.Name != "Pikachu" {
		t.Errorf("Apply changed untouched field name to %q", updated.Name)
	}
}

func TestCardUpdateFields(t *testing.T) {
	name := "Charizard"
	fields := CardUpdate{Name: &name}.Fields()

	if len(fields) != 1 || fields["name"] != "Charizard" {
		t.Errorf("Fields() = %v, want only name", fields)
	}
	if _, ok := fields["id"]; ok {
		t.Error("Fields() must never include id")
	}
}

func TestCategoryAndConditionValid(t *testing.T) {
	if !CategoryFleshAndBlood.Valid() {
		t.Error("flesh & blood should be a valid category")
	}
	if Category("digimon").Valid() {
		t.Error("digimon should not be a valid category")
	}
	if !Condition("").Valid() {
		t.Error("empty condition should be valid (ungraded)")
	}
	if Condition("played").Valid() {
		t.Error("played should not be a valid condition")
	}
}

func TestCardMatches(t *testing.T) {
	card := Card{Name: "Charizard VMAX", Set: "Darkness Ablaze"}

	for _, q := range []string{"chari", "VMAX", "darkness", "ABLAZE"} {
		if !card.Matches(q) {
			t.Errorf("Matches(%q) = false, want true", q)
		}
	}
	if card.Matches("lotus") {
		t.Error("Matches(lotus) = true, want false")
	}
}
