package models

import (
	"strings"
	"time"
)

// CollectionStats is derived from an owner's full card set; it is only ever
// produced by folding over the cards, never edited directly.
type CollectionStats struct {
	TotalCards   int                  `json:"total_cards"`
	TotalValue   map[Currency]float64 `json:"total_value"`
	DistinctSets int                  `json:"distinct_sets"`
	LastUpdated  time.Time            `json:"last_updated"`
}

// ComputeStats folds a card set into statistics stamped with now
func ComputeStats(cards []Card, now time.Time) CollectionStats {
	stats := CollectionStats{
		TotalCards:  len(cards),
		TotalValue:  make(map[Currency]float64, len(AllCurrencies())),
		LastUpdated: now,
	}
	for _, currency := range AllCurrencies() {
		stats.TotalValue[currency] = 0
	}

	sets := make(map[string]struct{})
	for i := range cards {
		for _, currency := range AllCurrencies() {
			stats.TotalValue[currency] += cards[i].ValueIn(currency)
		}
		sets[cards[i].Set] = struct{}{}
	}
	stats.DistinctSets = len(sets)

	return stats
}

// NewCard is a card as supplied by the caller, before the store assigns
// its id and added-at timestamp
type NewCard struct {
	Name         string       `json:"name"`
	Set          string       `json:"set"`
	Number       string       `json:"number"`
	Rarity       string       `json:"rarity"`
	ImageURL     string       `json:"image_url"`
	Category     Category     `json:"category"`
	Condition    Condition    `json:"condition"`
	Notes        string       `json:"notes"`
	PriceHistory PriceHistory `json:"price_history"`
}

// CardUpdate carries the fields to merge into an existing card.
// Nil fields are left untouched; id and added_at cannot be changed.
type CardUpdate struct {
	Name         *string       `json:"name"`
	Set          *string       `json:"set"`
	Number       *string       `json:"number"`
	Rarity       *string       `json:"rarity"`
	ImageURL     *string       `json:"image_url"`
	Category     *Category     `json:"category"`
	Condition    *Condition    `json:"condition"`
	Notes        *string       `json:"notes"`
	PriceHistory *PriceHistory `json:"price_history"`
}

// Fields returns the update as top-level JSON fields for a shallow merge
// Trimmed returns the update with surrounding whitespace removed from name
// and set, matching how new cards are stored
func (u CardUpdate) Trimmed() CardUpdate {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
	}
	if u.Set != nil {
		set := strings.TrimSpace(*u.Set)
		u.Set = &set
	}
	return u
}

func (u CardUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Set != nil {
		fields["set"] = *u.Set
	}
	if u.Number != nil {
		fields["number"] = *u.Number
	}
	if u.Rarity != nil {
		fields["rarity"] = *u.Rarity
	}
	if u.ImageURL != nil {
		fields["image_url"] = *u.ImageURL
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	if u.Condition != nil {
		fields["condition"] = *u.Condition
	}
	if u.Notes != nil {
		fields["notes"] = *u.Notes
	}
	if u.PriceHistory != nil {
		fields["price_history"] = *u.PriceHistory
	}
	return fields
}

// Apply merges the update into a copy of card
func (u CardUpdate) Apply(card Card) Card {
	if u.Name != nil {
		card.Name = *u.Name
	}
	if u.Set != nil {
		card.Set = *u.Set
	}
	if u.Number != nil {
		card.Number = *u.Number
	}
	if u.Rarity != nil {
		card.Rarity = *u.Rarity
	}
	if u.ImageURL != nil {
		card.ImageURL = *u.ImageURL
	}
	if u.Category != nil {
		card.Category = *u.Category
	}
	if u.Condition != nil {
		card.Condition = *u.Condition
	}
	if u.Notes != nil {
		card.Notes = *u.Notes
	}
	if u.PriceHistory != nil {
		card.PriceHistory = *u.PriceHistory
	}
	return card
}

// AddCardResponse is returned after a card is added
type AddCardResponse struct {
	ID string `json:"id"`
}
