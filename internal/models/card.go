package models

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryPokemon       Category = "pokemon"
	CategoryMagic         Category = "magic"
	CategoryYugioh        Category = "yugioh"
	CategoryFleshAndBlood Category = "flesh & blood"
)

// AllCategories returns every supported card category
func AllCategories() []Category {
	return []Category{
		CategoryPokemon,
		CategoryMagic,
		CategoryYugioh,
		CategoryFleshAndBlood,
	}
}

// Valid reports whether c is one of the supported categories
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

type Condition string

const (
	ConditionMint      Condition = "mint"
	ConditionNearMint  Condition = "near_mint"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionPoor      Condition = "poor"
)

// AllConditions returns every condition grade, best first
func AllConditions() []Condition {
	return []Condition{
		ConditionMint,
		ConditionNearMint,
		ConditionExcellent,
		ConditionGood,
		ConditionPoor,
	}
}

// Valid reports whether c is a known grade. The empty condition is valid
// because grading is optional.
func (c Condition) Valid() bool {
	if c == "" {
		return true
	}
	for _, known := range AllConditions() {
		if c == known {
			return true
		}
	}
	return false
}

// Card is one collectible an owner has catalogued.
// ID and AddedAt are assigned on creation and never change afterwards.
type Card struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Set          string       `json:"set"`
	Number       string       `json:"number,omitempty"`
	Rarity       string       `json:"rarity,omitempty"`
	ImageURL     string       `json:"image_url"`
	Category     Category     `json:"category"`
	Condition    Condition    `json:"condition,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	AddedAt      time.Time    `json:"added_at"`
	PriceHistory PriceHistory `json:"price_history"`
}

// Matches reports whether the card's name or set contains query, ignoring case
func (c *Card) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.Set), q)
}
