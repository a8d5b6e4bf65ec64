package models

import (
	"strings"
	"time"
)

// Currency is a currency the collection value is tracked in
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyAUD Currency = "AUD"
)

// AllCurrencies returns the tracked currencies
func AllCurrencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyAUD}
}

// NormalizeCurrency maps user input to a tracked currency.
// Returns USD for unknown/empty values.
func NormalizeCurrency(s string) Currency {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUD", "AU":
		return CurrencyAUD
	default:
		return CurrencyUSD
	}
}

// PriceSource identifies where a price figure came from
type PriceSource string

const (
	SourceTCGPlayer PriceSource = "tcgplayer" // USD market prices
	SourceEbayAU    PriceSource = "ebay_au"   // AUD last-sold prices
)

// AllPriceSources returns every pricing source
func AllPriceSources() []PriceSource {
	return []PriceSource{SourceTCGPlayer, SourceEbayAU}
}

// ParsePriceSource maps a query value to a source, defaulting to TCGPlayer
func ParsePriceSource(s string) PriceSource {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ebay_au", "ebay", "ebayau":
		return SourceEbayAU
	default:
		return SourceTCGPlayer
	}
}

// Currency returns the currency the source quotes in
func (s PriceSource) Currency() Currency {
	if s == SourceEbayAU {
		return CurrencyAUD
	}
	return CurrencyUSD
}

// TCGPlayerPrices is a snapshot of TCGPlayer market figures in USD
type TCGPlayerPrices struct {
	Market      float64    `json:"market,omitempty"`
	Low         float64    `json:"low,omitempty"`
	Mid         float64    `json:"mid,omitempty"`
	High        float64    `json:"high,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// EbaySale is the most recent eBay AU sale in AUD
type EbaySale struct {
	LastSold     float64 `json:"last_sold,omitempty"`
	LastSoldDate string  `json:"last_sold_date,omitempty"` // YYYY-MM-DD
}

// PriceHistory holds the latest price snapshot per source
type PriceHistory struct {
	TCGPlayer TCGPlayerPrices `json:"tcgplayer"`
	EbayAU    EbaySale        `json:"ebay_au"`
}

// Price returns the designated price figure for a source (0 when absent)
func (p PriceHistory) Price(source PriceSource) float64 {
	switch source {
	case SourceEbayAU:
		return p.EbayAU.LastSold
	default:
		return p.TCGPlayer.Market
	}
}

// ObservedAt returns when the source's figure was recorded, if known
func (p PriceHistory) ObservedAt(source PriceSource) (time.Time, bool) {
	switch source {
	case SourceEbayAU:
		if p.EbayAU.LastSoldDate == "" {
			return time.Time{}, false
		}
		t, err := time.Parse("2006-01-02", p.EbayAU.LastSoldDate)
		return t, err == nil
	default:
		if p.TCGPlayer.LastUpdated == nil {
			return time.Time{}, false
		}
		return *p.TCGPlayer.LastUpdated, true
	}
}

// ValueIn returns the card's value in the given currency.
// USD uses the TCGPlayer market price, AUD the last eBay AU sale.
func (c *Card) ValueIn(currency Currency) float64 {
	switch currency {
	case CurrencyAUD:
		return c.PriceHistory.Price(SourceEbayAU)
	default:
		return c.PriceHistory.Price(SourceTCGPlayer)
	}
}

// PricePoint is one historical price observation for a card
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}
