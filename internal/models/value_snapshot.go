package models

import (
	"time"
)

// SnapshotDateLayout is the key format for daily snapshots
const SnapshotDateLayout = "2006-01-02"

// ValueSnapshot stores one owner's daily collection value for historical tracking
type ValueSnapshot struct {
	Date         string               `json:"date"` // YYYY-MM-DD
	TotalCards   int                  `json:"total_cards"`
	TotalValue   map[Currency]float64 `json:"total_value"`
	DistinctSets int                  `json:"distinct_sets"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewValueSnapshot captures stats for the calendar day of now
func NewValueSnapshot(stats CollectionStats, now time.Time) ValueSnapshot {
	total := make(map[Currency]float64, len(stats.TotalValue))
	for k, v := range stats.TotalValue {
		total[k] = v
	}
	return ValueSnapshot{
		Date:         now.Format(SnapshotDateLayout),
		TotalCards:   stats.TotalCards,
		TotalValue:   total,
		DistinctSets: stats.DistinctSets,
		CreatedAt:    now,
	}
}

// Point converts the snapshot into a price point in the given currency
func (s ValueSnapshot) Point(currency Currency) (PricePoint, bool) {
	date, err := time.Parse(SnapshotDateLayout, s.Date)
	if err != nil {
		return PricePoint{}, false
	}
	return PricePoint{Date: date, Price: s.TotalValue[currency]}, true
}
