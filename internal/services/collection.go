package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/codyseavey/cardboard-compass/backend/internal/auth"
	"github.com/codyseavey/cardboard-compass/backend/internal/errtrack"
	"github.com/codyseavey/cardboard-compass/backend/internal/metrics"
	"github.com/codyseavey/cardboard-compass/backend/internal/models"
	"github.com/codyseavey/cardboard-compass/backend/internal/store"
)

// Store layout, scoped per owner:
//
//	users/{owner}/collection/cards/{id}                          card
//	users/{owner}/collection/cards/{id}/history/{source}/{key}   price point
//	users/{owner}/collection/stats                               statistics
func collectionPath(owner string) store.Path {
	return store.Join("users", owner, "collection")
}

func cardsPath(owner string) store.Path {
	return collectionPath(owner).Child("cards")
}

func statsPath(owner string) store.Path {
	return collectionPath(owner).Child("stats")
}

func historyPath(owner, cardID string, source models.PriceSource) store.Path {
	return cardsPath(owner).Child(cardID).Child("history").Child(string(source))
}

// CollectionService keeps each owner's statistics consistent with their cards.
// Statistics are rebuilt from a full re-read after every successful mutation
// and are never adjusted incrementally.
type CollectionService struct {
	store    store.Store
	owners   auth.OwnerResolver
	reporter errtrack.Reporter
	now      func() time.Time
}

// NewCollectionService creates a collection service. A nil reporter discards reports.
func NewCollectionService(s store.Store, owners auth.OwnerResolver, reporter errtrack.Reporter) *CollectionService {
	if reporter == nil {
		reporter = errtrack.Nop{}
	}
	return &CollectionService{
		store:    s,
		owners:   owners,
		reporter: reporter,
		now:      time.Now,
	}
}

// Add stores a new card with a fresh id and the current time as added-at,
// then recomputes statistics. If the card was written but the statistics
// write failed, the new id is returned together with the error.
func (s *CollectionService) Add(ctx context.Context, card models.NewCard) (string, error) {
	const site = "collection/add-card"

	owner, err := s.owner(ctx)
	if err != nil {
		return "", s.fail(ctx, site, err, nil)
	}
	if err := validateNewCard(card); err != nil {
		return "", s.fail(ctx, site, err, errtrack.Fields{"name": card.Name})
	}

	path, err := s.store.Push(cardsPath(owner))
	if err != nil {
		return "", s.fail(ctx, site, storeErr(err), nil)
	}

	record := models.Card{
		ID:           path.Key(),
		Name:         strings.TrimSpace(card.Name),
		Set:          strings.TrimSpace(card.Set),
		Number:       card.Number,
		Rarity:       card.Rarity,
		ImageURL:     card.ImageURL,
		Category:     card.Category,
		Condition:    card.Condition,
		Notes:        card.Notes,
		AddedAt:      s.now(),
		PriceHistory: card.PriceHistory,
	}

	if err := s.store.Set(ctx, path, record); err != nil {
		metrics.CollectionMutationsTotal.WithLabelValues("add", "error").Inc()
		return "", s.fail(ctx, site, storeErr(err), errtrack.Fields{"name": card.Name})
	}

	if _, err := s.recompute(ctx, owner); err != nil {
		metrics.CollectionMutationsTotal.WithLabelValues("add", "error").Inc()
		return record.ID, s.fail(ctx, site, err, errtrack.Fields{"card_id": record.ID})
	}

	metrics.CollectionMutationsTotal.WithLabelValues("add", "ok").Inc()
	return record.ID, nil
}

// Update merges the non-nil fields of upd into the card. The id and
// added-at timestamp are never touched. An empty update is a no-op.
func (s *CollectionService) Update(ctx context.Context, id string, upd models.CardUpdate) error {
	const site = "collection/update-card"

	owner, err := s.owner(ctx)
	if err != nil {
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	existing, path, err := s.getCard(ctx, owner, id)
	if err != nil {
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	upd = upd.Trimmed()
	fields := upd.Fields()
	if len(fields) == 0 {
		return nil
	}
	if err := validateCard(upd.Apply(*existing)); err != nil {
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	// Merge fails rather than recreating a card removed since getCard
	if err := s.store.Merge(ctx, path, fields); err != nil {
		metrics.CollectionMutationsTotal.WithLabelValues("update", "error").Inc()
		return s.fail(ctx, site, mergeErr(err), errtrack.Fields{"card_id": id})
	}

	if _, err := s.recompute(ctx, owner); err != nil {
		metrics.CollectionMutationsTotal.WithLabelValues("update", "error").Inc()
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	metrics.CollectionMutationsTotal.WithLabelValues("update", "ok").Inc()
	return nil
}

// Remove deletes the card and its price history. Removing a card that does
// not exist is not an error.
func (s *CollectionService) Remove(ctx context.Context, id string) error {
	const site = "collection/remove-card"

	owner, err := s.owner(ctx)
	if err != nil {
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	path := cardsPath(owner).Child(id)
	if !validID(id) {
		// Nothing can live at a malformed id
		return nil
	}

	if err := s.store.Delete(ctx, path); err != nil {
		metrics.CollectionMutationsTotal.WithLabelValues("remove", "error").Inc()
		return s.fail(ctx, site, storeErr(err), errtrack.Fields{"card_id": id})
	}

	if _, err := s.recompute(ctx, owner); err != nil {
		metrics.CollectionMutationsTotal.WithLabelValues("remove", "error").Inc()
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	metrics.CollectionMutationsTotal.WithLabelValues("remove", "ok").Inc()
	return nil
}

// List returns every card, most recently added first
func (s *CollectionService) List(ctx context.Context) ([]models.Card, error) {
	const site = "collection/get-collection"

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, s.fail(ctx, site, err, nil)
	}

	cards, err := s.readCards(ctx, owner)
	if err != nil {
		return nil, s.fail(ctx, site, err, nil)
	}
	sortNewestFirst(cards)
	return cards, nil
}

// Get returns a single card
func (s *CollectionService) Get(ctx context.Context, id string) (*models.Card, error) {
	const site = "collection/get-card"

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	card, _, err := s.getCard(ctx, owner, id)
	if err != nil {
		return nil, s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}
	return card, nil
}

// Search returns cards whose name or set contains query, ignoring case,
// most recently added first
func (s *CollectionService) Search(ctx context.Context, query string) ([]models.Card, error) {
	const site = "collection/search"

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, s.fail(ctx, site, err, errtrack.Fields{"query": query})
	}

	cards, err := s.readCards(ctx, owner)
	if err != nil {
		return nil, s.fail(ctx, site, err, errtrack.Fields{"query": query})
	}

	matches := make([]models.Card, 0, len(cards))
	for i := range cards {
		if cards[i].Matches(query) {
			matches = append(matches, cards[i])
		}
	}
	sortNewestFirst(matches)
	return matches, nil
}

// FilterByCategory returns the owner's cards in one category, most recently added first
func (s *CollectionService) FilterByCategory(ctx context.Context, category models.Category) ([]models.Card, error) {
	const site = "collection/filter"

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, s.fail(ctx, site, err, errtrack.Fields{"category": category})
	}
	if !category.Valid() {
		return nil, s.fail(ctx, site, invalid("unknown category %q", category), nil)
	}

	snaps, err := s.store.Query(ctx, cardsPath(owner), "category", string(category))
	if err != nil {
		return nil, s.fail(ctx, site, storeErr(err), errtrack.Fields{"category": category})
	}

	cards, err := decodeCards(snaps)
	if err != nil {
		return nil, s.fail(ctx, site, storeErr(err), errtrack.Fields{"category": category})
	}
	sortNewestFirst(cards)
	return cards, nil
}

// UpdatePrices replaces the card's price snapshot, appends a history point
// for every source with a price, and recomputes statistics
func (s *CollectionService) UpdatePrices(ctx context.Context, id string, prices models.PriceHistory) error {
	const site = "collection/update-prices"

	owner, err := s.owner(ctx)
	if err != nil {
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}
	if err := validatePrices(prices); err != nil {
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	_, path, err := s.getCard(ctx, owner, id)
	if err != nil {
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	if err := s.store.Merge(ctx, path, map[string]any{"price_history": prices}); err != nil {
		metrics.CollectionMutationsTotal.WithLabelValues("prices", "error").Inc()
		return s.fail(ctx, site, mergeErr(err), errtrack.Fields{"card_id": id})
	}

	now := s.now()
	for _, source := range models.AllPriceSources() {
		price := prices.Price(source)
		if price <= 0 {
			continue
		}
		date, ok := prices.ObservedAt(source)
		if !ok {
			date = now
		}

		pointPath, err := s.store.Push(historyPath(owner, id, source))
		if err == nil {
			err = s.store.Set(ctx, pointPath, models.PricePoint{Date: date, Price: price})
		}
		if err != nil {
			metrics.CollectionMutationsTotal.WithLabelValues("prices", "error").Inc()
			return s.fail(ctx, site, storeErr(err), errtrack.Fields{"card_id": id, "source": source})
		}
	}

	if _, err := s.recompute(ctx, owner); err != nil {
		metrics.CollectionMutationsTotal.WithLabelValues("prices", "error").Inc()
		return s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	metrics.CollectionMutationsTotal.WithLabelValues("prices", "ok").Inc()
	return nil
}

// Stats returns the last recomputed statistics. An owner who never mutated
// their collection gets zero statistics.
func (s *CollectionService) Stats(ctx context.Context) (models.CollectionStats, error) {
	const site = "collection/get-stats"

	owner, err := s.owner(ctx)
	if err != nil {
		return models.CollectionStats{}, s.fail(ctx, site, err, nil)
	}

	stats, err := s.storedStats(ctx, owner)
	if err != nil {
		return models.CollectionStats{}, s.fail(ctx, site, err, nil)
	}
	return stats, nil
}

// PriceSeries returns the card's recorded prices for a source, oldest first.
// A card with a current price but no recorded history yields that price as
// a single point.
func (s *CollectionService) PriceSeries(ctx context.Context, id string, source models.PriceSource) ([]models.PricePoint, error) {
	const site = "collection/price-series"

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	card, _, err := s.getCard(ctx, owner, id)
	if err != nil {
		return nil, s.fail(ctx, site, err, errtrack.Fields{"card_id": id})
	}

	snaps, err := s.store.Children(ctx, historyPath(owner, id, source))
	if err != nil {
		return nil, s.fail(ctx, site, storeErr(err), errtrack.Fields{"card_id": id, "source": source})
	}

	points := make([]models.PricePoint, 0, len(snaps))
	for _, snap := range snaps {
		var p models.PricePoint
		if err := snap.Decode(&p); err != nil {
			return nil, s.fail(ctx, site, storeErr(err), errtrack.Fields{"card_id": id, "source": source})
		}
		points = append(points, p)
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	if len(points) == 0 {
		if price := card.PriceHistory.Price(source); price > 0 {
			date, ok := card.PriceHistory.ObservedAt(source)
			if !ok {
				date = card.AddedAt
			}
			points = append(points, models.PricePoint{Date: date, Price: price})
		}
	}
	return points, nil
}

// RebuildStats recomputes the calling owner's statistics from their cards.
// Used to repair statistics left stale by a failed write.
func (s *CollectionService) RebuildStats(ctx context.Context) (models.CollectionStats, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return models.CollectionStats{}, s.fail(ctx, "collection/rebuild-stats", err, nil)
	}
	return s.recompute(ctx, owner)
}

// recompute re-reads the owner's full card set, folds it into statistics,
// and writes them back
func (s *CollectionService) recompute(ctx context.Context, owner string) (models.CollectionStats, error) {
	const site = "collection/update-stats"
	start := time.Now()

	cards, err := s.readCards(ctx, owner)
	if err != nil {
		return models.CollectionStats{}, s.fail(ctx, site, err, errtrack.Fields{"owner_id": owner})
	}

	stats := models.ComputeStats(cards, s.now())
	if err := s.store.Set(ctx, statsPath(owner), stats); err != nil {
		return models.CollectionStats{}, s.fail(ctx, site, storeErr(err), errtrack.Fields{"owner_id": owner})
	}

	metrics.StatsRecomputeDuration.Observe(time.Since(start).Seconds())
	metrics.StatsRecomputedCards.Observe(float64(len(cards)))
	return stats, nil
}

func (s *CollectionService) storedStats(ctx context.Context, owner string) (models.CollectionStats, error) {
	var stats models.CollectionStats
	found, err := s.store.Get(ctx, statsPath(owner), &stats)
	if err != nil {
		return models.CollectionStats{}, storeErr(err)
	}
	if !found {
		return models.ComputeStats(nil, time.Time{}), nil
	}
	return stats, nil
}

func (s *CollectionService) readCards(ctx context.Context, owner string) ([]models.Card, error) {
	snaps, err := s.store.Children(ctx, cardsPath(owner))
	if err != nil {
		return nil, storeErr(err)
	}
	cards, err := decodeCards(snaps)
	if err != nil {
		return nil, storeErr(err)
	}
	return cards, nil
}

func (s *CollectionService) getCard(ctx context.Context, owner, id string) (*models.Card, store.Path, error) {
	if !validID(id) {
		return nil, "", ErrNotFound
	}

	path := cardsPath(owner).Child(id)
	var card models.Card
	found, err := s.store.Get(ctx, path, &card)
	if err != nil {
		return nil, "", storeErr(err)
	}
	if !found {
		return nil, "", ErrNotFound
	}
	return &card, path, nil
}

func (s *CollectionService) owner(ctx context.Context) (string, error) {
	owner, ok := s.owners.Owner(ctx)
	if !ok || !validID(owner) {
		return "", ErrUnauthenticated
	}
	return owner, nil
}

func (s *CollectionService) fail(ctx context.Context, site string, err error, fields errtrack.Fields) error {
	if fields == nil {
		fields = errtrack.Fields{}
	}
	fields["context"] = site
	s.reporter.Capture(ctx, err, fields)
	return err
}

func decodeCards(snaps []store.Snapshot) ([]models.Card, error) {
	cards := make([]models.Card, 0, len(snaps))
	for _, snap := range snaps {
		var card models.Card
		if err := snap.Decode(&card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// sortNewestFirst orders by added-at descending; ids break ties since push
// keys are time-ordered
func sortNewestFirst(cards []models.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		if !cards[i].AddedAt.Equal(cards[j].AddedAt) {
			return cards[i].AddedAt.After(cards[j].AddedAt)
		}
		return cards[i].ID > cards[j].ID
	})
}

func validID(id string) bool {
	return id != "" && !strings.Contains(id, "/")
}

func validateNewCard(c models.NewCard) error {
	return validateCard(models.Card{
		Name:         c.Name,
		Set:          c.Set,
		Category:     c.Category,
		Condition:    c.Condition,
		PriceHistory: c.PriceHistory,
	})
}

func validateCard(c models.Card) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name is required")
	}
	if strings.TrimSpace(c.Set) == "" {
		return invalid("set is required")
	}
	if !c.Category.Valid() {
		return invalid("unknown category %q", c.Category)
	}
	if !c.Condition.Valid() {
		return invalid("unknown condition %q", c.Condition)
	}
	return validatePrices(c.PriceHistory)
}

func validatePrices(p models.PriceHistory) error {
	for _, v := range []float64{p.TCGPlayer.Market, p.TCGPlayer.Low, p.TCGPlayer.Mid, p.TCGPlayer.High, p.EbayAU.LastSold} {
		if v < 0 {
			return invalid("prices must not be negative")
		}
	}
	if p.EbayAU.LastSoldDate != "" {
		if _, err := time.Parse("2006-01-02", p.EbayAU.LastSoldDate); err != nil {
			return invalid("last_sold_date must be YYYY-MM-DD")
		}
	}
	return nil
}
