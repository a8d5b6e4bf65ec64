package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/codyseavey/cardboard-compass/backend/internal/auth"
	"github.com/codyseavey/cardboard-compass/backend/internal/errtrack"
	"github.com/codyseavey/cardboard-compass/backend/internal/metrics"
	"github.com/codyseavey/cardboard-compass/backend/internal/models"
	"github.com/codyseavey/cardboard-compass/backend/internal/store"
)

func snapshotsPath(owner string) store.Path {
	return collectionPath(owner).Child("snapshots")
}

// SnapshotService records each owner's collection value once per day
type SnapshotService struct {
	store    store.Store
	owners   auth.OwnerResolver
	reporter errtrack.Reporter

	mu            sync.Mutex
	lastSnapshot  time.Time
	snapshotHour  int // Hour of day to take snapshot (0-23)
	checkInterval time.Duration
	now           func() time.Time
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(s store.Store, owners auth.OwnerResolver, reporter errtrack.Reporter, hour int, checkInterval time.Duration) *SnapshotService {
	if reporter == nil {
		reporter = errtrack.Nop{}
	}
	return &SnapshotService{
		store:         s,
		owners:        owners,
		reporter:      reporter,
		snapshotHour:  hour,
		checkInterval: checkInterval,
		now:           time.Now,
	}
}

// Start begins the background snapshot worker
func (s *SnapshotService) Start(ctx context.Context) {
	log.Printf("Snapshot service started: will record daily collection value after %02d:00", s.snapshotHour)

	// Catch up on startup in case the process was down at the snapshot hour
	s.checkAndSnapshot(ctx)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot service stopping...")
			return
		case <-ticker.C:
			s.checkAndSnapshot(ctx)
		}
	}
}

// checkAndSnapshot snapshots every owner missing today's entry, once the
// configured hour has passed
func (s *SnapshotService) checkAndSnapshot(ctx context.Context) {
	now := s.now()
	if now.Hour() < s.snapshotHour {
		return
	}

	owners, err := s.TrackedOwners(ctx)
	if err != nil {
		s.reporter.Capture(ctx, err, errtrack.Fields{"context": "snapshot/list-owners"})
		return
	}
	metrics.SnapshotOwnersTracked.Set(float64(len(owners)))

	taken := 0
	for _, owner := range owners {
		if ctx.Err() != nil {
			return
		}

		exists, err := s.hasSnapshotForDate(ctx, owner, now)
		if err != nil {
			s.reporter.Capture(ctx, err, errtrack.Fields{"context": "snapshot/check", "owner_id": owner})
			continue
		}
		if exists {
			continue
		}

		if _, err := s.TakeSnapshot(ctx, owner); err != nil {
			log.Printf("Snapshot service: failed to take snapshot for %s: %v", owner, err)
			continue
		}
		taken++
	}

	if taken > 0 {
		log.Printf("Snapshot service: recorded %d value snapshots for %s", taken, now.Format(models.SnapshotDateLayout))
	}
}

// TrackedOwners lists every owner that has statistics stored
func (s *SnapshotService) TrackedOwners(ctx context.Context) ([]string, error) {
	paths, err := s.store.Find(ctx, store.Path("users"), "stats")
	if err != nil {
		return nil, storeErr(err)
	}

	owners := make([]string, 0, len(paths))
	for _, p := range paths {
		// users/{owner}/collection/stats
		segs := p.Segments()
		if len(segs) == 4 && segs[2] == "collection" {
			owners = append(owners, segs[1])
		}
	}
	return owners, nil
}

func (s *SnapshotService) hasSnapshotForDate(ctx context.Context, owner string, date time.Time) (bool, error) {
	var existing models.ValueSnapshot
	found, err := s.store.Get(ctx, snapshotsPath(owner).Child(date.Format(models.SnapshotDateLayout)), &existing)
	if err != nil {
		return false, storeErr(err)
	}
	return found, nil
}

// TakeSnapshot records the owner's current statistics under today's date,
// replacing an earlier snapshot from the same day
func (s *SnapshotService) TakeSnapshot(ctx context.Context, owner string) (models.ValueSnapshot, error) {
	const site = "snapshot/take"

	s.mu.Lock()
	defer s.mu.Unlock()

	var stats models.CollectionStats
	found, err := s.store.Get(ctx, statsPath(owner), &stats)
	if err != nil {
		err = storeErr(err)
		s.reporter.Capture(ctx, err, errtrack.Fields{"context": site, "owner_id": owner})
		return models.ValueSnapshot{}, err
	}
	if !found {
		stats = models.ComputeStats(nil, time.Time{})
	}

	now := s.now()
	snapshot := models.NewValueSnapshot(stats, now)
	if err := s.store.Set(ctx, snapshotsPath(owner).Child(snapshot.Date), snapshot); err != nil {
		err = storeErr(err)
		s.reporter.Capture(ctx, err, errtrack.Fields{"context": site, "owner_id": owner})
		return models.ValueSnapshot{}, err
	}

	s.lastSnapshot = now
	metrics.SnapshotsTakenTotal.Inc()
	log.Printf("Snapshot service: recorded value snapshot for %s on %s (USD %.2f, AUD %.2f, cards: %d)",
		owner, snapshot.Date, snapshot.TotalValue[models.CurrencyUSD], snapshot.TotalValue[models.CurrencyAUD], snapshot.TotalCards)

	return snapshot, nil
}

// ForceTakeSnapshot snapshots the calling owner regardless of the hour (for manual triggers)
func (s *SnapshotService) ForceTakeSnapshot(ctx context.Context) (models.ValueSnapshot, error) {
	owner, ok := s.owners.Owner(ctx)
	if !ok || !validID(owner) {
		s.reporter.Capture(ctx, ErrUnauthenticated, errtrack.Fields{"context": "snapshot/force"})
		return models.ValueSnapshot{}, ErrUnauthenticated
	}
	return s.TakeSnapshot(ctx, owner)
}

// History returns the owner's daily collection value in a currency, oldest first
func (s *SnapshotService) History(ctx context.Context, owner string, currency models.Currency) ([]models.PricePoint, error) {
	snaps, err := s.store.Children(ctx, snapshotsPath(owner))
	if err != nil {
		err = storeErr(err)
		s.reporter.Capture(ctx, err, errtrack.Fields{"context": "snapshot/history", "owner_id": owner})
		return nil, err
	}

	// Date keys sort chronologically
	points := make([]models.PricePoint, 0, len(snaps))
	for _, snap := range snaps {
		var vs models.ValueSnapshot
		if err := snap.Decode(&vs); err != nil {
			log.Printf("Snapshot service: skipping unreadable snapshot %s for %s: %v", snap.Key, owner, err)
			continue
		}
		if p, ok := vs.Point(currency); ok {
			points = append(points, p)
		}
	}
	return points, nil
}

// CallerHistory is History for the owner established in ctx
func (s *SnapshotService) CallerHistory(ctx context.Context, currency models.Currency) ([]models.PricePoint, error) {
	owner, ok := s.owners.Owner(ctx)
	if !ok || !validID(owner) {
		s.reporter.Capture(ctx, ErrUnauthenticated, errtrack.Fields{"context": "snapshot/history"})
		return nil, ErrUnauthenticated
	}
	return s.History(ctx, owner, currency)
}

// LastSnapshot returns when this process last recorded a snapshot
func (s *SnapshotService) LastSnapshot() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSnapshot
}
