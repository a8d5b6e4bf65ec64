package services

import (
	"context"
	"strings"

	"github.com/codyseavey/cardboard-compass/backend/internal/auth"
	"github.com/codyseavey/cardboard-compass/backend/internal/errtrack"
	"github.com/codyseavey/cardboard-compass/backend/internal/models"
	"github.com/codyseavey/cardboard-compass/backend/internal/store"
)

func profilePath(owner string) store.Path {
	return store.Join("users", owner, "profile")
}

// ProfileService reads and edits the owner's collector profile
type ProfileService struct {
	store    store.Store
	owners   auth.OwnerResolver
	reporter errtrack.Reporter
}

func NewProfileService(s store.Store, owners auth.OwnerResolver, reporter errtrack.Reporter) *ProfileService {
	if reporter == nil {
		reporter = errtrack.Nop{}
	}
	return &ProfileService{store: s, owners: owners, reporter: reporter}
}

// Get returns the profile, or nil when the owner has not created one
func (s *ProfileService) Get(ctx context.Context) (*models.Profile, error) {
	owner, ok := s.owners.Owner(ctx)
	if !ok || !validID(owner) {
		return nil, s.fail(ctx, "profile/get", ErrUnauthenticated)
	}

	var profile models.Profile
	found, err := s.store.Get(ctx, profilePath(owner), &profile)
	if err != nil {
		return nil, s.fail(ctx, "profile/get", storeErr(err))
	}
	if !found {
		return nil, nil
	}
	return &profile, nil
}

// Update merges the non-nil fields into the profile, creating it if needed
func (s *ProfileService) Update(ctx context.Context, upd models.ProfileUpdate) error {
	owner, ok := s.owners.Owner(ctx)
	if !ok || !validID(owner) {
		return s.fail(ctx, "profile/update", ErrUnauthenticated)
	}

	if upd.DisplayName != nil && strings.TrimSpace(*upd.DisplayName) == "" {
		return s.fail(ctx, "profile/update", invalid("display_name must not be empty"))
	}
	if upd.Preferences != nil {
		prefs := *upd.Preferences
		switch prefs.Currency {
		case "":
			prefs.Currency = models.CurrencyUSD
		case models.CurrencyUSD, models.CurrencyAUD:
		default:
			return s.fail(ctx, "profile/update", invalid("unsupported currency %q", prefs.Currency))
		}
		upd.Preferences = &prefs
	}

	fields := upd.Fields()
	if len(fields) == 0 {
		return nil
	}
	if err := s.store.Update(ctx, profilePath(owner), fields); err != nil {
		return s.fail(ctx, "profile/update", storeErr(err))
	}
	return nil
}

func (s *ProfileService) fail(ctx context.Context, site string, err error) error {
	s.reporter.Capture(ctx, err, errtrack.Fields{"context": site})
	return err
}
