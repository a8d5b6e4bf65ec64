package services

import (
	"errors"
	"fmt"

	"github.com/codyseavey/cardboard-compass/backend/internal/store"
)

var (
	// ErrUnauthenticated is returned when no owner can be resolved
	ErrUnauthenticated = errors.New("user not authenticated")

	// ErrNotFound is returned when the target card does not exist for the owner
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is returned when a store read or write fails
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidInput is returned when a card or profile fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrScanRateLimited is returned when scans arrive faster than allowed
	ErrScanRateLimited = errors.New("too many scan requests")
)

// storeErr tags a store failure so callers can match ErrStoreUnavailable
// while the cause stays reachable through errors.Is/As
func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// mergeErr maps a merge into a node that vanished to ErrNotFound
func mergeErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return storeErr(err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
