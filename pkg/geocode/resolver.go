package geocode

import (
	"context"
	"sync"
	"time"
)

const (
	// positionTimeout bounds the wait for a single position fix.
	positionTimeout = 20 * time.Second
	// maxFixAge allows reusing a recent fix instead of taking a new one.
	maxFixAge = 10 * time.Second
)

type Position struct {
	Latitude  float64
	Longitude float64
}

// PositionProvider yields the device's current coordinates (one forward fix,
// no continuous tracking).
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// PermissionChecker reports whether the location permission is granted.
type PermissionChecker interface {
	LocationGranted(ctx context.Context) bool
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64) string
}

// Resolver produces a single place string asynchronously and never blocks the
// caller. Permission denial and position-fix failure resolve to the empty
// string (replaced by the sentinel at publish time); reverse-geocode failures
// resolve to UnknownLocation inside the Geocoder.
type Resolver struct {
	geocoder    Geocoder
	permissions PermissionChecker
	positions   PositionProvider

	mu      sync.Mutex
	lastFix *Position
	fixedAt time.Time
}

func NewResolver(geocoder Geocoder, permissions PermissionChecker, positions PositionProvider) *Resolver {
	return &Resolver{
		geocoder:    geocoder,
		permissions: permissions,
		positions:   positions,
	}
}

func (r *Resolver) ResolveAsync(ctx context.Context) <-chan string {
	out := make(chan string, 1)
	go func() {
		defer close(out)

		if !r.permissions.LocationGranted(ctx) {
			out <- ""
			return
		}

		pos, ok := r.currentPosition(ctx)
		if !ok {
			out <- ""
			return
		}

		out <- r.geocoder.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	}()
	return out
}

func (r *Resolver) currentPosition(ctx context.Context) (Position, bool) {
	r.mu.Lock()
	if r.lastFix != nil && time.Since(r.fixedAt) <= maxFixAge {
		pos := *r.lastFix
		r.mu.Unlock()
		return pos, true
	}
	r.mu.Unlock()

	fixCtx, cancel := context.WithTimeout(ctx, positionTimeout)
	defer cancel()

	pos, err := r.positions.CurrentPosition(fixCtx)
	if err != nil {
		return Position{}, false
	}

	r.mu.Lock()
	r.lastFix = &pos
	r.fixedAt = time.Now()
	r.mu.Unlock()

	return pos, true
}
