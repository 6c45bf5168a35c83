package location

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"rainharvest-advisor/internal/client"
	"rainharvest-advisor/internal/domain"
)

// LocationError covers geolocation permission denial, timeout, and invalid
// manual input. Surfaced inline near the location controls; never blocks the
// rest of the form.
type LocationError struct {
	Reason string
	Err    error
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *LocationError) Unwrap() error { return e.Err }

// Geolocator reports the device's current position. The HTTP layer satisfies
// it with coordinates relayed from the browser; tests use fakes.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (lat, lng float64, err error)
}

// MetaSource loads the district→subdivision reference table.
type MetaSource interface {
	FetchMeta(ctx context.Context) (*client.Meta, error)
}

// Reference point for manual area-code locations (approximate regional
// centroid; jittered, not geocoded).
const (
	manualBaseLat = 11.1271
	manualBaseLng = 78.6569
)

// Resolver caches the reference table after one successful fetch and
// synthesizes location records from device coordinates or a manual area
// code. One outstanding geolocation capture at a time; stale positions are
// never cached.
type Resolver struct {
	source         MetaSource
	logger         *zap.Logger
	captureTimeout time.Duration

	mu        sync.Mutex
	meta      *client.Meta
	capturing bool
}

func NewResolver(source MetaSource, captureTimeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		source:         source,
		logger:         logger,
		captureTimeout: captureTimeout,
	}
}

// table returns the cached reference table, fetching it on first use. A
// failed fetch is not cached, so the next call retries.
func (r *Resolver) table(ctx context.Context) (*client.Meta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.meta != nil {
		return r.meta, nil
	}
	meta, err := r.source.FetchMeta(ctx)
	if err != nil {
		return nil, err
	}
	r.meta = meta
	r.logger.Info("Loaded location reference table",
		zap.Int("districts", len(meta.Districts)),
	)
	return meta, nil
}

// Districts returns the flat district list.
func (r *Resolver) Districts(ctx context.Context) ([]string, error) {
	meta, err := r.table(ctx)
	if err != nil {
		return nil, err
	}
	return meta.Districts, nil
}

// Subdivisions returns the subdivision list for a district. An empty
// district or an unknown district yields an empty list, not an error.
func (r *Resolver) Subdivisions(ctx context.Context, district string) ([]string, error) {
	if district == "" {
		return nil, nil
	}
	meta, err := r.table(ctx)
	if err != nil {
		return nil, err
	}
	return meta.Subdistricts[district], nil
}

// Capture performs a bounded device-position read and synthesizes a location
// record from the coordinates plus the currently selected district and
// subdivision. Failure mutates nothing.
func (r *Resolver) Capture(ctx context.Context, geo Geolocator, district, subdivision string) (*domain.LocationData, error) {
	r.mu.Lock()
	if r.capturing {
		r.mu.Unlock()
		return nil, &LocationError{Reason: "location capture already in progress"}
	}
	r.capturing = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.capturing = false
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, r.captureTimeout)
	defer cancel()

	lat, lng, err := geo.CurrentPosition(ctx)
	if err != nil {
		r.logger.Warn("Geolocation capture failed", zap.Error(err))
		return nil, &LocationError{Reason: "could not determine device position", Err: err}
	}

	return &domain.LocationData{
		Latitude:    lat,
		Longitude:   lng,
		Address:     captureAddress(district, subdivision),
		District:    district,
		Subdivision: subdivision,
	}, nil
}

// ManualLocation synthesizes an approximate location from a 6-digit area
// code. No geocoding lookup happens; the coordinates are jittered around a
// fixed regional reference.
func (r *Resolver) ManualLocation(areaCode, district, subdivision string) (*domain.LocationData, error) {
	if !isSixDigits(areaCode) {
		return nil, &LocationError{Reason: "please enter a valid 6-digit PIN code"}
	}

	return &domain.LocationData{
		Latitude:    manualBaseLat + (rand.Float64()-0.5)*2,
		Longitude:   manualBaseLng + (rand.Float64()-0.5)*2,
		Address:     fmt.Sprintf("%s, %s, PIN: %s", subdivision, district, areaCode),
		District:    district,
		Subdivision: subdivision,
	}, nil
}

func captureAddress(district, subdivision string) string {
	if district == "" {
		district = "Unknown District"
	}
	return strings.TrimPrefix(fmt.Sprintf("%s, %s", subdivision, district), ", ")
}

func isSixDigits(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
