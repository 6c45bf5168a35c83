package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rainharvest-advisor/internal/client"
)

type fakeMetaSource struct {
	meta  *client.Meta
	err   error
	calls int
}

func (f *fakeMetaSource) FetchMeta(ctx context.Context) (*client.Meta, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.meta, nil
}

type fakeGeolocator struct {
	lat, lng float64
	err      error
	delay    time.Duration
}

func (f *fakeGeolocator) CurrentPosition(ctx context.Context) (float64, float64, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		}
	}
	if f.err != nil {
		return 0, 0, f.err
	}
	return f.lat, f.lng, nil
}

func testMeta() *client.Meta {
	return &client.Meta{
		Districts: []string{"Salem", "Erode"},
		Subdistricts: map[string][]string{
			"Salem": {"Omalur", "Mettur"},
			"Erode": {"Bhavani"},
		},
	}
}

func TestResolver_DistrictsCachedAfterFirstFetch(t *testing.T) {
	source := &fakeMetaSource{meta: testMeta()}
	r := NewResolver(source, time.Second, zap.NewNop())
	ctx := context.Background()

	districts, err := r.Districts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Salem", "Erode"}, districts)

	_, err = r.Districts(ctx)
	require.NoError(t, err)
	_, err = r.Subdivisions(ctx, "Salem")
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
}

func TestResolver_FailedFetchRetried(t *testing.T) {
	source := &fakeMetaSource{err: errors.New("upstream down")}
	r := NewResolver(source, time.Second, zap.NewNop())
	ctx := context.Background()

	_, err := r.Districts(ctx)
	require.Error(t, err)

	// Failure was not cached.
	source.err = nil
	source.meta = testMeta()
	districts, err := r.Districts(ctx)
	require.NoError(t, err)
	assert.Len(t, districts, 2)
	assert.Equal(t, 2, source.calls)
}

func TestResolver_SubdivisionsEmptyDistrict(t *testing.T) {
	source := &fakeMetaSource{meta: testMeta()}
	r := NewResolver(source, time.Second, zap.NewNop())

	subs, err := r.Subdivisions(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, subs)
	// No fetch happens for an empty district.
	assert.Zero(t, source.calls)
}

func TestResolver_SubdivisionsUnknownDistrict(t *testing.T) {
	source := &fakeMetaSource{meta: testMeta()}
	r := NewResolver(source, time.Second, zap.NewNop())

	subs, err := r.Subdivisions(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestResolver_Capture(t *testing.T) {
	r := NewResolver(&fakeMetaSource{meta: testMeta()}, time.Second, zap.NewNop())

	loc, err := r.Capture(context.Background(), &fakeGeolocator{lat: 11.5, lng: 78.1}, "Salem", "Omalur")
	require.NoError(t, err)
	assert.Equal(t, 11.5, loc.Latitude)
	assert.Equal(t, 78.1, loc.Longitude)
	assert.Equal(t, "Salem", loc.District)
	assert.Equal(t, "Omalur", loc.Subdivision)
	assert.Equal(t, "Omalur, Salem", loc.Address)
}

func TestResolver_CaptureDenied(t *testing.T) {
	r := NewResolver(&fakeMetaSource{meta: testMeta()}, time.Second, zap.NewNop())

	loc, err := r.Capture(context.Background(), &fakeGeolocator{err: errors.New("permission denied")}, "Salem", "Omalur")
	assert.Nil(t, loc)

	var locErr *LocationError
	require.ErrorAs(t, err, &locErr)
}

func TestResolver_CaptureTimeout(t *testing.T) {
	r := NewResolver(&fakeMetaSource{meta: testMeta()}, 10*time.Millisecond, zap.NewNop())

	_, err := r.Capture(context.Background(), &fakeGeolocator{delay: time.Second}, "", "")

	var locErr *LocationError
	require.ErrorAs(t, err, &locErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolver_ManualLocation(t *testing.T) {
	r := NewResolver(&fakeMetaSource{meta: testMeta()}, time.Second, zap.NewNop())

	loc, err := r.ManualLocation("636455", "Salem", "Omalur")
	require.NoError(t, err)

	// Jitter stays within one degree of the regional reference.
	assert.InDelta(t, manualBaseLat, loc.Latitude, 1.0)
	assert.InDelta(t, manualBaseLng, loc.Longitude, 1.0)
	assert.Equal(t, "Omalur, Salem, PIN: 636455", loc.Address)
}

func TestResolver_ManualLocationInvalidCode(t *testing.T) {
	r := NewResolver(&fakeMetaSource{meta: testMeta()}, time.Second, zap.NewNop())

	for _, code := range []string{"", "12345", "1234567", "63645a"} {
		_, err := r.ManualLocation(code, "Salem", "Omalur")
		var locErr *LocationError
		assert.ErrorAs(t, err, &locErr, "code %q", code)
	}
}
