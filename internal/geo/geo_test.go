package geo_test

import (
	"math"
	"testing"
	"time"

	"mealbridge/internal/geo"
	"mealbridge/internal/utils"
	"mealbridge/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	a := &types.Coordinates{Lat: 12.9716, Lon: 77.5946}
	b := &types.Coordinates{Lat: 13.0827, Lon: 80.2707}

	assert.Equal(t, 0.0, geo.DistanceKm(a, a), "distance from a point to itself is zero")
	assert.Equal(t, geo.DistanceKm(a, b), geo.DistanceKm(b, a), "distance is symmetric")

	// One degree of latitude along a meridian is 6371 * pi / 180 km.
	equator := &types.Coordinates{Lat: 0, Lon: 0}
	oneNorth := &types.Coordinates{Lat: 1, Lon: 0}
	assert.Equal(t, 111.2, geo.DistanceKm(equator, oneNorth))
}

func TestDistanceKmPlaceholder(t *testing.T) {
	a := &types.Coordinates{Lat: 12.9716, Lon: 77.5946}

	// The placeholder path signals "unknown", not a measurement: it must
	// stay inside its advertised range and one-decimal precision.
	for i := 0; i < 200; i++ {
		for _, got := range []float64{
			geo.DistanceKm(nil, a),
			geo.DistanceKm(a, nil),
			geo.DistanceKm(nil, nil),
		} {
			assert.GreaterOrEqual(t, got, 0.3)
			assert.LessOrEqual(t, got, 11.3)
			assert.Equal(t, utils.RoundFloat64(got, 1), got)
		}
	}
}

func TestTimeToExpiryMs(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, math.IsInf(geo.TimeToExpiryMs(nil, now), 1), "absent expiry is +Inf")

	in90s := now.Add(90 * time.Second)
	assert.Equal(t, 90000.0, geo.TimeToExpiryMs(&in90s, now))

	past := now.Add(-time.Minute)
	assert.Equal(t, -60000.0, geo.TimeToExpiryMs(&past, now))
}

func TestExpiryLabelTiers(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	expiryIn := func(d time.Duration) *time.Time {
		e := now.Add(d)
		return &e
	}

	tests := []struct {
		name     string
		expiryOn *time.Time
		want     string
	}{
		{"absent", nil, "—"},
		{"exactly now", expiryIn(0), "Expired"},
		{"already past", expiryIn(-time.Hour), "Expired"},
		{"59 seconds", expiryIn(59 * time.Second), "Expires now"},
		{"59 minutes", expiryIn(59 * time.Minute), "Expires in 59 min"},
		{"one hour", expiryIn(time.Hour), "Expires in 1 hr"},
		{"23h59m", expiryIn(23*time.Hour + 59*time.Minute), "Expires in 23 hr"},
		{"one day", expiryIn(24 * time.Hour), "Expires in 1 day"},
		{"6d23h", expiryIn(6*24*time.Hour + 23*time.Hour), "Expires in 6 days"},
		{"8 days", expiryIn(8 * 24 * time.Hour), "Mar 18 12:00 PM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geo.ExpiryLabel(tt.expiryOn, now))
		})
	}
}

func TestParseCoordinates(t *testing.T) {
	coords := geo.ParseCoordinates("12.5, 77.25")
	require.NotNil(t, coords)
	assert.Equal(t, 12.5, coords.Lat)
	assert.Equal(t, 77.25, coords.Lon)

	coords = geo.ParseCoordinates("-33.87,151.21")
	require.NotNil(t, coords)
	assert.Equal(t, -33.87, coords.Lat)

	assert.Nil(t, geo.ParseCoordinates(""))
	assert.Nil(t, geo.ParseCoordinates("MG Road, Bengaluru"))
	assert.Nil(t, geo.ParseCoordinates("12.5"))
	assert.Nil(t, geo.ParseCoordinates("12.5, north"))
}

func TestExpiryFrom(t *testing.T) {
	preparedOn := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, preparedOn.Add(24*time.Hour), geo.ExpiryFrom(preparedOn, 24))
	assert.Equal(t, preparedOn.Add(6*time.Hour), geo.ExpiryFrom(preparedOn, 6))
}
