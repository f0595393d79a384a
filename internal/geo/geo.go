// Package geo holds the pure derivation helpers for the browse view:
// great-circle distance, time-to-expiry, and the human expiry label.
package geo

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"mealbridge/internal/utils"
	"mealbridge/pkg/types"
)

const earthRadiusKm = 6371

func deg2rad(d float64) float64 {
	return d * (math.Pi / 180)
}

// DistanceKm returns the haversine distance between two points, rounded to
// one decimal place. When either point is unknown it returns
// PlaceholderDistanceKm instead: a display fallback, not a measurement.
func DistanceKm(a, b *types.Coordinates) float64 {
	if a == nil || b == nil {
		return PlaceholderDistanceKm()
	}

	dLat := deg2rad(b.Lat - a.Lat)
	dLon := deg2rad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Lat))*math.Cos(deg2rad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return utils.RoundFloat64(earthRadiusKm*c, 1)
}

// PlaceholderDistanceKm returns a pseudo-random value in [0.3, 11.3)
// rounded to one decimal, signalling "distance unknown".
func PlaceholderDistanceKm() float64 {
	return utils.RoundFloat64(rand.Float64()*11+0.3, 1)
}

// TimeToExpiryMs returns milliseconds until expiry, or +Inf when no expiry
// is set so that such records sort last under the ascending time sort.
func TimeToExpiryMs(expiryOn *time.Time, now time.Time) float64 {
	if expiryOn == nil {
		return math.Inf(1)
	}
	return float64(expiryOn.Sub(now).Milliseconds())
}

// ExpiryLabel renders the tiered human-readable expiry string.
func ExpiryLabel(expiryOn *time.Time, now time.Time) string {
	if expiryOn == nil {
		return "—"
	}

	remaining := expiryOn.Sub(now)
	if remaining <= 0 {
		return "Expired"
	}

	minutes := int(remaining.Minutes())
	hours := minutes / 60
	days := hours / 24

	switch {
	case minutes < 1:
		return "Expires now"
	case minutes < 60:
		return fmt.Sprintf("Expires in %d min", minutes)
	case hours < 24:
		return fmt.Sprintf("Expires in %d hr", hours)
	case days < 7:
		if days > 1 {
			return fmt.Sprintf("Expires in %d days", days)
		}
		return fmt.Sprintf("Expires in %d day", days)
	}

	return expiryOn.Format("Jan 2 03:04 PM")
}

// ParseCoordinates recognizes an address of the form "lat, lon" and returns
// the pair, or nil when the string is anything else.
func ParseCoordinates(address string) *types.Coordinates {
	parts := strings.SplitN(address, ",", 3)
	if len(parts) < 2 {
		return nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil
	}

	return &types.Coordinates{Lat: lat, Lon: lon}
}

// ExpiryFrom derives the expiry instant from the prepared time plus the
// selected shelf-life duration.
func ExpiryFrom(preparedOn time.Time, durationHours int) time.Time {
	return preparedOn.Add(time.Duration(durationHours) * time.Hour)
}
