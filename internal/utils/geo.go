package utils

import (
	"math"
	"time"

	"github.com/bradfitz/latlong"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/umahmood/haversine"
)

// ValidateCoordinates checks that lat/lng are finite and inside WGS84 range.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return ErrCoordinatesNotFinite
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrCoordinatesOutOfRange
	}
	return nil
}

/*
────────────────────────────────────────────────────────────────────────────

	DistanceKm uses Haversine for a direct “as-the-crow-flies” distance.

────────────────────────────────────────────────────────────────────────────
*/
func DistanceKm(a, b models.Coordinates) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lng},
		haversine.Coord{Lat: b.Lat, Lon: b.Lng},
	)
	return km
}

// Bounds is an inclusive lat/lng box. It does not wrap the antimeridian.
type Bounds struct {
	LatMin, LatMax float64
	LngMin, LngMax float64
}

func (b Bounds) Contains(c models.Coordinates) bool {
	return c.Lat >= b.LatMin && c.Lat <= b.LatMax && c.Lng >= b.LngMin && c.Lng <= b.LngMax
}

// TimeZoneFor returns the IANA zone name at the coordinates, or "" when the
// point falls outside every known zone (open sea).
func TimeZoneFor(c models.Coordinates) string {
	return latlong.LookupZoneName(c.Lat, c.Lng)
}

// LoadLocation resolves a stored zone name, falling back to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
