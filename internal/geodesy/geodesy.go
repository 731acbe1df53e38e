// Package geodesy provides the spherical-earth helpers used to lay out tile grids:
// great-circle distance and kilometer/degree conversions.
package geodesy

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

const (
	// EarthRadiusKm is the mean Earth radius (IUGG) used for haversine distances.
	EarthRadiusKm = 6371.0088

	// Epsilon floors km-per-degree longitude so near-polar conversions do not divide by zero.
	Epsilon = 1e-9

	kmPerDegLat    = 110.574
	kmPerDegLonEq  = 111.320
	maxLat, maxLon = 90.0, 180.0
)

// GeoPoint is an immutable latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Point is shorthand for GeoPoint{Lat: lat, Lon: lon}.
func Point(lat, lon float64) GeoPoint {
	return GeoPoint{Lat: lat, Lon: lon}
}

// Validate rejects non-finite or out-of-range coordinates.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return eris.Errorf("geodesy: non-finite coordinate (%v, %v)", p.Lat, p.Lon)
	}
	if p.Lat < -maxLat || p.Lat > maxLat {
		return eris.Errorf("geodesy: latitude %v outside [-90, 90]", p.Lat)
	}
	if p.Lon < -maxLon || p.Lon > maxLon {
		return eris.Errorf("geodesy: longitude %v outside [-180, 180]", p.Lon)
	}
	return nil
}

// String renders the point as "lat,lon" with five decimals, the precision used in
// provider requests and artifact names.
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lon)
}

// KmPerDegreeLatitude returns the length of one degree of latitude. The WGS84
// mean-latitude approximation is accurate enough for tiling.
func KmPerDegreeLatitude() float64 {
	return kmPerDegLat
}

// KmPerDegreeLongitude returns the length of one degree of longitude at latDeg.
// It tends to zero at the poles; use LonStepDegrees to convert back safely.
func KmPerDegreeLongitude(latDeg float64) float64 {
	return kmPerDegLonEq * math.Cos(radians(latDeg))
}

// LatStepDegrees converts a north-south distance in km to degrees of latitude.
func LatStepDegrees(km float64) float64 {
	return km / KmPerDegreeLatitude()
}

// LonStepDegrees converts an east-west distance in km to degrees of longitude at latDeg.
func LonStepDegrees(km, latDeg float64) float64 {
	return km / math.Max(Epsilon, KmPerDegreeLongitude(latDeg))
}

// HaversineKm returns the great-circle distance between a and b in kilometers.
func HaversineKm(a, b GeoPoint) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// NormalizeLon wraps a longitude into [-180, 180).
func NormalizeLon(lon float64) float64 {
	if lon >= -maxLon && lon < maxLon {
		return lon
	}
	lon = math.Mod(lon+maxLon, 2*maxLon)
	if lon < 0 {
		lon += 2 * maxLon
	}
	return lon - maxLon
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
