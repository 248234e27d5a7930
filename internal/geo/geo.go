// Package geo holds great-circle distance helpers used by proximity discovery.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371000.0

// Point is a recorded position in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Valid reports whether the point lies within latitude [-90,90] and longitude [-180,180].
func (p Point) Valid() bool {
	return ValidCoordinates(p.Latitude, p.Longitude)
}

// ValidCoordinates reports whether lat/lon are in range.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Haversine returns the great-circle distance in meters between two coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Distance returns the distance in meters between a and b. ok is false when
// either position has not been recorded, which callers must keep distinct
// from a zero distance.
func Distance(a, b *Point) (meters float64, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude), true
}

// Box is a latitude/longitude rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoundingBox returns a rectangle that contains every point within radius
// meters of center. It is a prefilter only; exact membership still needs
// Haversine. Near the poles or the antimeridian the longitude span widens to
// the full range.
func BoundingBox(center Point, radius float64) Box {
	dLat := radius / EarthRadiusMeters * 180 / math.Pi

	box := Box{
		MinLat: math.Max(center.Latitude-dLat, -90),
		MaxLat: math.Min(center.Latitude+dLat, 90),
		MinLon: -180,
		MaxLon: 180,
	}

	cosLat := math.Cos(toRadians(center.Latitude))
	if cosLat < 1e-6 || box.MinLat == -90 || box.MaxLat == 90 {
		return box
	}

	dLon := dLat / cosLat
	if center.Longitude-dLon < -180 || center.Longitude+dLon > 180 {
		return box
	}
	box.MinLon = center.Longitude - dLon
	box.MaxLon = center.Longitude + dLon
	return box
}

// Contains reports whether p is inside the box.
func (b Box) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
