package utils

import "math"

const (
	EarthRadiusKm = 6371.0
	kmPerDegree   = 111.0
)

// Haversine returns the great-circle distance in kilometers between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Box is a latitude/longitude rectangle in degrees.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// BoundingBox approximates a circle of radiusKm around (lat, lng) with a
// rectangle that always contains the circle. The longitude correction uses
// the latitude of the box edge closest to the pole, and the box widens to the
// full longitude range when it reaches a pole or crosses the antimeridian.
func BoundingBox(lat, lng, radiusKm float64) Box {
	latDelta := radiusKm / kmPerDegree
	box := Box{
		MinLat: math.Max(lat-latDelta, -90),
		MaxLat: math.Min(lat+latDelta, 90),
		MinLng: -180,
		MaxLng: 180,
	}

	poleward := math.Abs(lat) + latDelta
	if poleward >= 90 {
		return box
	}
	cos := math.Cos(poleward * math.Pi / 180)
	lngDelta := radiusKm / (kmPerDegree * cos)
	if lngDelta >= 180 || lng-lngDelta < -180 || lng+lngDelta > 180 {
		return box
	}

	box.MinLng = lng - lngDelta
	box.MaxLng = lng + lngDelta
	return box
}

// ValidCoordinates reports whether lat/lng are finite and inside the WGS84 ranges.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
