package discovery

import "math"

// LatLng is a WGS84 coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometers
// (haversine). Flat Euclidean distance is wrong for lat/lng degrees, so it
// is never used here.
func Distance(a, b LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// FilterByRadius keeps candidates within radiusKm of origin. The boundary is
// inclusive: a candidate at exactly radiusKm stays in.
func FilterByRadius(candidates []Candidate, origin LatLng, radiusKm float64) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if Distance(origin, c.Location) <= radiusKm {
			out = append(out, c)
		}
	}
	return out
}
