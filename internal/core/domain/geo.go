package domain

import "math"

// EarthRadiusKm is the mean Earth radius used for distance calculations
const EarthRadiusKm = 6371.0

// KmPerMile converts miles to kilometres
const KmPerMile = 1.609344

// HaversineKm returns the great-circle distance between two points in kilometres
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Within reports whether the point lies inside the radius
func (g GeoRadius) Within(lat, lon float64) bool {
	return HaversineKm(g.Lat, g.Lon, lat, lon) <= g.RadiusKm
}
