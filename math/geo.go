// math/geo.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

// EarthRadiusMeters is the mean radius used for great-circle distances.
const EarthRadiusMeters = 6.371e6

// Position is a geodetic position: latitude and longitude in degrees and
// altitude in metres.
type Position struct {
	Lat float64 `json:"lat" yaml:"lat" msgpack:"lat"`
	Lon float64 `json:"lon" yaml:"lon" msgpack:"lon"`
	Alt float64 `json:"alt" yaml:"alt" msgpack:"alt"`
}

// IsZero reports whether p is the all-zero position that the simulator
// reports for an unset antenna.
func (p Position) IsZero() bool {
	return p.Lat == 0 && p.Lon == 0 && p.Alt == 0
}

// GroundDistanceMeters returns the haversine great-circle distance between
// a and b, ignoring altitude.
func GroundDistanceMeters(a, b Position) float64 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	lat1, lat2 := Radians(a.Lat), Radians(b.Lat)
	sdlat := Sin(Radians(b.Lat-a.Lat) / 2)
	sdlon := Sin(Radians(b.Lon-a.Lon) / 2)

	x := Cos(lat1)*Cos(lat2)*Sqr(sdlon) + Sqr(sdlat)
	return Atan2(Sqrt(x), Sqrt(1-x)) * 2 * EarthRadiusMeters
}

// SlantDistanceMeters adds the altitude difference to the great-circle
// distance.
func SlantDistanceMeters(a, b Position) float64 {
	d := GroundDistanceMeters(a, b)
	return Sqrt(Sqr(d) + Sqr(a.Alt-b.Alt))
}

// SlantDistanceNM is SlantDistanceMeters in nautical miles.
func SlantDistanceNM(a, b Position) float64 {
	return SlantDistanceMeters(a, b) / MetersPerNM
}

// InitialBearing returns the true great-circle bearing from a to b in
// degrees, in [0,360).
func InitialBearing(a, b Position) float64 {
	lat1, lat2 := Radians(a.Lat), Radians(b.Lat)
	dlon := Radians(b.Lon - a.Lon)
	y := Sin(dlon) * Cos(lat2)
	x := Cos(lat1)*Sin(lat2) - Sin(lat1)*Cos(lat2)*Cos(dlon)
	return NormalizeHeading(Degrees(Atan2(y, x)))
}
