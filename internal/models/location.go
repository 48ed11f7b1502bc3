package models

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean earth radius.
const EarthRadiusMeters = 6371008.8

type Location struct {
	Lat float64 `json:"lat" parquet:"name=lat,type=DOUBLE"`
	Lon float64 `json:"lon" parquet:"name=lon,type=DOUBLE"`
}

// Bounds is the study area. Coordinates outside of it are treated as out of range.
type Bounds struct {
	MinLat float64 `mapstructure:"min_lat"`
	MaxLat float64 `mapstructure:"max_lat"`
	MinLon float64 `mapstructure:"min_lon"`
	MaxLon float64 `mapstructure:"max_lon"`
}

func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

func (b Bounds) Contains(loc Location) bool {
	if b.IsZero() {
		return true
	}
	return loc.Lat >= b.MinLat && loc.Lat <= b.MaxLat && loc.Lon >= b.MinLon && loc.Lon <= b.MaxLon
}

// InRange reports whether the location is a real WGS-84 coordinate. The data
// portal exports 0,0 for missing positions so those are rejected too.
func (l Location) InRange() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lon) {
		return false
	}
	if l.Lat < -90 || l.Lat > 90 || l.Lon < -180 || l.Lon > 180 {
		return false
	}
	return l.Lat != 0 && l.Lon != 0
}

func (l Location) String() string {
	return fmt.Sprintf("POINT(%f %f)", l.Lon, l.Lat)
}

// DistanceMeters is the haversine great-circle distance between two locations.
func (l Location) DistanceMeters(other Location) float64 {
	lat1 := degreesToRadians(l.Lat)
	lon1 := degreesToRadians(l.Lon)
	lat2 := degreesToRadians(other.Lat)
	lon2 := degreesToRadians(other.Lon)

	dlat := lat2 - lat1
	dlon := lon2 - lon1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Offset moves the location by the given number of metres north and east using
// a local equirectangular approximation.
func (l Location) Offset(northMeters, eastMeters float64) Location {
	dLat := northMeters / EarthRadiusMeters
	dLon := eastMeters / (EarthRadiusMeters * math.Cos(degreesToRadians(l.Lat)))
	return Location{
		Lat: l.Lat + radiansToDegrees(dLat),
		Lon: l.Lon + radiansToDegrees(dLon),
	}
}

// Segment is a straight road segment between two points.
type Segment struct {
	Start Location `json:"start"`
	End   Location `json:"end"`
}

func (s Segment) Midpoint() Location {
	return Location{
		Lat: (s.Start.Lat + s.End.Lat) / 2,
		Lon: (s.Start.Lon + s.End.Lon) / 2,
	}
}

// DistanceMeters returns the distance from p to the closest point of the
// segment, measured in a local equirectangular projection centred on p.
func (s Segment) DistanceMeters(p Location) float64 {
	ax, ay := project(p, s.Start)
	bx, by := project(p, s.End)

	dx, dy := bx-ax, by-ay
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return math.Hypot(ax, ay)
	}

	// p sits at the origin of the projection
	t := -(ax*dx + ay*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(ax+t*dx, ay+t*dy)
}

func project(origin, loc Location) (x, y float64) {
	cosLat := math.Cos(degreesToRadians(origin.Lat))
	x = degreesToRadians(loc.Lon-origin.Lon) * cosLat * EarthRadiusMeters
	y = degreesToRadians(loc.Lat-origin.Lat) * EarthRadiusMeters
	return x, y
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func radiansToDegrees(radians float64) float64 {
	return radians * 180 / math.Pi
}
