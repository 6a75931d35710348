package models

// GeoPoint is a WGS84 coordinate pair. A nil pointer on a record means
// "location unknown"; (0,0) is treated as unknown as well.
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Valid reports whether the point is a usable coordinate.
func (p *GeoPoint) Valid() bool {
	if p == nil {
		return false
	}
	if p.Lat == 0 || p.Lng == 0 {
		return false
	}
	if p.Lat < -90 || p.Lat > 90 {
		return false
	}
	if p.Lng < -180 || p.Lng > 180 {
		return false
	}
	return true
}
