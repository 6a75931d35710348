package slot

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"loadline/models"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
// Invalid coordinates yield +Inf so callers treat them as unreachable.
func HaversineKm(a, b *models.GeoPoint) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}
	toRad := func(v float64) float64 { return v * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// NormalizeLocationID canonicalizes a raw location id. Location ids are
// numeric in the catalog; anything non-numeric is treated as absent.
func NormalizeLocationID(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return ""
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// LocationMergeKey is the merge key for a known catalog location.
func LocationMergeKey(locationID string) string {
	return "LOC#" + locationID
}

// GeoMergeKey is the coordinate-derived fallback merge key used when no
// catalog location id is available.
func GeoMergeKey(p *models.GeoPoint) string {
	return fmt.Sprintf("GEO_%.4f_%.4f", p.Lat, p.Lng)
}

var geoKeyPattern = regexp.MustCompile(`^GEO_(-?\d+(?:\.\d+)?)_(-?\d+(?:\.\d+)?)$`)

// GeoKeyPoint parses the coordinates embedded in a GEO_ merge key.
func GeoKeyPoint(mergeKey string) (*models.GeoPoint, bool) {
	m := geoKeyPattern.FindStringSubmatch(mergeKey)
	if m == nil {
		return nil, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lng, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return nil, false
	}
	p := &models.GeoPoint{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil, false
	}
	return p, true
}

// mergeCandidate is one existing bucket considered for geo merging.
type mergeCandidate struct {
	MergeKey string
	Location *models.GeoPoint
}

// ResolveMergeKeyByRadius picks the nearest existing merge bucket within
// radiusKm of the new point, or mints a fresh GEO_ key when none qualifies.
func ResolveMergeKeyByRadius(existing []mergeCandidate, p *models.GeoPoint, radiusKm float64) (string, float64) {
	if !p.Valid() {
		return "", 0
	}

	best := ""
	bestDist := math.Inf(1)
	for _, c := range existing {
		if c.Location == nil {
			continue
		}
		d := HaversineKm(p, c.Location)
		if d <= radiusKm && d < bestDist {
			best = c.MergeKey
			bestDist = d
		}
	}

	if best == "" {
		return GeoMergeKey(p), 0
	}
	return best, bestDist
}
