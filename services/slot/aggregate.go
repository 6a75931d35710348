package slot

import (
	"loadline/models"
)

// BucketTotals is the fold of live bookings for one merge bucket.
type BucketTotals struct {
	Amount     float64
	Count      int
	LocationID string
	Location   *models.GeoPoint
}

// MergeSummary is the authoritative recomputation of one merge key from the
// booking ledger. Stored bucket counters are a cache of this fold.
type MergeSummary struct {
	MergeKey string
	Day      BucketTotals
	ByTime   map[string]BucketTotals
}

// SummarizeMerge folds the live HALF bookings of one merge key into day and
// per-time totals. Merged and cancelled bookings do not contribute.
func SummarizeMerge(bookings []models.Booking, mergeKey string) MergeSummary {
	sum := MergeSummary{MergeKey: mergeKey, ByTime: make(map[string]BucketTotals)}
	for i := range bookings {
		b := &bookings[i]
		if b.VehicleClass != models.VehicleHalf || b.MergeKey != mergeKey || !b.Live() {
			continue
		}

		sum.Day.Amount += b.Amount
		sum.Day.Count++
		if sum.Day.LocationID == "" {
			sum.Day.LocationID = b.LocationID
		}
		if sum.Day.Location == nil && b.Location.Valid() {
			sum.Day.Location = b.Location
		}

		t := sum.ByTime[b.SlotTime]
		t.Amount += b.Amount
		t.Count++
		if t.LocationID == "" {
			t.LocationID = b.LocationID
		}
		if t.Location == nil && b.Location.Valid() {
			t.Location = b.Location
		}
		sum.ByTime[b.SlotTime] = t
	}
	return sum
}

// TripStatusFor derives bucket readiness from its totals. Readiness needs at
// least two contributors and the combined amount at or above the threshold.
func TripStatusFor(count int, total, threshold float64) string {
	switch {
	case count >= 2 && total >= threshold:
		return models.TripReady
	case count >= 2:
		return models.TripWaiting
	default:
		return models.TripPartial
	}
}

// StatusRank orders trip statuses for display, most actionable first.
func StatusRank(tripStatus string) int {
	switch tripStatus {
	case models.TripReady:
		return 0
	case models.TripWaiting:
		return 1
	case models.TripPartial:
		return 2
	case models.TripFull:
		return 3
	}
	return 4
}
