package slot

import (
	"testing"

	"loadline/models"

	"github.com/stretchr/testify/assert"
)

func halfBooking(orderID, slotTime, mergeKey, status string, amount float64) models.Booking {
	return models.Booking{
		Company:      testCompany,
		Date:         testDate,
		OrderID:      orderID,
		SlotTime:     slotTime,
		VehicleClass: models.VehicleHalf,
		MergeKey:     mergeKey,
		Amount:       amount,
		Status:       status,
	}
}

func TestSummarizeMerge(t *testing.T) {
	bookings := []models.Booking{
		halfBooking("o1", "10:00", "LOC#7", models.BookingPendingConfirm, 30000),
		halfBooking("o2", "10:00", "LOC#7", models.BookingWaitingConfirm, 20000),
		halfBooking("o3", "12:00", "LOC#7", models.BookingPendingConfirm, 25000),
		// Different key and dead statuses never contribute.
		halfBooking("o4", "10:00", "LOC#9", models.BookingPendingConfirm, 99999),
		halfBooking("o5", "10:00", "LOC#7", models.BookingMerged, 99999),
		{OrderID: "o6", SlotTime: "10:00", VehicleClass: models.VehicleFull, Status: models.BookingConfirmed, Amount: 99999},
	}

	sum := SummarizeMerge(bookings, "LOC#7")
	assert.Equal(t, 75000.0, sum.Day.Amount)
	assert.Equal(t, 3, sum.Day.Count)

	assert.Len(t, sum.ByTime, 2)
	assert.Equal(t, 50000.0, sum.ByTime["10:00"].Amount)
	assert.Equal(t, 2, sum.ByTime["10:00"].Count)
	assert.Equal(t, 25000.0, sum.ByTime["12:00"].Amount)
}

func TestSummarizeMergeEmpty(t *testing.T) {
	sum := SummarizeMerge(nil, "LOC#7")
	assert.Equal(t, 0, sum.Day.Count)
	assert.Empty(t, sum.ByTime)
}

func TestTripStatusFor(t *testing.T) {
	assert.Equal(t, models.TripPartial, TripStatusFor(0, 0, 80000))
	assert.Equal(t, models.TripPartial, TripStatusFor(1, 90000, 80000))
	assert.Equal(t, models.TripWaiting, TripStatusFor(2, 50000, 80000))
	assert.Equal(t, models.TripReady, TripStatusFor(2, 80000, 80000))
	assert.Equal(t, models.TripReady, TripStatusFor(3, 120000, 80000))
}

func TestStatusRank(t *testing.T) {
	assert.Less(t, StatusRank(models.TripReady), StatusRank(models.TripWaiting))
	assert.Less(t, StatusRank(models.TripWaiting), StatusRank(models.TripPartial))
	assert.Less(t, StatusRank(models.TripPartial), StatusRank(models.TripFull))
	assert.Equal(t, 4, StatusRank("BOGUS"))
}
