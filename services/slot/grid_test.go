package slot

import (
	"context"
	"testing"

	"loadline/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	orders := newFakeOrderRepo(
		leafOrder("o1", 120000),
		leafOrder("o2", 50000), leafOrder("o3", 40000),
		leafOrder("o4", 20000),
	)
	svc, _ := newTestService(orders)
	ctx := context.Background()

	_, err := svc.BookSlot(ctx, BookRequest{
		CompanyCode: testCompany, Date: testDate, SlotTime: "10:00", OrderID: "o1", UserID: "u1",
	})
	require.NoError(t, err)
	for _, id := range []string{"o2", "o3"} {
		_, err = svc.BookSlot(ctx, BookRequest{
			CompanyCode: testCompany, Date: testDate, SlotTime: "12:00",
			OrderID: id, UserID: "u-" + id, LocationID: "7",
		})
		require.NoError(t, err)
	}
	_, err = svc.BookSlot(ctx, BookRequest{
		CompanyCode: testCompany, Date: testDate, SlotTime: "12:00",
		OrderID: "o4", UserID: "u4", LocationID: "9",
	})
	require.NoError(t, err)

	grid, err := svc.Grid(ctx, testCompany, testDate)
	require.NoError(t, err)
	assert.Equal(t, 80000.0, grid.Threshold)
	assert.Len(t, grid.Full, len(models.DefaultSlotTimes().Flatten()))

	var ten *FullRow
	for i := range grid.Full {
		row := &grid.Full[i]
		if row.Night {
			assert.False(t, row.Open)
		}
		if row.Time == "10:00" {
			ten = row
		}
	}
	require.NotNil(t, ten)
	require.Len(t, ten.Positions, 4)
	assert.Equal(t, models.SlotBooked, ten.Positions[0].Status)
	assert.Equal(t, "o1", ten.Positions[0].OrderID)
	assert.Equal(t, models.SlotAvailable, ten.Positions[1].Status)

	// The ready bucket sorts ahead of the partial one.
	require.Len(t, grid.Merges, 2)
	assert.Equal(t, "LOC#7", grid.Merges[0].MergeKey)
	assert.Equal(t, models.TripReady, grid.Merges[0].TripStatus)
	assert.Equal(t, "LOC#9", grid.Merges[1].MergeKey)

	require.Len(t, grid.Day, 2)
	assert.Equal(t, "LOC#7", grid.Day[0].MergeKey)
	assert.Equal(t, 90000.0, grid.Day[0].TotalAmount)
}

func TestGridValidation(t *testing.T) {
	svc, _ := newTestService(newFakeOrderRepo())
	_, err := svc.Grid(context.Background(), "", "")
	assert.Equal(t, KindInvalidInput, KindOf(err))
}
