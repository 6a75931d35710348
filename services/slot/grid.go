package slot

import (
	"context"
	"sort"
	"strings"

	"loadline/models"
)

// PositionCell is one truck position in the grid.
type PositionCell struct {
	Position        string  `json:"position"`
	Status          string  `json:"status"`
	OrderID         string  `json:"orderId,omitempty"`
	DistributorName string  `json:"distributorName,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
}

// FullRow is one slot time with its four positions.
type FullRow struct {
	Time      string         `json:"time"`
	Night     bool           `json:"night"`
	Open      bool           `json:"open"`
	Positions []PositionCell `json:"positions"`
}

// MergeRow is one time-scoped merge bucket.
type MergeRow struct {
	Time         string  `json:"time"`
	MergeKey     string  `json:"mergeKey"`
	LocationID   string  `json:"locationId,omitempty"`
	TotalAmount  float64 `json:"totalAmount"`
	BookingCount int     `json:"bookingCount"`
	TripStatus   string  `json:"tripStatus"`
	Blink        bool    `json:"blink"`
}

// DayRow is one day-scoped merge bucket.
type DayRow struct {
	MergeKey     string  `json:"mergeKey"`
	LocationID   string  `json:"locationId,omitempty"`
	TotalAmount  float64 `json:"totalAmount"`
	BookingCount int     `json:"bookingCount"`
	TripStatus   string  `json:"tripStatus"`
	Blink        bool    `json:"blink"`
}

// SlotGrid is the dispatcher's board for one company and day.
type SlotGrid struct {
	CompanyCode string     `json:"companyCode"`
	Date        string     `json:"date"`
	Threshold   float64    `json:"threshold"`
	Full        []FullRow  `json:"full"`
	Merges      []MergeRow `json:"merges"`
	Day         []DayRow   `json:"day"`
}

// Grid assembles the read model for one company-day: every slot time with
// its position occupancy, plus the merge buckets ranked most actionable
// first.
func (s *DefaultSlotService) Grid(ctx context.Context, companyCode, date string) (*SlotGrid, error) {
	if companyCode == "" || date == "" {
		return nil, newError(KindInvalidInput, "companyCode and date are required")
	}

	r, err := s.Rules.Resolve(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	caps, err := s.Repo.ListCapacity(ctx, companyCode, date)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*models.SlotCapacity, len(caps))
	for i := range caps {
		byKey[caps[i].Key] = &caps[i]
	}

	grid := &SlotGrid{CompanyCode: companyCode, Date: date, Threshold: r.Threshold}

	for _, t := range r.SlotTimes.Flatten() {
		row := FullRow{
			Time:  t,
			Night: r.NightSlot(t),
			Open:  !r.NightSlot(t) || s.nightOpen(r),
		}
		for _, pos := range models.AllPositions {
			cell := PositionCell{Position: pos, Status: models.SlotAvailable}
			if c, ok := byKey[models.FullSlotKey(t, pos)]; ok && c.Status != "" {
				cell.Status = c.Status
				cell.OrderID = c.OrderID
				cell.DistributorName = c.DistributorName
				cell.Amount = c.Amount
			}
			row.Positions = append(row.Positions, cell)
		}
		grid.Full = append(grid.Full, row)
	}

	for i := range caps {
		c := &caps[i]
		switch {
		case strings.HasPrefix(c.Key, "MERGE_SLOT#"):
			grid.Merges = append(grid.Merges, MergeRow{
				Time:         c.Time,
				MergeKey:     c.MergeKey,
				LocationID:   c.LocationID,
				TotalAmount:  c.TotalAmount,
				BookingCount: c.BookingCount,
				TripStatus:   c.TripStatus,
				Blink:        c.Blink,
			})
		case strings.HasPrefix(c.Key, "MERGE_DAY#"):
			grid.Day = append(grid.Day, DayRow{
				MergeKey:     c.MergeKey,
				LocationID:   c.LocationID,
				TotalAmount:  c.TotalAmount,
				BookingCount: c.BookingCount,
				TripStatus:   c.TripStatus,
				Blink:        c.Blink,
			})
		}
	}

	sort.SliceStable(grid.Merges, func(i, j int) bool {
		a, b := grid.Merges[i], grid.Merges[j]
		if ra, rb := StatusRank(a.TripStatus), StatusRank(b.TripStatus); ra != rb {
			return ra < rb
		}
		if a.TotalAmount != b.TotalAmount {
			return a.TotalAmount > b.TotalAmount
		}
		return a.Time < b.Time
	})
	sort.SliceStable(grid.Day, func(i, j int) bool {
		a, b := grid.Day[i], grid.Day[j]
		if ra, rb := StatusRank(a.TripStatus), StatusRank(b.TripStatus); ra != rb {
			return ra < rb
		}
		return a.TotalAmount > b.TotalAmount
	})

	return grid, nil
}
