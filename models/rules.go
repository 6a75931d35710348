package models

// SlotTimes is the per-company table of bookable FULL slot times.
type SlotTimes struct {
	Morning   []string `bson:"morning" json:"morning"`
	Afternoon []string `bson:"afternoon" json:"afternoon"`
	Evening   []string `bson:"evening" json:"evening"`
	Night     []string `bson:"night" json:"night"`
}

// Flatten returns all slot times in display order.
func (st SlotTimes) Flatten() []string {
	out := make([]string, 0, len(st.Morning)+len(st.Afternoon)+len(st.Evening)+len(st.Night))
	out = append(out, st.Morning...)
	out = append(out, st.Afternoon...)
	out = append(out, st.Evening...)
	out = append(out, st.Night...)
	return out
}

// DefaultSlotTimes is the slot table used when a company has not customized
// its rules.
func DefaultSlotTimes() SlotTimes {
	return SlotTimes{
		Morning:   []string{"09:00", "09:30", "10:00", "10:30"},
		Afternoon: []string{"12:00", "12:30", "13:00", "13:30"},
		Evening:   []string{"15:00", "15:30", "16:00", "16:30"},
		Night:     []string{"18:00", "18:30", "19:00", "19:30"},
	}
}

// DispatchRules is the per-company configuration record loaded at the start
// of every dispatch operation.
type DispatchRules struct {
	CompanyCode       string    `bson:"companyCode" json:"companyCode"`
	Threshold         float64   `bson:"threshold" json:"threshold"`
	LastSlotEnabled   bool      `bson:"lastSlotEnabled" json:"lastSlotEnabled"`
	LastSlotOpenAfter string    `bson:"lastSlotOpenAfter" json:"lastSlotOpenAfter"`
	SlotTimes         SlotTimes `bson:"slotTimes" json:"slotTimes"`
}

// NightSlot reports whether the given time belongs to the night block,
// which stays closed until a manager opens it.
func (r DispatchRules) NightSlot(slotTime string) bool {
	for _, t := range r.SlotTimes.Night {
		if t == slotTime {
			return true
		}
	}
	return false
}
