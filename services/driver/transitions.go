package driver

import (
	"strings"

	"loadline/models"
	"loadline/services/slot"
)

// Stage-indexed delivery statuses. The _D1/_D2 suffix names the stop the
// event belongs to.
const (
	ReachedD1        = "REACHED_D1"
	ReachedD2        = "REACHED_D2"
	UnloadingStartD1 = "UNLOADING_START_D1"
	UnloadingStartD2 = "UNLOADING_START_D2"
	UnloadingEndD1   = "UNLOADING_END_D1"
	UnloadingEndD2   = "UNLOADING_END_D2"
)

// Generic event names the driver app may send instead of stage-indexed ones.
const (
	EventReachedDistributor = "DRIVER_REACHED_DISTRIBUTOR"
	EventUnloadStart        = "UNLOAD_START"
	EventUnloadEnd          = "UNLOAD_END"
)

// transitions is the allowed next-group table of the delivery state machine.
var transitions = map[string][]string{
	models.StatusDriverAssigned:    {models.StatusDriverStarted},
	models.StatusDriverStarted:     {"REACHED"},
	"REACHED":                      {"UNLOADING_START"},
	"UNLOADING_START":              {"UNLOADING_END"},
	"UNLOADING_END":                {"REACHED", models.StatusWarehouseReached},
	models.StatusWarehouseReached:  {models.StatusDeliveryCompleted},
	models.StatusDeliveryCompleted: {},
}

// groupStatus collapses stage-indexed statuses onto the groups the
// transition table is keyed by.
func groupStatus(s string) string {
	x := models.NormalizeStatus(s)
	switch {
	case strings.HasPrefix(x, "REACHED_D"):
		return "REACHED"
	case strings.HasPrefix(x, "UNLOADING_START_D"):
		return "UNLOADING_START"
	case strings.HasPrefix(x, "UNLOADING_END_D"):
		return "UNLOADING_END"
	}
	return x
}

// ValidateTransition rejects delivery status jumps the table does not allow.
func ValidateTransition(current, next string) error {
	c := groupStatus(current)
	n := groupStatus(next)
	for _, allowed := range transitions[c] {
		if allowed == n {
			return nil
		}
	}
	return slot.Errorf(slot.KindInvalidTransition, "invalid status transition: %s -> %s", c, n)
}

// StopLabel names a stop for timeline display.
func StopLabel(idx int) string {
	if idx == 0 {
		return "D1"
	}
	return "D2"
}

func reachedEvent(idx int) string {
	if idx == 0 {
		return ReachedD1
	}
	return ReachedD2
}

func unloadStartEvent(idx int) string {
	if idx == 0 {
		return UnloadingStartD1
	}
	return UnloadingStartD2
}

func unloadEndEvent(idx int) string {
	if idx == 0 {
		return UnloadingEndD1
	}
	return UnloadingEndD2
}

// secondStopEvents are rejected outright on single-stop orders.
var secondStopEvents = map[string]bool{
	ReachedD2:        true,
	UnloadingStartD2: true,
	UnloadingEndD2:   true,
}
