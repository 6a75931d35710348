package handlers

import (
	"net/http"

	"loadline/services/slot"
	"loadline/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps classified dispatch errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch slot.KindOf(err) {
	case slot.KindInvalidInput:
		status = http.StatusBadRequest
	case slot.KindNotFound:
		status = http.StatusNotFound
	case slot.KindAlreadyBooked, slot.KindDuplicateBooking, slot.KindConflict:
		status = http.StatusConflict
	case slot.KindNoCapacity, slot.KindBelowThreshold, slot.KindInvalidTransition:
		status = http.StatusUnprocessableEntity
	}
	utils.JSONError(c, status, err.Error(), "")
}
