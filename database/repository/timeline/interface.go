package timelineRepo

import (
	"context"
	"errors"

	"loadline/models"
)

// ErrDuplicateEvent reports that an event with the same eventId was already
// appended; callers treat it as success.
var ErrDuplicateEvent = errors.New("timeline event already recorded")

// Repository is the append-only event ledger.
type Repository interface {
	Append(ctx context.Context, ev *models.TimelineEvent) error
	ListBySubject(ctx context.Context, subject string) ([]models.TimelineEvent, error)
}
