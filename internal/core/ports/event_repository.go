package ports

import (
	"context"
	"time"

	"github.com/gatherly/community-service/internal/core/domain"
)

// ListEventsFilter carries all query parameters for listing events.
// Zero values mean "no filter" for the respective field.
type ListEventsFilter struct {
	CreatorID      string    // events created by this user
	ParticipantID  string    // events this user participates in
	ActiveOnly     bool      // only active events
	IncludeBlocked bool      // blocked events are excluded unless set
	DateFrom       time.Time // event_date >= DateFrom
	DateTo         time.Time // event_date <= DateTo
	Page           int       // 1-based
	Limit          int       // max rows per page (capped at 100 by service)
}

// EventRepository defines persistence operations for events.
//
// Participant mutation and blocking are atomic check-and-set operations so
// that concurrent callers on the same event are linearized at the store:
// two racing Join calls must not both pass the capacity check.
type EventRepository interface {
	Create(ctx context.Context, e *domain.Event) error
	FindByID(ctx context.Context, id string) (*domain.Event, error)
	// List returns a page of events matching filter and the total count.
	List(ctx context.Context, filter ListEventsFilter) ([]*domain.Event, int64, error)
	// Update replaces the full document keyed by id, guarded by the event's
	// Version field. Returns domain.ErrEventNotFound for an unknown id and
	// domain.ErrConflict when the stored version has moved on.
	Update(ctx context.Context, e *domain.Event) error

	// AddParticipant appends userID iff the event exists, is active, is not
	// blocked, is not full, and userID is not already a member. Violations map
	// to domain.ErrEventNotFound, domain.ErrEventInactive, domain.ErrEventFull
	// and domain.ErrAlreadyParticipant respectively.
	AddParticipant(ctx context.Context, eventID, userID string) error
	// RemoveParticipant removes userID; domain.ErrNotParticipant when absent.
	RemoveParticipant(ctx context.Context, eventID, userID string) error

	// Block marks the event blocked and inactive with the given attribution.
	// Blocking an already-blocked event is a no-op success.
	Block(ctx context.Context, eventID, moderatorID, reason string, at time.Time) error
	// Deactivate clears IsActive and appends moderation notes, leaving
	// IsBlocked untouched.
	Deactivate(ctx context.Context, eventID, notes string) error
}
