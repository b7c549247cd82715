package ports

import "context"

// MembershipService manages an event's participant set.
type MembershipService interface {
	// Join adds userID to the event's participant set. Fails with
	// domain.ErrEventNotFound, domain.ErrEventInactive, domain.ErrEventFull or
	// domain.ErrAlreadyParticipant.
	Join(ctx context.Context, eventID, userID string) error
	// Leave removes userID from the participant set. Fails with
	// domain.ErrEventNotFound or domain.ErrNotParticipant.
	Leave(ctx context.Context, eventID, userID string) error
}
