package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatherly/community-service/internal/core/ports"
)

type membershipService struct {
	events ports.EventRepository
	bus    ports.NotificationPublisher
	log    zerolog.Logger
}

// NewMembershipService returns a MembershipService backed by the event store.
func NewMembershipService(events ports.EventRepository, bus ports.NotificationPublisher, log zerolog.Logger) ports.MembershipService {
	return &membershipService{events: events, bus: bus, log: log}
}

// Join adds the user to the event's participant set. The capacity check and
// the append happen in a single conditional write at the repository, so
// concurrent joins racing for the last slot are serialized there: exactly one
// succeeds, the rest see ErrEventFull.
func (s *membershipService) Join(ctx context.Context, eventID, userID string) error {
	if err := s.events.AddParticipant(ctx, eventID, userID); err != nil {
		return err
	}

	s.publish(ports.Notification{
		Topic:   ports.TopicMemberJoined,
		EventID: eventID,
		UserID:  userID,
		At:      time.Now().UTC(),
	})

	s.log.Info().Str("event_id", eventID).Str("user_id", userID).Msg("user joined event")
	return nil
}

// Leave removes the user from the participant set. A creator may leave their
// own event through this path; ownership is not transferred.
func (s *membershipService) Leave(ctx context.Context, eventID, userID string) error {
	if err := s.events.RemoveParticipant(ctx, eventID, userID); err != nil {
		return err
	}

	s.publish(ports.Notification{
		Topic:   ports.TopicMemberLeft,
		EventID: eventID,
		UserID:  userID,
		At:      time.Now().UTC(),
	})

	s.log.Info().Str("event_id", eventID).Str("user_id", userID).Msg("user left event")
	return nil
}

func (s *membershipService) publish(n ports.Notification) {
	if s.bus != nil {
		s.bus.Publish(n)
	}
}
