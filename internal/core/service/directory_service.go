package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// DirectoryService owns event, user and interest storage. Privileged
// mutations (role changes, user blocks, event deletion) are gated through the
// Authorizer and recorded in the audit log.
type DirectoryService struct {
	events    ports.EventRepository
	users     ports.UserRepository
	interests ports.InterestRepository
	audit     ports.AuditRepository
	authz     ports.Authorizer
	bus       ports.NotificationPublisher
	logger    zerolog.Logger
}

func NewDirectoryService(
	events ports.EventRepository,
	users ports.UserRepository,
	interests ports.InterestRepository,
	audit ports.AuditRepository,
	authz ports.Authorizer,
	bus ports.NotificationPublisher,
	logger zerolog.Logger,
) *DirectoryService {
	return &DirectoryService{
		events:    events,
		users:     users,
		interests: interests,
		audit:     audit,
		authz:     authz,
		bus:       bus,
		logger:    logger,
	}
}

// CreateEvent validates the draft, assigns an id and seeds the participant
// set with the creator.
func (s *DirectoryService) CreateEvent(ctx context.Context, creatorID string, input ports.CreateEventInput) (*domain.Event, error) {
	if input.MaxParticipants < domain.MinParticipants {
		return nil, domain.ErrCapacityTooSmall
	}
	now := time.Now().UTC()
	if !input.EventDate.After(now) {
		return nil, domain.ErrEventDatePast
	}

	event := &domain.Event{
		ID:              generateEventID(),
		Title:           input.Title,
		Description:     input.Description,
		CategoryID:      input.CategoryID,
		CategoryIDs:     input.CategoryIDs,
		Address:         input.Address,
		EventDate:       input.EventDate.UTC(),
		CreatorID:       creatorID,
		MaxParticipants: input.MaxParticipants,
		ParticipantIDs:  []string{creatorID},
		IsActive:        true,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	event.CategoryIDs = event.Categories()
	if input.Lat != nil && input.Lng != nil {
		event.Location = &domain.Coordinates{Lat: *input.Lat, Lng: *input.Lng}
	}

	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("failed to create event")
		return nil, err
	}

	s.logger.Info().Str("event_id", event.ID).Str("creator_id", creatorID).Msg("event created")
	return event, nil
}

func (s *DirectoryService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.events.FindByID(ctx, id)
}

func (s *DirectoryService) ListEvents(ctx context.Context, input ports.ListEventsInput) (*ports.ListEventsResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.events.List(ctx, ports.ListEventsFilter{
		CreatorID:      input.CreatorID,
		ParticipantID:  input.ParticipantID,
		ActiveOnly:     input.ActiveOnly,
		IncludeBlocked: input.IncludeBlocked,
		DateFrom:       input.DateFrom,
		DateTo:         input.DateTo,
		Page:           page,
		Limit:          limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListEventsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// UpdateEvent replaces the stored event. Only the creator or an admin may
// update; the document's Version must match the stored one or ErrConflict is
// returned and the caller retries with a fresh read.
func (s *DirectoryService) UpdateEvent(ctx context.Context, actorID string, e *domain.Event) error {
	current, err := s.events.FindByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if actorID != current.CreatorID && !s.authz.IsAdmin(ctx, actorID) {
		return domain.ErrForbidden
	}
	if e.MaxParticipants < domain.MinParticipants {
		return domain.ErrCapacityTooSmall
	}

	// Membership, moderation state and creation bookkeeping are not editable
	// through the generic update path; joins and leaves go through their own
	// conditional writes and must not be clobbered by a profile edit.
	e.CreatorID = current.CreatorID
	e.ParticipantIDs = current.ParticipantIDs
	e.CreatedAt = current.CreatedAt
	e.ModerationNotes = current.ModerationNotes
	e.IsBlocked = current.IsBlocked
	e.BlockedBy = current.BlockedBy
	e.BlockedAt = current.BlockedAt
	e.BlockReason = current.BlockReason
	if e.IsBlocked {
		e.IsActive = false
	}
	e.CategoryIDs = e.Categories()
	e.UpdatedAt = time.Now().UTC()

	return s.events.Update(ctx, e)
}

// DeleteEvent soft-deletes an event: it is deactivated, never removed, so
// reports filed against it keep a resolvable target. Writes an audit entry.
func (s *DirectoryService) DeleteEvent(ctx context.Context, actorID, eventID, ip string) error {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return err
	}
	if actorID != event.CreatorID && !s.authz.IsAdmin(ctx, actorID) {
		return domain.ErrForbidden
	}

	if err := s.events.Deactivate(ctx, eventID, "deleted by "+actorID); err != nil {
		return err
	}

	entry := &domain.AuditEntry{
		AdminID:    actorID,
		Action:     domain.AuditEventDeleted,
		TargetType: domain.AuditTargetEvent,
		TargetID:   eventID,
		Changes:    map[string]string{"IsActive": "false"},
		CreatedAt:  time.Now().UTC(),
		IP:         ip,
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to append audit entry for event deletion")
	}

	s.logger.Info().Str("event_id", eventID).Str("actor_id", actorID).Msg("event deleted")
	return nil
}

// BlockEvent hides an event for a policy violation. Idempotent: blocking an
// already-blocked event succeeds without changing attribution.
func (s *DirectoryService) BlockEvent(ctx context.Context, moderatorID, eventID, reason string) error {
	if !s.authz.CanModerateEvents(ctx, moderatorID) {
		return domain.ErrForbidden
	}

	if err := s.events.Block(ctx, eventID, moderatorID, reason, time.Now().UTC()); err != nil {
		return err
	}

	s.publish(ports.Notification{
		Topic:   ports.TopicEventBlocked,
		EventID: eventID,
		UserID:  moderatorID,
		Message: reason,
		At:      time.Now().UTC(),
	})

	s.logger.Info().Str("event_id", eventID).Str("moderator_id", moderatorID).Msg("event blocked")
	return nil
}

func (s *DirectoryService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateUser applies profile edits. Role, credentials and block state are
// preserved from the stored record; those change only through dedicated
// admin operations.
func (s *DirectoryService) UpdateUser(ctx context.Context, actorID string, user *domain.User) error {
	current, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return err
	}
	if actorID != user.ID && !s.authz.IsAdmin(ctx, actorID) {
		return domain.ErrForbidden
	}

	// Interests are validated against the catalogue; ids nobody recognises
	// are silently dropped rather than rejected.
	if len(user.InterestIDs) > 0 {
		known, err := s.interests.FindByIDs(ctx, user.InterestIDs)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(known))
		for _, interest := range known {
			ids = append(ids, interest.ID)
		}
		user.InterestIDs = ids
	}

	user.Role = current.Role
	user.PasswordHash = current.PasswordHash
	user.BlockedUntil = current.BlockedUntil
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = time.Now().UTC()

	return s.users.Update(ctx, user)
}

// ChangeUserRole sets a user's role. Admin only; audited.
func (s *DirectoryService) ChangeUserRole(ctx context.Context, adminID, userID string, role domain.Role, ip string) error {
	if !s.authz.CanManageUsers(ctx, adminID) {
		return domain.ErrForbidden
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	previous := user.Role
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.appendAudit(ctx, &domain.AuditEntry{
		AdminID:    adminID,
		Action:     domain.AuditUserRoleChanged,
		TargetType: domain.AuditTargetUser,
		TargetID:   userID,
		Changes:    map[string]string{"Role": string(role), "PreviousRole": string(previous)},
		CreatedAt:  time.Now().UTC(),
		IP:         ip,
	})

	s.logger.Info().Str("user_id", userID).Str("role", string(role)).Str("admin_id", adminID).Msg("user role changed")
	return nil
}

// BlockUser suspends a user until the given time. Admin only; audited.
func (s *DirectoryService) BlockUser(ctx context.Context, adminID, userID string, until time.Time, ip string) error {
	if !s.authz.CanManageUsers(ctx, adminID) {
		return domain.ErrForbidden
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	u := until.UTC()
	user.BlockedUntil = &u
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.appendAudit(ctx, &domain.AuditEntry{
		AdminID:    adminID,
		Action:     domain.AuditUserBlocked,
		TargetType: domain.AuditTargetUser,
		TargetID:   userID,
		Changes:    map[string]string{"BlockedUntil": u.Format(time.RFC3339)},
		CreatedAt:  time.Now().UTC(),
		IP:         ip,
	})

	s.logger.Info().Str("user_id", userID).Time("until", u).Str("admin_id", adminID).Msg("user blocked")
	return nil
}

// UnblockUser lifts a suspension. Admin only; audited.
func (s *DirectoryService) UnblockUser(ctx context.Context, adminID, userID, ip string) error {
	if !s.authz.CanManageUsers(ctx, adminID) {
		return domain.ErrForbidden
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.BlockedUntil = nil
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.appendAudit(ctx, &domain.AuditEntry{
		AdminID:    adminID,
		Action:     domain.AuditUserUnblocked,
		TargetType: domain.AuditTargetUser,
		TargetID:   userID,
		Changes:    map[string]string{"BlockedUntil": ""},
		CreatedAt:  time.Now().UTC(),
		IP:         ip,
	})

	s.logger.Info().Str("user_id", userID).Str("admin_id", adminID).Msg("user unblocked")
	return nil
}

func (s *DirectoryService) ListInterests(ctx context.Context) ([]*domain.Interest, error) {
	return s.interests.List(ctx)
}

func (s *DirectoryService) appendAudit(ctx context.Context, entry *domain.AuditEntry) {
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("action", string(entry.Action)).Str("target_id", entry.TargetID).Msg("failed to append audit entry")
	}
}

func (s *DirectoryService) publish(n ports.Notification) {
	if s.bus != nil {
		s.bus.Publish(n)
	}
}

// generateEventID returns a unique event id in the format EVT-XXXXXXXX.
func generateEventID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// fallback: use current nanoseconds
		return fmt.Sprintf("EVT-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("EVT-%08X", b)
}
