package ports

import (
	"context"
	"time"

	"github.com/gatherly/community-service/internal/core/domain"
)

// CreateEventInput carries all data needed to create a new event.
type CreateEventInput struct {
	Title           string
	Description     string
	CategoryID      string // legacy single category, merged into CategoryIDs
	CategoryIDs     []string
	Address         string
	Lat             *float64
	Lng             *float64
	EventDate       time.Time
	MaxParticipants int
}

// ListEventsInput carries all parameters for the list endpoint.
type ListEventsInput struct {
	CreatorID      string
	ParticipantID  string
	ActiveOnly     bool
	IncludeBlocked bool
	DateFrom       time.Time
	DateTo         time.Time
	Page           int
	Limit          int
}

// ListEventsResult is returned by ListEvents.
type ListEventsResult struct {
	Items      []*domain.Event
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// DirectoryService owns event, user and interest records: storage, lookup and
// the privileged mutations that require an audit trail.
type DirectoryService interface {
	CreateEvent(ctx context.Context, creatorID string, input CreateEventInput) (*domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListEvents(ctx context.Context, input ListEventsInput) (*ListEventsResult, error)
	// UpdateEvent replaces the event document; only the creator or an admin may
	// update, and the event's Version must match the stored one.
	UpdateEvent(ctx context.Context, actorID string, e *domain.Event) error
	// DeleteEvent soft-deletes (deactivates) an event; creator or admin only.
	// Writes an audit entry.
	DeleteEvent(ctx context.Context, actorID, eventID, ip string) error
	// BlockEvent hides an event for policy violations; moderators only.
	// Idempotent when the event is already blocked.
	BlockEvent(ctx context.Context, moderatorID, eventID, reason string) error

	GetUser(ctx context.Context, id string) (*domain.User, error)
	// UpdateUser applies profile edits; the actor must be the user or an admin.
	UpdateUser(ctx context.Context, actorID string, user *domain.User) error
	// ChangeUserRole sets a user's role; admins only. Writes an audit entry.
	ChangeUserRole(ctx context.Context, adminID, userID string, role domain.Role, ip string) error
	// BlockUser suspends a user until the given time; admins only. Writes an
	// audit entry.
	BlockUser(ctx context.Context, adminID, userID string, until time.Time, ip string) error
	// UnblockUser lifts a suspension; admins only. Writes an audit entry.
	UnblockUser(ctx context.Context, adminID, userID, ip string) error

	ListInterests(ctx context.Context) ([]*domain.Interest, error)
}
