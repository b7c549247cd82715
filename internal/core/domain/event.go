package domain

import (
	"errors"
	"time"
)

// MinParticipants is the smallest allowed event capacity: the creator plus one guest.
const MinParticipants = 2

var ErrEventNotFound = errors.New("event not found")
var ErrEventInactive = errors.New("event is not active")
var ErrEventFull = errors.New("event is full")
var ErrAlreadyParticipant = errors.New("user is already a participant")
var ErrNotParticipant = errors.New("user is not a participant")
var ErrCapacityTooSmall = errors.New("max participants must be at least 2")
var ErrEventDatePast = errors.New("event date must be in the future")
var ErrConflict = errors.New("concurrent modification conflict")

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Event is a user-created meetup with capacity and schedule.
type Event struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`

	// CategoryID is the legacy single-category field, still populated by old
	// clients. CategoryIDs supersedes it; readers must consult both via Categories.
	CategoryID  string   `json:"category_id,omitempty" bson:"category_id,omitempty"`
	CategoryIDs []string `json:"category_ids" bson:"category_ids"`

	Address  string       `json:"address" bson:"address"`
	Location *Coordinates `json:"location,omitempty" bson:"location,omitempty"`

	EventDate       time.Time `json:"event_date" bson:"event_date"`
	CreatorID       string    `json:"creator_id" bson:"creator_id"`
	MaxParticipants int       `json:"max_participants" bson:"max_participants"`
	ParticipantIDs  []string  `json:"participant_ids" bson:"participant_ids"`

	IsActive  bool       `json:"is_active" bson:"is_active"`
	IsBlocked bool       `json:"is_blocked" bson:"is_blocked"`
	BlockedBy string     `json:"blocked_by,omitempty" bson:"blocked_by,omitempty"`
	BlockedAt *time.Time `json:"blocked_at,omitempty" bson:"blocked_at,omitempty"`
	// BlockReason is set alongside IsBlocked; blocking always deactivates the event.
	BlockReason     string `json:"block_reason,omitempty" bson:"block_reason,omitempty"`
	ModerationNotes string `json:"moderation_notes,omitempty" bson:"moderation_notes,omitempty"`

	// Version guards full-document updates with optimistic concurrency.
	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ParticipantsCount returns the current number of participants.
func (e *Event) ParticipantsCount() int {
	return len(e.ParticipantIDs)
}

// IsFull reports whether the event has reached capacity.
func (e *Event) IsFull() bool {
	return len(e.ParticipantIDs) >= e.MaxParticipants
}

// IsCompleted reports whether the event is over: its date has passed or it was blocked.
func (e *Event) IsCompleted(now time.Time) bool {
	return e.IsBlocked || e.EventDate.Before(now)
}

// HasParticipant reports whether userID is in the participant set.
func (e *Event) HasParticipant(userID string) bool {
	for _, id := range e.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Categories merges the legacy single category with the category list,
// without duplicates. Order: legacy id first, then list order.
func (e *Event) Categories() []string {
	out := make([]string, 0, len(e.CategoryIDs)+1)
	if e.CategoryID != "" {
		out = append(out, e.CategoryID)
	}
	for _, id := range e.CategoryIDs {
		if id == "" {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == id {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, id)
		}
	}
	return out
}
