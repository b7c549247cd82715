package handler

import (
	"time"

	"github.com/gatherly/community-service/internal/core/domain"
)

type coordinatesRequest struct {
	Lat float64 `json:"lat" validate:"required"`
	Lng float64 `json:"lng" validate:"required"`
}

type createEventRequest struct {
	Title           string              `json:"title" validate:"required,min=3"`
	Description     string              `json:"description"`
	CategoryID      string              `json:"category_id"`
	CategoryIDs     []string            `json:"category_ids"`
	Address         string              `json:"address" validate:"required"`
	Location        *coordinatesRequest `json:"location"`
	EventDate       time.Time           `json:"event_date" validate:"required"`
	MaxParticipants int                 `json:"max_participants" validate:"required,min=2"`
}

type updateEventRequest struct {
	Title           string              `json:"title" validate:"required,min=3"`
	Description     string              `json:"description"`
	CategoryID      string              `json:"category_id"`
	CategoryIDs     []string            `json:"category_ids"`
	Address         string              `json:"address" validate:"required"`
	Location        *coordinatesRequest `json:"location"`
	EventDate       time.Time           `json:"event_date" validate:"required"`
	MaxParticipants int                 `json:"max_participants" validate:"required,min=2"`
	IsActive        bool                `json:"is_active"`
	// Version must echo the version from the last read; a stale value is
	// rejected with 409.
	Version int64 `json:"version" validate:"required,min=1"`
}

type listEventsResponse struct {
	Items      []*domain.Event `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

type blockEventRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}
