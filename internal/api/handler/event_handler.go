package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatherly/community-service/internal/api/metrics"
	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

// EventHandler handles HTTP requests for event directory and membership
// operations.
type EventHandler struct {
	directory  ports.DirectoryService
	membership ports.MembershipService
	authz      ports.Authorizer
}

func NewEventHandler(directory ports.DirectoryService, membership ports.MembershipService, authz ports.Authorizer) *EventHandler {
	return &EventHandler{directory: directory, membership: membership, authz: authz}
}

// Create handles POST /v1/events.
//
// @Summary      Create a new event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createEventRequest  true  "Event draft"
// @Success      201   {object}  domain.Event
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/events [post]
func (h *EventHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	input := ports.CreateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		CategoryIDs:     req.CategoryIDs,
		Address:         req.Address,
		EventDate:       req.EventDate,
		MaxParticipants: req.MaxParticipants,
	}
	if req.Location != nil {
		input.Lat = &req.Location.Lat
		input.Lng = &req.Location.Lng
	}

	event, err := h.directory.CreateEvent(c.Request().Context(), userID, input)
	if err != nil {
		return err
	}

	metrics.EventsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, event)
}

// Get handles GET /v1/events/:id.
//
// @Summary      Get an event by id
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event id (e.g. EVT-7A8B9C2D)"
// @Success      200  {object}  domain.Event
// @Failure      404  {object}  map[string]string
// @Router       /v1/events/{id} [get]
func (h *EventHandler) Get(c echo.Context) error {
	event, err := h.directory.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, event)
}

// List handles GET /v1/events.
//
// @Summary      List events
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        creator_id      query     string  false  "Filter by creator"
// @Param        participant_id  query     string  false  "Filter by participant"
// @Param        active          query     bool    false  "Only active events (default true)"
// @Param        include_blocked query     bool    false  "Include blocked events (moderators only)"
// @Param        date_from       query     string  false  "RFC3339 lower bound on event date"
// @Param        date_to         query     string  false  "RFC3339 upper bound on event date"
// @Param        page            query     int     false  "Page number (1-based)"
// @Param        limit           query     int     false  "Page size (max 100)"
// @Success      200             {object}  listEventsResponse
// @Failure      400             {object}  map[string]string
// @Router       /v1/events [get]
func (h *EventHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	input := ports.ListEventsInput{
		CreatorID:     c.QueryParam("creator_id"),
		ParticipantID: c.QueryParam("participant_id"),
		ActiveOnly:    true,
	}

	if v := c.QueryParam("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid active parameter")
		}
		input.ActiveOnly = active
	}

	// Blocked events stay hidden from regular members even when asked for.
	if v := c.QueryParam("include_blocked"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid include_blocked parameter")
		}
		input.IncludeBlocked = include && h.authz.IsModerator(c.Request().Context(), userID)
	}

	if v := c.QueryParam("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date_from parameter")
		}
		input.DateFrom = t
	}
	if v := c.QueryParam("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date_to parameter")
		}
		input.DateTo = t
	}

	input.Page, _ = strconv.Atoi(c.QueryParam("page"))
	input.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	result, err := h.directory.ListEvents(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listEventsResponse{
		Items:      result.Items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// Update handles PUT /v1/events/:id.
//
// @Summary      Update an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Event id"
// @Param        body  body      updateEventRequest  true  "Updated event; version must match the last read"
// @Success      200   {object}  domain.Event
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	event := &domain.Event{
		ID:              c.Param("id"),
		Title:           req.Title,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		CategoryIDs:     req.CategoryIDs,
		Address:         req.Address,
		EventDate:       req.EventDate.UTC(),
		MaxParticipants: req.MaxParticipants,
		IsActive:        req.IsActive,
		Version:         req.Version,
	}
	if req.Location != nil {
		event.Location = &domain.Coordinates{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}

	if err := h.directory.UpdateEvent(c.Request().Context(), userID, event); err != nil {
		return err
	}

	updated, err := h.directory.GetEvent(c.Request().Context(), event.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/events/:id — soft delete.
//
// @Summary      Delete (deactivate) an event
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.directory.DeleteEvent(c.Request().Context(), userID, c.Param("id"), c.RealIP()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "event deleted"})
}

// Join handles POST /v1/events/:id/join.
//
// @Summary      Join an event
// @Tags         membership
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/events/{id}/join [post]
func (h *EventHandler) Join(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	joinErr := h.membership.Join(c.Request().Context(), c.Param("id"), userID)
	metrics.JoinsTotal.WithLabelValues(joinResult(joinErr)).Inc()
	if joinErr != nil {
		return joinErr
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "joined"})
}

// Leave handles DELETE /v1/events/:id/join.
//
// @Summary      Leave an event
// @Tags         membership
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/events/{id}/join [delete]
func (h *EventHandler) Leave(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.membership.Leave(c.Request().Context(), c.Param("id"), userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "left"})
}

// Block handles POST /v1/events/:id/block — moderator action.
//
// @Summary      Block an event for a policy violation
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Event id"
// @Param        body  body      blockEventRequest  true  "Block reason"
// @Success      200   {object}  messageResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/events/{id}/block [post]
func (h *EventHandler) Block(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req blockEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.directory.BlockEvent(c.Request().Context(), userID, c.Param("id"), req.Reason); err != nil {
		return err
	}

	metrics.EventsBlockedTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "event blocked"})
}

// joinResult maps a Join outcome to its metric label.
func joinResult(err error) string {
	switch {
	case err == nil:
		return "joined"
	case errors.Is(err, domain.ErrEventFull):
		return "full"
	case errors.Is(err, domain.ErrAlreadyParticipant):
		return "already_member"
	case errors.Is(err, domain.ErrEventNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrEventInactive):
		return "inactive"
	default:
		return "error"
	}
}
