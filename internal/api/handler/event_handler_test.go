package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

type stubDirectoryService struct {
	createFn func(ctx context.Context, creatorID string, input ports.CreateEventInput) (*domain.Event, error)
	getFn    func(ctx context.Context, id string) (*domain.Event, error)
	listFn   func(ctx context.Context, input ports.ListEventsInput) (*ports.ListEventsResult, error)
	blockFn  func(ctx context.Context, moderatorID, eventID, reason string) error
}

func (s *stubDirectoryService) CreateEvent(ctx context.Context, creatorID string, input ports.CreateEventInput) (*domain.Event, error) {
	return s.createFn(ctx, creatorID, input)
}

func (s *stubDirectoryService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.getFn(ctx, id)
}

func (s *stubDirectoryService) ListEvents(ctx context.Context, input ports.ListEventsInput) (*ports.ListEventsResult, error) {
	return s.listFn(ctx, input)
}

func (s *stubDirectoryService) UpdateEvent(ctx context.Context, actorID string, e *domain.Event) error {
	return nil
}

func (s *stubDirectoryService) DeleteEvent(ctx context.Context, actorID, eventID, ip string) error {
	return nil
}

func (s *stubDirectoryService) BlockEvent(ctx context.Context, moderatorID, eventID, reason string) error {
	return s.blockFn(ctx, moderatorID, eventID, reason)
}

func (s *stubDirectoryService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubDirectoryService) UpdateUser(ctx context.Context, actorID string, user *domain.User) error {
	return nil
}

func (s *stubDirectoryService) ChangeUserRole(ctx context.Context, adminID, userID string, role domain.Role, ip string) error {
	return nil
}

func (s *stubDirectoryService) BlockUser(ctx context.Context, adminID, userID string, until time.Time, ip string) error {
	return nil
}

func (s *stubDirectoryService) UnblockUser(ctx context.Context, adminID, userID, ip string) error {
	return nil
}

func (s *stubDirectoryService) ListInterests(ctx context.Context) ([]*domain.Interest, error) {
	return nil, nil
}

type stubMembershipService struct {
	joinFn  func(ctx context.Context, eventID, userID string) error
	leaveFn func(ctx context.Context, eventID, userID string) error
}

func (s *stubMembershipService) Join(ctx context.Context, eventID, userID string) error {
	return s.joinFn(ctx, eventID, userID)
}

func (s *stubMembershipService) Leave(ctx context.Context, eventID, userID string) error {
	return s.leaveFn(ctx, eventID, userID)
}

type allowAllAuthz struct{}

func (allowAllAuthz) RoleOf(context.Context, string) domain.Role     { return domain.RoleAdmin }
func (allowAllAuthz) IsModerator(context.Context, string) bool       { return true }
func (allowAllAuthz) IsAdmin(context.Context, string) bool           { return true }
func (allowAllAuthz) CanModerateEvents(context.Context, string) bool { return true }
func (allowAllAuthz) CanManageUsers(context.Context, string) bool    { return true }

func TestEventHandler_Create_Success(t *testing.T) {
	e := newTestEcho()
	dir := &stubDirectoryService{
		createFn: func(ctx context.Context, creatorID string, input ports.CreateEventInput) (*domain.Event, error) {
			if creatorID != "usr_1" || input.Title != "Board games night" {
				t.Fatalf("unexpected input: %s %+v", creatorID, input)
			}
			return &domain.Event{
				ID:              "EVT-00000001",
				Title:           input.Title,
				CreatorID:       creatorID,
				MaxParticipants: input.MaxParticipants,
				ParticipantIDs:  []string{creatorID},
				IsActive:        true,
				Version:         1,
			}, nil
		},
	}
	handler := NewEventHandler(dir, &stubMembershipService{}, allowAllAuthz{})

	date := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	body := strings.NewReader(`{"title":"Board games night","address":"Cafe Central","event_date":"` + date + `","max_participants":6}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/events", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "usr_1")

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var event domain.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &event); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if event.ID != "EVT-00000001" || event.ParticipantIDs[0] != "usr_1" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
}

func TestEventHandler_Create_CapacityTooSmall(t *testing.T) {
	e := newTestEcho()
	dir := &stubDirectoryService{
		createFn: func(ctx context.Context, creatorID string, input ports.CreateEventInput) (*domain.Event, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewEventHandler(dir, &stubMembershipService{}, allowAllAuthz{})

	date := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	body := strings.NewReader(`{"title":"Solo event","address":"Nowhere","event_date":"` + date + `","max_participants":1}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/events", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "usr_1")

	if err := handler.Create(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestEventHandler_Join_Success(t *testing.T) {
	e := newTestEcho()
	membership := &stubMembershipService{
		joinFn: func(ctx context.Context, eventID, userID string) error {
			if eventID != "EVT-00000001" || userID != "usr_2" {
				t.Fatalf("unexpected args: %s %s", eventID, userID)
			}
			return nil
		},
	}
	handler := NewEventHandler(&stubDirectoryService{}, membership, allowAllAuthz{})

	req := httptest.NewRequest(http.MethodPost, "/v1/events/EVT-00000001/join", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("EVT-00000001")
	c.Set("user_id", "usr_2")

	if err := handler.Join(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestEventHandler_Join_Full(t *testing.T) {
	e := newTestEcho()
	membership := &stubMembershipService{
		joinFn: func(ctx context.Context, eventID, userID string) error {
			return domain.ErrEventFull
		},
	}
	handler := NewEventHandler(&stubDirectoryService{}, membership, allowAllAuthz{})

	req := httptest.NewRequest(http.MethodPost, "/v1/events/EVT-00000001/join", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("EVT-00000001")
	c.Set("user_id", "usr_2")

	err := handler.Join(c)
	if !errors.Is(err, domain.ErrEventFull) {
		t.Fatalf("expected ErrEventFull, got %v", err)
	}
}

func TestEventHandler_Block_Success(t *testing.T) {
	e := newTestEcho()
	dir := &stubDirectoryService{
		blockFn: func(ctx context.Context, moderatorID, eventID, reason string) error {
			if moderatorID != "mod_1" || eventID != "EVT-00000001" || reason != "scam listing" {
				t.Fatalf("unexpected args: %s %s %s", moderatorID, eventID, reason)
			}
			return nil
		},
	}
	handler := NewEventHandler(dir, &stubMembershipService{}, allowAllAuthz{})

	body := strings.NewReader(`{"reason":"scam listing"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/events/EVT-00000001/block", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("EVT-00000001")
	c.Set("user_id", "mod_1")

	if err := handler.Block(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestEventHandler_List_DefaultsToActive(t *testing.T) {
	e := newTestEcho()
	dir := &stubDirectoryService{
		listFn: func(ctx context.Context, input ports.ListEventsInput) (*ports.ListEventsResult, error) {
			if !input.ActiveOnly {
				t.Fatalf("expected ActiveOnly by default")
			}
			if input.IncludeBlocked {
				t.Fatalf("blocked events must not appear without the flag")
			}
			return &ports.ListEventsResult{
				Items: []*domain.Event{{ID: "EVT-00000001"}},
				Total: 1, Page: 1, Limit: 20, TotalPages: 1,
			}, nil
		},
	}
	handler := NewEventHandler(dir, &stubMembershipService{}, allowAllAuthz{})

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "usr_1")

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp listEventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("unexpected list payload: %+v", resp)
	}
}
