package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared across the service tests in this package.
// ---------------------------------------------------------------------------

type stubEventRepo struct {
	byID      map[string]*domain.Event
	createErr error
	updateErr error
	blockErr  error

	deactivated map[string]string // event id -> notes
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{
		byID:        make(map[string]*domain.Event),
		deactivated: make(map[string]string),
	}
}

func (r *stubEventRepo) Create(_ context.Context, e *domain.Event) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *e
	r.byID[e.ID] = &clone
	return nil
}

func (r *stubEventRepo) FindByID(_ context.Context, id string) (*domain.Event, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *stubEventRepo) List(_ context.Context, f ports.ListEventsFilter) ([]*domain.Event, int64, error) {
	var matched []*domain.Event
	for _, e := range r.byID {
		if f.CreatorID != "" && e.CreatorID != f.CreatorID {
			continue
		}
		if f.ParticipantID != "" && !e.HasParticipant(f.ParticipantID) {
			continue
		}
		if f.ActiveOnly && !e.IsActive {
			continue
		}
		if !f.IncludeBlocked && e.IsBlocked {
			continue
		}
		clone := *e
		matched = append(matched, &clone)
	}
	return matched, int64(len(matched)), nil
}

// Update applies the same version guard the real Mongo repo uses.
func (r *stubEventRepo) Update(_ context.Context, e *domain.Event) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	current, ok := r.byID[e.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if current.Version != e.Version {
		return domain.ErrConflict
	}
	clone := *e
	clone.Version++
	r.byID[e.ID] = &clone
	return nil
}

// AddParticipant mirrors the conditional write of the real repository:
// the precondition check and the append are a single step.
func (r *stubEventRepo) AddParticipant(_ context.Context, eventID, userID string) error {
	e, ok := r.byID[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if !e.IsActive || e.IsCompleted(time.Now().UTC()) {
		return domain.ErrEventInactive
	}
	if e.HasParticipant(userID) {
		return domain.ErrAlreadyParticipant
	}
	if e.IsFull() {
		return domain.ErrEventFull
	}
	e.ParticipantIDs = append(e.ParticipantIDs, userID)
	e.Version++
	return nil
}

func (r *stubEventRepo) RemoveParticipant(_ context.Context, eventID, userID string) error {
	e, ok := r.byID[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	for i, id := range e.ParticipantIDs {
		if id == userID {
			e.ParticipantIDs = append(e.ParticipantIDs[:i], e.ParticipantIDs[i+1:]...)
			e.Version++
			return nil
		}
	}
	return domain.ErrNotParticipant
}

func (r *stubEventRepo) Block(_ context.Context, eventID, moderatorID, reason string, at time.Time) error {
	if r.blockErr != nil {
		return r.blockErr
	}
	e, ok := r.byID[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if e.IsBlocked {
		return nil // idempotent
	}
	e.IsBlocked = true
	e.IsActive = false
	e.BlockedBy = moderatorID
	e.BlockedAt = &at
	e.BlockReason = reason
	e.Version++
	return nil
}

func (r *stubEventRepo) Deactivate(_ context.Context, eventID, notes string) error {
	e, ok := r.byID[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	e.IsActive = false
	e.ModerationNotes = notes
	e.Version++
	r.deactivated[eventID] = notes
	return nil
}

type stubUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (r *stubUserRepo) add(u *domain.User) {
	clone := *u
	r.byID[u.ID] = &clone
	if u.Email != "" {
		r.byEmail[u.Email] = &clone
	}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[u.Email]; exists {
		return nil, domain.ErrUserExists
	}
	clone := *u
	if clone.ID == "" {
		clone.ID = "usr_" + u.Email
	}
	r.byID[clone.ID] = &clone
	r.byEmail[clone.Email] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.add(u)
	return nil
}

type stubInterestRepo struct {
	items []*domain.Interest
}

func (r *stubInterestRepo) List(_ context.Context) ([]*domain.Interest, error) {
	return r.items, nil
}

func (r *stubInterestRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Interest, error) {
	var out []*domain.Interest
	for _, i := range r.items {
		for _, id := range ids {
			if i.ID == id {
				out = append(out, i)
			}
		}
	}
	return out, nil
}

type stubAuditRepo struct {
	entries   []*domain.AuditEntry
	insertErr error
}

func (r *stubAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	clone := *e
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *stubAuditRepo) HasEntry(_ context.Context, action domain.AuditAction, targetID string) (bool, error) {
	for _, e := range r.entries {
		if e.Action == action && e.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAuditRepo) List(_ context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return r.entries[:limit], nil
}

// stubAuthz answers capability questions from a fixed role table.
type stubAuthz struct {
	roles map[string]domain.Role
}

func (a *stubAuthz) RoleOf(_ context.Context, userID string) domain.Role {
	if r, ok := a.roles[userID]; ok {
		return r
	}
	return domain.RoleUser
}

func (a *stubAuthz) IsModerator(ctx context.Context, userID string) bool {
	return a.RoleOf(ctx, userID).AtLeast(domain.RoleModerator)
}

func (a *stubAuthz) IsAdmin(ctx context.Context, userID string) bool {
	return a.RoleOf(ctx, userID) == domain.RoleAdmin
}

func (a *stubAuthz) CanModerateEvents(ctx context.Context, userID string) bool {
	return a.IsModerator(ctx, userID)
}

func (a *stubAuthz) CanManageUsers(ctx context.Context, userID string) bool {
	return a.IsAdmin(ctx, userID)
}

type stubBus struct {
	published []ports.Notification
}

func (b *stubBus) Publish(n ports.Notification) {
	b.published = append(b.published, n)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func seededEvent(id, creatorID string, max int) *domain.Event {
	now := time.Now().UTC()
	return &domain.Event{
		ID:              id,
		Title:           "board games night",
		CreatorID:       creatorID,
		MaxParticipants: max,
		ParticipantIDs:  []string{creatorID},
		EventDate:       now.Add(48 * time.Hour),
		IsActive:        true,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func newDirectorySvc(events *stubEventRepo, users *stubUserRepo, audit *stubAuditRepo, authz ports.Authorizer) *DirectoryService {
	return NewDirectoryService(events, users, &stubInterestRepo{}, audit, authz, &stubBus{}, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestDirectoryService_CreateEvent_SeedsCreator(t *testing.T) {
	events := newStubEventRepo()
	svc := newDirectorySvc(events, newStubUserRepo(), &stubAuditRepo{}, &stubAuthz{})

	created, err := svc.CreateEvent(context.Background(), "alice", ports.CreateEventInput{
		Title:           "picnic",
		CategoryID:      "cat_outdoors", // legacy field still sent by old clients
		CategoryIDs:     []string{"cat_food"},
		EventDate:       time.Now().Add(24 * time.Hour),
		MaxParticipants: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ParticipantsCount() != 1 || !created.HasParticipant("alice") {
		t.Errorf("expected creator auto-joined, got participants %v", created.ParticipantIDs)
	}
	if !created.IsActive {
		t.Error("expected new event to be active")
	}
	if len(created.CategoryIDs) != 2 || created.CategoryIDs[0] != "cat_outdoors" {
		t.Errorf("expected legacy category merged first, got %v", created.CategoryIDs)
	}
	if _, ok := events.byID[created.ID]; !ok {
		t.Error("expected event persisted")
	}
}

func TestDirectoryService_CreateEvent_CapacityTooSmall(t *testing.T) {
	svc := newDirectorySvc(newStubEventRepo(), newStubUserRepo(), &stubAuditRepo{}, &stubAuthz{})

	_, err := svc.CreateEvent(context.Background(), "alice", ports.CreateEventInput{
		Title:           "solo show",
		EventDate:       time.Now().Add(24 * time.Hour),
		MaxParticipants: 1,
	})
	if !errors.Is(err, domain.ErrCapacityTooSmall) {
		t.Fatalf("expected ErrCapacityTooSmall, got %v", err)
	}
}

func TestDirectoryService_CreateEvent_DateInPast(t *testing.T) {
	svc := newDirectorySvc(newStubEventRepo(), newStubUserRepo(), &stubAuditRepo{}, &stubAuthz{})

	_, err := svc.CreateEvent(context.Background(), "alice", ports.CreateEventInput{
		Title:           "yesterday",
		EventDate:       time.Now().Add(-time.Hour),
		MaxParticipants: 5,
	})
	if !errors.Is(err, domain.ErrEventDatePast) {
		t.Fatalf("expected ErrEventDatePast, got %v", err)
	}
}

func TestDirectoryService_BlockEvent_SetsBlockedAndInactive(t *testing.T) {
	events := newStubEventRepo()
	events.byID["EVT-1"] = seededEvent("EVT-1", "alice", 5)
	authz := &stubAuthz{roles: map[string]domain.Role{"mod": domain.RoleModerator}}
	svc := newDirectorySvc(events, newStubUserRepo(), &stubAuditRepo{}, authz)

	if err := svc.BlockEvent(context.Background(), "mod", "EVT-1", "spam"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := events.byID["EVT-1"]
	if !e.IsBlocked {
		t.Error("expected event blocked")
	}
	if e.IsActive {
		t.Error("blocked event must not stay active")
	}
	if e.BlockedBy != "mod" || e.BlockReason != "spam" || e.BlockedAt == nil {
		t.Errorf("expected block attribution, got %+v", e)
	}
}

func TestDirectoryService_BlockEvent_Idempotent(t *testing.T) {
	events := newStubEventRepo()
	events.byID["EVT-1"] = seededEvent("EVT-1", "alice", 5)
	authz := &stubAuthz{roles: map[string]domain.Role{"mod": domain.RoleModerator, "mod2": domain.RoleModerator}}
	svc := newDirectorySvc(events, newStubUserRepo(), &stubAuditRepo{}, authz)

	if err := svc.BlockEvent(context.Background(), "mod", "EVT-1", "spam"); err != nil {
		t.Fatalf("first block failed: %v", err)
	}
	if err := svc.BlockEvent(context.Background(), "mod2", "EVT-1", "again"); err != nil {
		t.Fatalf("expected idempotent re-block, got %v", err)
	}
	if events.byID["EVT-1"].BlockedBy != "mod" {
		t.Error("re-block must not change original attribution")
	}
}

func TestDirectoryService_BlockEvent_ForbiddenForPlainUser(t *testing.T) {
	events := newStubEventRepo()
	events.byID["EVT-1"] = seededEvent("EVT-1", "alice", 5)
	svc := newDirectorySvc(events, newStubUserRepo(), &stubAuditRepo{}, &stubAuthz{roles: map[string]domain.Role{"bob": domain.RoleUser}})

	err := svc.BlockEvent(context.Background(), "bob", "EVT-1", "grudge")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if events.byID["EVT-1"].IsBlocked {
		t.Error("event must stay unblocked after forbidden attempt")
	}
}

func TestDirectoryService_UpdateEvent_VersionConflict(t *testing.T) {
	events := newStubEventRepo()
	events.byID["EVT-1"] = seededEvent("EVT-1", "alice", 5)
	svc := newDirectorySvc(events, newStubUserRepo(), &stubAuditRepo{}, &stubAuthz{})

	stale, _ := events.FindByID(context.Background(), "EVT-1")
	stale.Version = 99 // simulate a lost race
	err := svc.UpdateEvent(context.Background(), "alice", stale)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDirectoryService_UpdateEvent_ForbiddenForStranger(t *testing.T) {
	events := newStubEventRepo()
	events.byID["EVT-1"] = seededEvent("EVT-1", "alice", 5)
	svc := newDirectorySvc(events, newStubUserRepo(), &stubAuditRepo{}, &stubAuthz{})

	e, _ := events.FindByID(context.Background(), "EVT-1")
	err := svc.UpdateEvent(context.Background(), "mallory", e)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDirectoryService_UpdateEvent_PreservesModerationState(t *testing.T) {
	events := newStubEventRepo()
	blocked := seededEvent("EVT-1", "alice", 5)
	blocked.IsBlocked = true
	blocked.IsActive = false
	blocked.BlockedBy = "mod"
	events.byID["EVT-1"] = blocked
	svc := newDirectorySvc(events, newStubUserRepo(), &stubAuditRepo{}, &stubAuthz{})

	e, _ := events.FindByID(context.Background(), "EVT-1")
	e.IsActive = true // attempt to sneak a blocked event back to active
	e.IsBlocked = false
	e.Title = "renamed"
	if err := svc.UpdateEvent(context.Background(), "alice", e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := events.byID["EVT-1"]
	if !stored.IsBlocked || stored.IsActive {
		t.Errorf("moderation state must survive updates: %+v", stored)
	}
	if stored.Title != "renamed" {
		t.Error("profile fields should still be updated")
	}
}

func TestDirectoryService_UpdateEvent_PreservesMembershipAndBookkeeping(t *testing.T) {
	events := newStubEventRepo()
	seeded := seededEvent("EVT-1", "alice", 5)
	seeded.ParticipantIDs = []string{"alice", "bob", "carol"}
	seeded.ModerationNotes = "warned once for spammy description"
	events.byID["EVT-1"] = seeded
	svc := newDirectorySvc(events, newStubUserRepo(), &stubAuditRepo{}, &stubAuthz{})

	// The HTTP layer builds the update from the request body alone, so
	// everything it does not carry arrives zero-valued.
	sparse := &domain.Event{
		ID:              "EVT-1",
		Title:           "board games night, round two",
		Address:         "12 Main St",
		EventDate:       seeded.EventDate.Add(24 * time.Hour),
		MaxParticipants: 8,
		IsActive:        true,
		Version:         seeded.Version,
	}
	if err := svc.UpdateEvent(context.Background(), "alice", sparse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := events.byID["EVT-1"]
	if got, want := len(stored.ParticipantIDs), 3; got != want {
		t.Fatalf("participants after update = %v, want the original 3", stored.ParticipantIDs)
	}
	if !stored.CreatedAt.Equal(seeded.CreatedAt) {
		t.Error("created_at must not be rewritten by an update")
	}
	if stored.ModerationNotes != "warned once for spammy description" {
		t.Error("moderation notes must survive a profile edit")
	}
	if stored.Title != "board games night, round two" || stored.MaxParticipants != 8 {
		t.Errorf("profile fields should still be applied: %+v", stored)
	}
}

func TestDirectoryService_UpdateUser_DropsUnknownInterests(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: "bob", Email: "bob@example.com", Role: domain.RoleUser})
	interests := &stubInterestRepo{items: []*domain.Interest{
		{ID: "int-chess", Name: "Chess"},
		{ID: "int-hiking", Name: "Hiking"},
	}}
	svc := NewDirectoryService(newStubEventRepo(), users, interests, &stubAuditRepo{}, &stubAuthz{}, &stubBus{}, zerolog.Nop())

	err := svc.UpdateUser(context.Background(), "bob", &domain.User{
		ID:          "bob",
		Email:       "bob@example.com",
		DisplayName: "Bob",
		InterestIDs: []string{"int-chess", "int-made-up", "int-hiking"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := users.byID["bob"].InterestIDs
	want := []string{"int-chess", "int-hiking"}
	if len(got) != len(want) {
		t.Fatalf("interests = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("interests = %v, want %v", got, want)
		}
	}
}

func TestDirectoryService_ChangeUserRole_AdminOnlyAndAudited(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: "bob", Email: "bob@example.com", Role: domain.RoleUser})
	audit := &stubAuditRepo{}
	authz := &stubAuthz{roles: map[string]domain.Role{"root": domain.RoleAdmin, "mod": domain.RoleModerator}}
	svc := newDirectorySvc(newStubEventRepo(), users, audit, authz)

	if err := svc.ChangeUserRole(context.Background(), "mod", "bob", domain.RoleOrganizer, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("moderator must not change roles, got %v", err)
	}
	if len(audit.entries) != 0 {
		t.Fatal("forbidden attempt must not be audited")
	}

	if err := svc.ChangeUserRole(context.Background(), "root", "bob", domain.RoleModerator, "10.0.0.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := users.byID["bob"].Role; got != domain.RoleModerator {
		t.Errorf("expected role moderator, got %s", got)
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.Action != domain.AuditUserRoleChanged || entry.TargetID != "bob" {
		t.Errorf("unexpected audit entry: %+v", entry)
	}
	if entry.Changes["Role"] != string(domain.RoleModerator) {
		t.Errorf("expected Changes[Role]=moderator, got %v", entry.Changes)
	}
}

func TestDirectoryService_BlockUnblockUser_Audited(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: "bob", Email: "bob@example.com", Role: domain.RoleUser})
	audit := &stubAuditRepo{}
	authz := &stubAuthz{roles: map[string]domain.Role{"root": domain.RoleAdmin}}
	svc := newDirectorySvc(newStubEventRepo(), users, audit, authz)

	until := time.Now().Add(72 * time.Hour)
	if err := svc.BlockUser(context.Background(), "root", "bob", until, ""); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if users.byID["bob"].BlockedUntil == nil {
		t.Fatal("expected BlockedUntil set")
	}

	if err := svc.UnblockUser(context.Background(), "root", "bob", ""); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if users.byID["bob"].BlockedUntil != nil {
		t.Fatal("expected BlockedUntil cleared")
	}

	if len(audit.entries) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(audit.entries))
	}
	if audit.entries[0].Action != domain.AuditUserBlocked || audit.entries[1].Action != domain.AuditUserUnblocked {
		t.Errorf("unexpected audit actions: %v, %v", audit.entries[0].Action, audit.entries[1].Action)
	}
}

func TestDirectoryService_DeleteEvent_CreatorDeactivatesWithAudit(t *testing.T) {
	events := newStubEventRepo()
	events.byID["EVT-1"] = seededEvent("EVT-1", "alice", 5)
	audit := &stubAuditRepo{}
	svc := newDirectorySvc(events, newStubUserRepo(), audit, &stubAuthz{})

	if err := svc.DeleteEvent(context.Background(), "alice", "EVT-1", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events.byID["EVT-1"].IsActive {
		t.Error("expected event deactivated")
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != domain.AuditEventDeleted {
		t.Errorf("expected one event_deleted audit entry, got %+v", audit.entries)
	}
}
