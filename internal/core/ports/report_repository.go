package ports

import (
	"context"
	"time"

	"github.com/gatherly/community-service/internal/core/domain"
)

// ReportRepository defines persistence for reports. Resolution is an atomic
// pending-to-terminal transition: the first resolver wins, later callers get
// domain.ErrReportResolved.
type ReportRepository interface {
	Insert(ctx context.Context, r *domain.Report) error
	FindByID(ctx context.Context, id string) (*domain.Report, error)
	// Resolve performs the atomic status transition and returns the report as
	// resolved. domain.ErrReportNotFound for an unknown id,
	// domain.ErrReportResolved when the report is no longer pending.
	Resolve(ctx context.Context, id string, status domain.ReportStatus, resolverID, notes string, at time.Time) (*domain.Report, error)
	// ListPending returns pending reports ordered by created_at descending.
	ListPending(ctx context.Context) ([]*domain.Report, error)
	// ListResolved returns resolved reports ordered by resolved_at descending.
	ListResolved(ctx context.Context) ([]*domain.Report, error)
}

// AuditRepository appends to and reads the append-only audit log.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	// List returns the most recent entries, newest first, capped at limit.
	List(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
	// HasEntry reports whether an entry with the given action and target
	// already exists. Used to keep once-per-target actions idempotent on
	// retry.
	HasEntry(ctx context.Context, action domain.AuditAction, targetID string) (bool, error)
}
