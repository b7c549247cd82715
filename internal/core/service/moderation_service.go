package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

// ResolutionGuard abstracts the idempotency store (Redis) that records fully
// committed resolutions: status transition, event mutation and audit entry all
// applied. A resolution retried before the mark exists may still need its
// side effects completed.
type ResolutionGuard interface {
	Completed(ctx context.Context, reportID string) (bool, error)
	MarkCompleted(ctx context.Context, reportID string) error
}

type moderationService struct {
	reports ports.ReportRepository
	events  ports.EventRepository
	audit   ports.AuditRepository
	authz   ports.Authorizer
	guard   ResolutionGuard
	bus     ports.NotificationPublisher
	log     zerolog.Logger
}

// NewModerationService returns a ModerationService implementation.
func NewModerationService(
	reports ports.ReportRepository,
	events ports.EventRepository,
	audit ports.AuditRepository,
	authz ports.Authorizer,
	guard ResolutionGuard,
	bus ports.NotificationPublisher,
	log zerolog.Logger,
) ports.ModerationService {
	return &moderationService{
		reports: reports,
		events:  events,
		audit:   audit,
		authz:   authz,
		guard:   guard,
		bus:     bus,
		log:     log,
	}
}

// FileReport records a complaint against an existing event. Repeated reports
// by the same reporter are allowed; moderators see them all.
func (s *moderationService) FileReport(ctx context.Context, in ports.FileReportInput) (*domain.Report, error) {
	if !domain.ValidReportType(in.Type) {
		return nil, domain.ErrInvalidReportType
	}

	// The target must exist; nothing is recorded against unknown events.
	if _, err := s.events.FindByID(ctx, in.EventID); err != nil {
		return nil, fmt.Errorf("file report: %w", err)
	}

	report := &domain.Report{
		ID:         generateReportID(),
		EventID:    in.EventID,
		ReporterID: in.ReporterID,
		Type:       in.Type,
		Reason:     in.Reason,
		Status:     domain.ReportPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.reports.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("file report: %w", err)
	}

	s.publish(ports.Notification{
		Topic:    ports.TopicReportFiled,
		EventID:  in.EventID,
		ReportID: report.ID,
		UserID:   in.ReporterID,
		Message:  string(in.Type),
		At:       report.CreatedAt,
	})

	s.log.Info().
		Str("report_id", report.ID).
		Str("event_id", in.EventID).
		Str("type", string(in.Type)).
		Msg("report filed")

	return report, nil
}

// ResolveReport applies a moderator's verdict to a pending report.
//
// The pending-to-terminal status transition is the commit point; it is atomic
// at the repository, so the first resolver wins and later callers get
// ErrReportResolved. After the commit the target event is deactivated (on
// approval) and exactly one audit entry is appended. The guard marks the
// report only once all side effects landed, which lets a retry after a failed
// audit append finish the job without producing a second entry.
func (s *moderationService) ResolveReport(ctx context.Context, in ports.ResolveReportInput) (*domain.Report, error) {
	if !s.authz.CanModerateEvents(ctx, in.ModeratorID) {
		return nil, domain.ErrForbidden
	}

	status := domain.ReportRejected
	if in.Approve {
		status = domain.ReportApproved
	}

	now := time.Now().UTC()
	report, err := s.reports.Resolve(ctx, in.ReportID, status, in.ModeratorID, in.Notes, now)
	if errors.Is(err, domain.ErrReportResolved) {
		report, err = s.retryIncomplete(ctx, in)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("resolve report: %w", err)
	}

	// Approval hides the event. It does NOT set the blocked flag; blocking is
	// a separate, explicit moderator action the caller may bundle.
	if report.Status == domain.ReportApproved {
		notes := in.Notes
		if notes == "" {
			notes = "report " + report.ID + " approved"
		}
		if err := s.events.Deactivate(ctx, report.EventID, notes); err != nil {
			return nil, fmt.Errorf("resolve report: deactivate event: %w", err)
		}
	}

	entry := &domain.AuditEntry{
		AdminID:    in.ModeratorID,
		Action:     domain.AuditReportResolved,
		TargetType: domain.AuditTargetReport,
		TargetID:   report.ID,
		Changes: map[string]string{
			"Status":        string(report.Status),
			"TargetEventId": report.EventID,
		},
		CreatedAt: now,
		IP:        in.IP,
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		// The resolution is committed but unaudited; surface the failure so
		// the caller retries, and keep the guard unmarked so the retry is
		// allowed to append the missing entry.
		return nil, fmt.Errorf("resolve report: audit append: %w", err)
	}

	if err := s.guard.MarkCompleted(ctx, in.ReportID); err != nil {
		s.log.Warn().Err(err).Str("report_id", in.ReportID).Msg("failed to mark resolution completed")
	}

	s.publish(ports.Notification{
		Topic:    ports.TopicReportResolved,
		EventID:  report.EventID,
		ReportID: report.ID,
		UserID:   in.ModeratorID,
		Message:  string(report.Status),
		At:       now,
	})

	s.log.Info().
		Str("report_id", report.ID).
		Str("event_id", report.EventID).
		Str("status", string(report.Status)).
		Str("moderator_id", in.ModeratorID).
		Msg("report resolved")

	return report, nil
}

// retryIncomplete distinguishes a lost resolution race from the same
// moderator retrying after a crash between the status commit and the audit
// append. Only the latter may proceed to re-run the post-commit side effects.
func (s *moderationService) retryIncomplete(ctx context.Context, in ports.ResolveReportInput) (*domain.Report, error) {
	done, err := s.guard.Completed(ctx, in.ReportID)
	if err != nil {
		s.log.Warn().Err(err).Str("report_id", in.ReportID).Msg("resolution guard check failed")
		return nil, domain.ErrReportResolved
	}
	if done {
		return nil, domain.ErrReportResolved
	}

	report, err := s.reports.FindByID(ctx, in.ReportID)
	if err != nil {
		return nil, fmt.Errorf("resolve report: %w", err)
	}
	if report.ResolvedBy != in.ModeratorID {
		return nil, domain.ErrReportResolved
	}

	// An unmarked guard does not prove the audit append is missing: the mark
	// itself may have failed after a fully committed resolution. Re-running
	// the side effects then would append a second audit entry.
	audited, err := s.audit.HasEntry(ctx, domain.AuditReportResolved, in.ReportID)
	if err != nil {
		return nil, fmt.Errorf("resolve report: audit lookup: %w", err)
	}
	if audited {
		if err := s.guard.MarkCompleted(ctx, in.ReportID); err != nil {
			s.log.Warn().Err(err).Str("report_id", in.ReportID).Msg("failed to repair resolution guard")
		}
		return nil, domain.ErrReportResolved
	}

	s.log.Info().Str("report_id", in.ReportID).Msg("completing interrupted resolution")
	return report, nil
}

func (s *moderationService) GetPendingReports(ctx context.Context) ([]*domain.Report, error) {
	return s.reports.ListPending(ctx)
}

func (s *moderationService) GetResolvedReports(ctx context.Context) ([]*domain.Report, error) {
	return s.reports.ListResolved(ctx)
}

func (s *moderationService) publish(n ports.Notification) {
	if s.bus != nil {
		s.bus.Publish(n)
	}
}

// generateReportID returns a unique report id in the format RPT-XXXXXXXX.
func generateReportID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("RPT-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("RPT-%08X", b)
}
