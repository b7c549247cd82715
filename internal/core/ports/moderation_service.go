package ports

import (
	"context"

	"github.com/gatherly/community-service/internal/core/domain"
)

// FileReportInput is the DTO passed from the transport layer to FileReport.
type FileReportInput struct {
	EventID    string
	ReporterID string
	Type       domain.ReportType
	Reason     string
}

// ResolveReportInput carries a moderator's verdict on a pending report.
type ResolveReportInput struct {
	ReportID    string
	ModeratorID string
	// Approve upholds the report: the target event is deactivated (hidden).
	// Blocking remains a separate, explicit BlockEvent call.
	Approve bool
	Notes   string
	IP      string
}

// ModerationService files and resolves reports against events, writing one
// audit entry per successful resolution.
type ModerationService interface {
	FileReport(ctx context.Context, input FileReportInput) (*domain.Report, error)
	ResolveReport(ctx context.Context, input ResolveReportInput) (*domain.Report, error)
	GetPendingReports(ctx context.Context) ([]*domain.Report, error)
	GetResolvedReports(ctx context.Context) ([]*domain.Report, error)
}
