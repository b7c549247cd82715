package domain

import (
	"errors"
	"time"
)

// ReportType classifies why an event was reported.
type ReportType string

const (
	ReportSpam          ReportType = "spam"
	ReportInappropriate ReportType = "inappropriate"
	ReportScam          ReportType = "scam"
	ReportIllegal       ReportType = "illegal"
	ReportOther         ReportType = "other"
)

// ReportStatus is the resolution state of a report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportApproved ReportStatus = "approved"
	ReportRejected ReportStatus = "rejected"
)

// validResolutions defines the allowed state machine transitions.
// Approved and rejected are terminal.
var validResolutions = map[ReportStatus][]ReportStatus{
	ReportPending: {ReportApproved, ReportRejected},
}

var ErrReportNotFound = errors.New("report not found")
var ErrReportResolved = errors.New("report already resolved")
var ErrInvalidReportType = errors.New("invalid report type")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	for _, allowed := range validResolutions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidReportType reports whether t is a known report type.
func ValidReportType(t ReportType) bool {
	switch t {
	case ReportSpam, ReportInappropriate, ReportScam, ReportIllegal, ReportOther:
		return true
	}
	return false
}

// Report is a complaint filed against an event. It is mutated exactly once,
// when a moderator resolves it.
type Report struct {
	ID             string       `json:"id" bson:"_id,omitempty"`
	EventID        string       `json:"event_id" bson:"event_id"`
	ReporterID     string       `json:"reporter_id" bson:"reporter_id"`
	Type           ReportType   `json:"type" bson:"type"`
	Reason         string       `json:"reason" bson:"reason"`
	Status         ReportStatus `json:"status" bson:"status"`
	CreatedAt      time.Time    `json:"created_at" bson:"created_at"`
	ResolvedBy     string       `json:"resolved_by,omitempty" bson:"resolved_by,omitempty"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	ModeratorNotes string       `json:"moderator_notes,omitempty" bson:"moderator_notes,omitempty"`
}

// Resolved reports whether the report has reached a terminal status.
func (r *Report) Resolved() bool {
	return r.Status != ReportPending
}
