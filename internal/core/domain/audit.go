package domain

import "time"

// AuditAction names a privileged action recorded in the audit log.
type AuditAction string

const (
	AuditUserBlocked     AuditAction = "user_blocked"
	AuditUserUnblocked   AuditAction = "user_unblocked"
	AuditUserRoleChanged AuditAction = "user_role_changed"
	AuditEventApproved   AuditAction = "event_approved"
	AuditEventRejected   AuditAction = "event_rejected"
	AuditEventDeleted    AuditAction = "event_deleted"
	AuditReportResolved  AuditAction = "report_resolved"
)

// Audit target types.
const (
	AuditTargetUser   = "user"
	AuditTargetEvent  = "event"
	AuditTargetReport = "report"
)

// AuditEntry records a single privileged action. Entries are append-only and
// are never mutated or deleted.
type AuditEntry struct {
	ID         string            `json:"id" bson:"_id,omitempty"`
	AdminID    string            `json:"admin_id" bson:"admin_id"`
	Action     AuditAction       `json:"action" bson:"action"`
	TargetType string            `json:"target_type" bson:"target_type"`
	TargetID   string            `json:"target_id" bson:"target_id"`
	Changes    map[string]string `json:"changes" bson:"changes"`
	CreatedAt  time.Time         `json:"created_at" bson:"created_at"`
	IP         string            `json:"ip,omitempty" bson:"ip,omitempty"`
}
