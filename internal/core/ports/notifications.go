package ports

import "time"

// NotificationTopic identifies the kind of platform event carried by a
// Notification.
type NotificationTopic string

const (
	TopicReportFiled    NotificationTopic = "report.filed"
	TopicReportResolved NotificationTopic = "report.resolved"
	TopicEventBlocked   NotificationTopic = "event.blocked"
	TopicMemberJoined   NotificationTopic = "member.joined"
	TopicMemberLeft     NotificationTopic = "member.left"
)

// Notification is a decoupled, fire-and-forget message about something that
// happened to an event. Delivery targets (push, mail) subscribe to topics.
type Notification struct {
	Topic    NotificationTopic
	EventID  string
	ReportID string
	UserID   string
	Message  string
	At       time.Time
}

// NotificationPublisher fans notifications out to subscribers. Publish must
// never block the calling request path.
type NotificationPublisher interface {
	Publish(n Notification)
}
