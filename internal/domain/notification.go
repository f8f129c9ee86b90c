package domain

// NotificationKind distinguishes success banners from error banners.
type NotificationKind string

// Notification kinds.
const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a transient message shown once at the top of the next page.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// Success creates a success notification.
func Success(msg string) Notification {
	return Notification{Kind: NotificationSuccess, Message: msg}
}

// Failure creates an error notification.
func Failure(msg string) Notification {
	return Notification{Kind: NotificationError, Message: msg}
}
