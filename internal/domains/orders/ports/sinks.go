package ports

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateActivity is returned by sinks that already hold an entry with the same ID.
var ErrDuplicateActivity = errors.New("activity entry already recorded")

// ActivityEntry is an immutable audit record.
type ActivityEntry struct {
	ID          string
	ActorID     int64
	ActorName   string
	ActionType  string
	Description string
	TargetType  string
	TargetID    int64
	RecordedAt  time.Time
}

// ActivitySink appends audit records. Entry IDs are unique; sinks that
// enforce this report a repeat with ErrDuplicateActivity.
type ActivitySink interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// NotificationLevel classifies a notification for presentation.
type NotificationLevel string

const (
	LevelSuccess     NotificationLevel = "success"
	LevelInformation NotificationLevel = "information"
	LevelWarning     NotificationLevel = "warning"
	LevelError       NotificationLevel = "error"
)

// Notification is a message the engine asks to surface to a user.
type Notification struct {
	Level   NotificationLevel
	Title   string
	Message string
	OrderID int64
	At      time.Time
}

// NotificationSink surfaces notifications to whatever presents them.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEntry) error { return nil }

type noopNotificationSink struct{}

func (noopNotificationSink) Notify(context.Context, Notification) error { return nil }

var (
	// NoopActivitySink discards audit records.
	NoopActivitySink ActivitySink = noopActivitySink{}
	// NoopNotificationSink discards notifications.
	NoopNotificationSink NotificationSink = noopNotificationSink{}
)
