package store

import (
	"context"
	"errors"
	"time"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/types/activity"
	"habitTrackerAPI/internal/types/event"
	"habitTrackerAPI/internal/types/notification"
	"habitTrackerAPI/internal/types/user"
)

// ErrNotFound is returned when a row does not exist or is not owned by the
// caller. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

type ActivityStore interface {
	CreateActivity(ctx context.Context, a *activity.Activity) error
	// GetActivity returns an owned activity. Archived activities are only
	// returned when includeArchived is set.
	GetActivity(ctx context.Context, id, ownerID string, includeArchived bool) (*activity.Activity, error)
	ListActivities(ctx context.Context, ownerID string, includeArchived bool) ([]activity.Activity, error)
	UpdateActivity(ctx context.Context, a *activity.Activity) error
	SetArchived(ctx context.Context, id, ownerID string, archived bool) error
	UpdateSelectedGoal(ctx context.Context, activityID string, goal abstinence.Goal) error
}

// EventStore is the append-only event log. Range arguments are half-open
// [from, to) instants; callers translate calendar dates with the owner's
// timezone before querying.
type EventStore interface {
	InsertEvent(ctx context.Context, e *event.Event) error
	GetEvent(ctx context.Context, id, ownerID string) (*event.Event, error)
	UpdateEvent(ctx context.Context, e *event.Event) error
	DeleteEvents(ctx context.Context, ids []string) (int64, error)
	DeleteEventsInRange(ctx context.Context, activityID string, from, to time.Time) (int64, error)
	CountEventsInRange(ctx context.Context, activityID string, from, to time.Time) (int, error)
	// ListEventsInRange orders by creation, oldest first.
	ListEventsInRange(ctx context.Context, activityID string, from, to time.Time) ([]event.Event, error)
	ListEventTimes(ctx context.Context, activityID string) ([]time.Time, error)
	LatestEvent(ctx context.Context, activityID string) (*event.Event, error)
	ListEvents(ctx context.Context, ownerID string, opts event.ListOptions) ([]event.Event, error)
	ListOwnerEventsInRange(ctx context.Context, ownerID string, from, to time.Time) ([]event.Event, error)
}

type UserStore interface {
	// EnsureUser returns the user, creating it with defaults on first sight.
	EnsureUser(ctx context.Context, clerkID, timezone string) (*user.User, error)
	GetUser(ctx context.Context, clerkID string) (*user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	// DeleteUser removes the user with all activities, events and devices.
	DeleteUser(ctx context.Context, clerkID string) error
}

type DeviceStore interface {
	UpsertDevice(ctx context.Context, userID string, token notification.DeviceToken) error
	DeleteDevice(ctx context.Context, userID, token string) (int64, error)
	ListDevices(ctx context.Context, userID string) ([]notification.DeviceToken, error)
}

type Store interface {
	ActivityStore
	EventStore
	UserStore
	DeviceStore
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
