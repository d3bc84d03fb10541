package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/event"
	"habitTrackerAPI/internal/validation"
	"habitTrackerAPI/utils"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 100
	// maxRangeDays bounds the range endpoint.
	maxRangeDays = 366
)

type EventService struct {
	store store.Store
	users *UserService
	now   func() time.Time
}

func NewEventService(s store.Store, users *UserService) *EventService {
	return &EventService{store: s, users: users, now: time.Now}
}

// parseTimestamp accepts RFC 3339 only, so every stored value carries an
// explicit offset.
func parseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, validation.Errorf("timestamp must be RFC 3339 with a timezone offset")
	}
	return t.UTC(), nil
}

// CreateEvent logs an event now or, when a timestamp is given,
// retroactively.
func (s *EventService) CreateEvent(ctx context.Context, clerkID string, req *event.CreateEventRequest) (*event.Event, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	a, err := s.store.GetActivity(ctx, req.ActivityID, clerkID, false)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ts := now
	if req.Timestamp != nil {
		if ts, err = parseTimestamp(*req.Timestamp); err != nil {
			return nil, err
		}
	}

	e := &event.Event{
		ID:           uuid.New().String(),
		ActivityID:   a.ID,
		Timestamp:    ts,
		Note:         req.Note,
		CreatedAt:    now,
		ActivityName: a.Name,
		ActivityKind: string(a.Kind),
	}
	if err := s.store.InsertEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return e, nil
}

func (s *EventService) QuickLog(ctx context.Context, clerkID string, req *event.QuickLogRequest) (*event.Event, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.CreateEvent(ctx, clerkID, &event.CreateEventRequest{ActivityID: req.ActivityID})
}

func (s *EventService) GetEvent(ctx context.Context, clerkID, id string) (*event.Event, error) {
	return s.store.GetEvent(ctx, id, clerkID)
}

func (s *EventService) UpdateEvent(ctx context.Context, clerkID, id string, req *event.UpdateEventRequest) (*event.Event, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	e, err := s.store.GetEvent(ctx, id, clerkID)
	if err != nil {
		return nil, err
	}

	if req.Timestamp != nil {
		if e.Timestamp, err = parseTimestamp(*req.Timestamp); err != nil {
			return nil, err
		}
	}
	if req.Note != nil {
		e.Note = req.Note
	}

	if err := s.store.UpdateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return e, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, clerkID, id string) error {
	if _, err := s.store.GetEvent(ctx, id, clerkID); err != nil {
		return err
	}

	n, err := s.store.DeleteEvents(ctx, []string{id})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListEvents pages through the caller's events, newest first.
func (s *EventService) ListEvents(ctx context.Context, clerkID string, opts event.ListOptions) ([]event.Event, event.Pagination, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultEventLimit
	}
	if opts.Limit > maxEventLimit {
		opts.Limit = maxEventLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	page := event.Pagination{Limit: opts.Limit, Offset: opts.Offset}

	if opts.ActivityID != "" {
		if _, err := s.store.GetActivity(ctx, opts.ActivityID, clerkID, true); err != nil {
			return nil, page, err
		}
	}

	probe := opts
	probe.Limit++
	events, err := s.store.ListEvents(ctx, clerkID, probe)
	if err != nil {
		return nil, page, fmt.Errorf("failed to list events: %w", err)
	}

	if len(events) > opts.Limit {
		page.HasMore = true
		events = events[:opts.Limit]
	}
	return events, page, nil
}

// TodayEvents returns events logged today, in the user's zone, across all
// active activities.
func (s *EventService) TodayEvents(ctx context.Context, clerkID string) ([]event.Event, error) {
	_, loc, err := s.users.Locate(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	from, to := utils.DayBounds(utils.Today(s.now(), loc), loc)
	events, err := s.store.ListOwnerEventsInRange(ctx, clerkID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list today's events: %w", err)
	}
	return events, nil
}

// EventsInRange returns an activity's events between two inclusive dates,
// oldest first.
func (s *EventService) EventsInRange(ctx context.Context, clerkID, activityID, startDate, endDate string) ([]event.Event, error) {
	if startDate == "" || endDate == "" {
		return nil, validation.Errorf("start_date and end_date are required")
	}
	first, err := utils.ParseDate(startDate)
	if err != nil {
		return nil, validation.Errorf("%v", err)
	}
	last, err := utils.ParseDate(endDate)
	if err != nil {
		return nil, validation.Errorf("%v", err)
	}
	if last.Before(first) {
		return nil, validation.Errorf("end_date must not be before start_date")
	}
	if last.DaysSince(first) >= maxRangeDays {
		return nil, validation.Errorf("range must not exceed %d days", maxRangeDays)
	}

	_, loc, err := s.users.Locate(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetActivity(ctx, activityID, clerkID, true); err != nil {
		return nil, err
	}

	from, to := utils.RangeBounds(first, last, loc)
	events, err := s.store.ListEventsInRange(ctx, activityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}
