// Package daystatus reconciles a requested day state against the event log.
package daystatus

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"habitTrackerAPI/internal/stats"
	"habitTrackerAPI/internal/streak"
	"habitTrackerAPI/internal/types/activity"
	"habitTrackerAPI/internal/types/event"
	"habitTrackerAPI/internal/validation"
	"habitTrackerAPI/utils"
)

// sharedTimeout bounds a toggle that several callers are waiting on.
const sharedTimeout = 10 * time.Second

// EventStore is the subset of the event log the reconciler mutates.
type EventStore interface {
	InsertEvent(ctx context.Context, e *event.Event) error
	DeleteEvents(ctx context.Context, ids []string) (int64, error)
	DeleteEventsInRange(ctx context.Context, activityID string, from, to time.Time) (int64, error)
	CountEventsInRange(ctx context.Context, activityID string, from, to time.Time) (int, error)
	ListEventsInRange(ctx context.Context, activityID string, from, to time.Time) ([]event.Event, error)
	ListEventTimes(ctx context.Context, activityID string) ([]time.Time, error)
}

type Result struct {
	Message    string           `json:"message"`
	Date       civil.Date       `json:"date"`
	Completed  bool             `json:"completed"`
	Count      int              `json:"count"`
	Statistics stats.Statistics `json:"statistics"`

	// Inserted and Deleted report what the call changed.
	Inserted int   `json:"-"`
	Deleted  int64 `json:"-"`
}

type Reconciler struct {
	events EventStore
	now    func() time.Time
	group  singleflight.Group
}

func New(events EventStore) *Reconciler {
	return &Reconciler{events: events, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Apply mutates the events of act on the requested day and returns the
// resulting day state together with fresh streak statistics. The caller
// must have verified that act belongs to the requesting user.
func (r *Reconciler) Apply(ctx context.Context, act *activity.Activity, loc *time.Location, req Request) (*Result, error) {
	if act.IsQuit() {
		return nil, validation.Errorf("day status is only available for habits")
	}

	switch req := req.(type) {
	case Toggle:
		key := fmt.Sprintf("%s|%s|%t", act.ID, req.Day, req.Completed)
		v, err, _ := r.group.Do(key, func() (any, error) {
			// Detached from any one caller; others may still be waiting.
			shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedTimeout)
			defer cancel()
			return r.toggle(shared, act, loc, req)
		})
		if err != nil {
			return nil, err
		}
		res := *v.(*Result)
		return &res, nil
	case Adjust:
		if !act.AllowMultiplePerDay {
			return nil, validation.Errorf("delta is only allowed for activities with multiple entries per day")
		}
		if req.Delta == 0 {
			return nil, validation.Errorf("delta must not be 0")
		}
		if req.Delta > MaxDelta || req.Delta < -MaxDelta {
			return nil, validation.Errorf("delta must be between -%d and %d", MaxDelta, MaxDelta)
		}
		return r.adjust(ctx, act, loc, req)
	default:
		return nil, validation.Errorf("unsupported day status request")
	}
}

func (r *Reconciler) toggle(ctx context.Context, act *activity.Activity, loc *time.Location, req Toggle) (*Result, error) {
	from, to := utils.DayBounds(req.Day, loc)
	res := &Result{Date: req.Day}

	if !req.Completed {
		n, err := r.events.DeleteEventsInRange(ctx, act.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to clear day: %w", err)
		}
		res.Deleted = n
		res.Message = "Day marked as incomplete"
		return r.finish(ctx, act, loc, res)
	}

	existing, err := r.events.CountEventsInRange(ctx, act.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	if existing > 0 {
		res.Message = "Day already completed"
		return r.finish(ctx, act, loc, res)
	}

	if err := r.insert(ctx, act.ID, utils.LocalNoon(req.Day, loc)); err != nil {
		return nil, err
	}
	res.Inserted = 1
	res.Message = "Day marked as completed"
	return r.finish(ctx, act, loc, res)
}

func (r *Reconciler) adjust(ctx context.Context, act *activity.Activity, loc *time.Location, req Adjust) (*Result, error) {
	from, to := utils.DayBounds(req.Day, loc)
	res := &Result{Date: req.Day}

	if req.Delta > 0 {
		events, err := r.events.ListEventsInRange(ctx, act.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}

		// New entries follow the latest one already on the day, one minute
		// apart, and never spill into the next day.
		last := utils.LocalNoon(req.Day, loc).Add(-time.Minute)
		for _, e := range events {
			if e.Timestamp.After(last) {
				last = e.Timestamp
			}
		}
		step := time.Minute
		if !last.Add(time.Duration(req.Delta) * step).Before(to) {
			step = to.Sub(last) / time.Duration(req.Delta+1)
		}
		for i := 1; i <= req.Delta; i++ {
			if err := r.insert(ctx, act.ID, last.Add(time.Duration(i)*step)); err != nil {
				return nil, err
			}
			res.Inserted++
		}
		res.Message = fmt.Sprintf("Added %d entries", req.Delta)
		return r.finish(ctx, act, loc, res)
	}

	events, err := r.events.ListEventsInRange(ctx, act.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	remove := min(len(events), -req.Delta)
	ids := make([]string, 0, remove)
	for _, e := range events[:remove] {
		ids = append(ids, e.ID)
	}

	n, err := r.events.DeleteEvents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to delete events: %w", err)
	}
	res.Deleted = n
	res.Message = fmt.Sprintf("Removed %d entries", n)
	return r.finish(ctx, act, loc, res)
}

func (r *Reconciler) insert(ctx context.Context, activityID string, at time.Time) error {
	e := &event.Event{
		ID:         uuid.NewString(),
		ActivityID: activityID,
		Timestamp:  at.UTC(),
		CreatedAt:  r.now().UTC(),
	}
	if err := r.events.InsertEvent(ctx, e); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// finish recounts the day and recomputes streaks after a mutation.
func (r *Reconciler) finish(ctx context.Context, act *activity.Activity, loc *time.Location, res *Result) (*Result, error) {
	from, to := utils.DayBounds(res.Date, loc)

	count, err := r.events.CountEventsInRange(ctx, act.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	times, err := r.events.ListEventTimes(ctx, act.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event times: %w", err)
	}

	res.Count = count
	res.Completed = count > 0
	res.Statistics = streak.FromTimes(times, loc, utils.Today(r.now(), loc))
	return res, nil
}
