package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/livestate"
	"habitTrackerAPI/internal/stats"
	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/streak"
	"habitTrackerAPI/internal/types/activity"
	"habitTrackerAPI/internal/types/calendar"
	"habitTrackerAPI/internal/types/event"
	"habitTrackerAPI/internal/types/user"
	"habitTrackerAPI/internal/validation"
	"habitTrackerAPI/internal/weekly_stats"
	"habitTrackerAPI/utils"
)

// goalQueue accepts background goal persists.
type goalQueue interface {
	Enqueue(job *GoalJob) bool
}

type ActivityService struct {
	store store.Store
	users *UserService
	goals goalQueue
	now   func() time.Time
}

func NewActivityService(s store.Store, users *UserService, goals goalQueue) *ActivityService {
	return &ActivityService{store: s, users: users, goals: goals, now: time.Now}
}

func (s *ActivityService) CreateActivity(ctx context.Context, clerkID string, req *activity.CreateActivityRequest) (*activity.Activity, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.users.GetProfile(ctx, clerkID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &activity.Activity{
		ID:                       uuid.New().String(),
		OwnerID:                  clerkID,
		Name:                     req.Name,
		Kind:                     req.Kind,
		Color:                    activity.DefaultColor,
		Icon:                     req.Icon,
		AllowMultiplePerDay:      req.Kind == activity.KindHabit && req.AllowMultiplePerDay,
		AbstinenceText:           req.AbstinenceText,
		UseDefaultAbstinenceText: true,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if req.Color != nil {
		a.Color = *req.Color
	}
	if req.UseDefaultAbstinenceText != nil {
		a.UseDefaultAbstinenceText = *req.UseDefaultAbstinenceText
	}

	if err := s.store.CreateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return a, nil
}

// GetActivity returns the activity with every derived block filled in.
func (s *ActivityService) GetActivity(ctx context.Context, clerkID, id string) (*activity.View, error) {
	u, loc, err := s.users.Locate(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	a, err := s.store.GetActivity(ctx, id, clerkID, false)
	if err != nil {
		return nil, err
	}

	return s.buildView(ctx, u, loc, a, activity.ListOptions{IncludeStats: true, IncludeLastEvent: true}, true)
}

func (s *ActivityService) ListActivities(ctx context.Context, clerkID string, opts activity.ListOptions) ([]activity.View, error) {
	u, loc, err := s.users.Locate(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	activities, err := s.store.ListActivities(ctx, clerkID, opts.IncludeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	views := make([]activity.View, 0, len(activities))
	for i := range activities {
		v, err := s.buildView(ctx, u, loc, &activities[i], opts, false)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *ActivityService) buildView(ctx context.Context, u *user.User, loc *time.Location, a *activity.Activity, opts activity.ListOptions, weekly bool) (*activity.View, error) {
	v := &activity.View{Activity: *a}
	now := s.now()

	var times []time.Time
	if opts.IncludeStats || (weekly && !a.IsQuit()) {
		var err error
		if times, err = s.store.ListEventTimes(ctx, a.ID); err != nil {
			return nil, fmt.Errorf("failed to list event times: %w", err)
		}
	}

	if opts.IncludeStats {
		st := streak.FromTimes(times, loc, utils.Today(now, loc))
		v.Statistics = &st
	}
	if weekly && !a.IsQuit() {
		log := weekly_stats.Build(utils.Today(now, loc), weekly_stats.CountByDate(times, loc))
		v.WeeklyLog = &log
	}

	var last *event.Event
	if opts.IncludeLastEvent || a.IsQuit() {
		var err error
		if last, err = s.latestEvent(ctx, a.ID); err != nil {
			return nil, err
		}
	}
	if opts.IncludeLastEvent {
		v.LastEvent = last
	}

	if a.IsQuit() {
		v.AbstinenceLabel = a.AbstinenceLabel(u.DefaultAbstinenceText)
		display := s.timerFor(a, last, v.AbstinenceLabel, now)
		v.TimeDisplay = &display
		v.SelectedGoal = a.SelectedGoal
	}
	return v, nil
}

func (s *ActivityService) latestEvent(ctx context.Context, activityID string) (*event.Event, error) {
	e, err := s.store.LatestEvent(ctx, activityID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest event: %w", err)
	}
	return e, nil
}

// UpdateActivity applies a partial update. Switching a quit activity to a
// habit drops its goal; switching a habit to quit drops multi-entry.
func (s *ActivityService) UpdateActivity(ctx context.Context, clerkID, id string, req *activity.UpdateActivityRequest) (*activity.Activity, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	a, err := s.store.GetActivity(ctx, id, clerkID, false)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Kind != nil {
		a.Kind = *req.Kind
	}
	if req.Color != nil {
		a.Color = *req.Color
	}
	if req.Icon != nil {
		a.Icon = req.Icon
	}
	if req.DisplayOrder != nil {
		a.DisplayOrder = *req.DisplayOrder
	}
	if req.AllowMultiplePerDay != nil {
		a.AllowMultiplePerDay = *req.AllowMultiplePerDay
	}
	if req.AbstinenceText != nil {
		a.AbstinenceText = req.AbstinenceText
	}
	if req.UseDefaultAbstinenceText != nil {
		a.UseDefaultAbstinenceText = *req.UseDefaultAbstinenceText
	}

	if a.IsQuit() {
		a.AllowMultiplePerDay = false
	} else {
		a.SelectedGoal = nil
	}

	if err := s.store.UpdateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	return a, nil
}

func (s *ActivityService) ArchiveActivity(ctx context.Context, clerkID, id string) error {
	return s.setArchived(ctx, clerkID, id, true)
}

func (s *ActivityService) RestoreActivity(ctx context.Context, clerkID, id string) error {
	return s.setArchived(ctx, clerkID, id, false)
}

func (s *ActivityService) setArchived(ctx context.Context, clerkID, id string, archived bool) error {
	if err := s.store.SetArchived(ctx, id, clerkID, archived); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to archive activity: %w", err)
	}
	return nil
}

func (s *ActivityService) GetStats(ctx context.Context, clerkID, id string) (*stats.Statistics, error) {
	_, loc, err := s.users.Locate(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetActivity(ctx, id, clerkID, false); err != nil {
		return nil, err
	}

	times, err := s.store.ListEventTimes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list event times: %w", err)
	}

	st := streak.FromTimes(times, loc, utils.Today(s.now(), loc))
	return &st, nil
}

// GetWeeklyLog returns the seven days ending at end, or today when end is
// empty.
func (s *ActivityService) GetWeeklyLog(ctx context.Context, clerkID, id, end string) (*weekly_stats.WeeklyLog, error) {
	_, loc, err := s.users.Locate(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetActivity(ctx, id, clerkID, false); err != nil {
		return nil, err
	}

	endDate := utils.Today(s.now(), loc)
	if end != "" {
		if endDate, err = utils.ParseDate(end); err != nil {
			return nil, validation.Errorf("%v", err)
		}
	}

	start := endDate.AddDays(-(weekly_stats.WindowDays - 1))
	counts, err := s.countsBetween(ctx, id, start, endDate, loc)
	if err != nil {
		return nil, err
	}

	log := weekly_stats.Build(endDate, counts)
	return &log, nil
}

func (s *ActivityService) GetCalendar(ctx context.Context, clerkID, id string, year, month int) (*calendar.CalendarResponse, error) {
	if month < 1 || month > 12 {
		return nil, validation.Errorf("month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, validation.Errorf("year must be between 1970 and 9999")
	}

	_, loc, err := s.users.Locate(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetActivity(ctx, id, clerkID, false); err != nil {
		return nil, err
	}

	first := civil.Date{Year: year, Month: time.Month(month), Day: 1}
	last := first.AddMonths(1).AddDays(-1)
	counts, err := s.countsBetween(ctx, id, first, last, loc)
	if err != nil {
		return nil, err
	}

	today := utils.Today(s.now(), loc)
	resp := &calendar.CalendarResponse{ActivityID: id, Year: year, Month: month}
	for _, d := range weekly_stats.BuildRange(first, last, counts) {
		resp.Days = append(resp.Days, &calendar.CalendarDay{
			Date:      d.Date,
			Count:     d.Count,
			Completed: d.Completed,
			IsToday:   d.Date == today,
		})
	}
	return resp, nil
}

func (s *ActivityService) countsBetween(ctx context.Context, id string, first, last civil.Date, loc *time.Location) (map[civil.Date]int, error) {
	from, to := utils.RangeBounds(first, last, loc)
	events, err := s.store.ListEventsInRange(ctx, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	times := make([]time.Time, 0, len(events))
	for _, e := range events {
		times = append(times, e.Timestamp)
	}
	return weekly_stats.CountByDate(times, loc), nil
}

// GetTimer renders the abstinence timer of a quit activity.
func (s *ActivityService) GetTimer(ctx context.Context, clerkID, id string) (*abstinence.TimeDisplay, error) {
	u, a, last, err := s.loadQuit(ctx, clerkID, id)
	if err != nil {
		return nil, err
	}

	display := s.timerFor(a, last, a.AbstinenceLabel(u.DefaultAbstinenceText), s.now())
	return &display, nil
}

// GetGoalOptions lists the ladder with entries already reached flagged.
func (s *ActivityService) GetGoalOptions(ctx context.Context, clerkID, id string) ([]abstinence.GoalOption, error) {
	u, a, last, err := s.loadQuit(ctx, clerkID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	display := s.timerFor(a, last, a.AbstinenceLabel(u.DefaultAbstinenceText), now)
	hours := abstinence.Hours(abstinence.Elapsed(display.Anchor, now))
	return abstinence.Options(hours, abstinence.Goal{Name: display.CurrentGoal, Hours: display.GoalHours}), nil
}

// SetGoal applies a manual goal override. Reached goals are rejected with
// abstinence.ErrGoalCompleted.
func (s *ActivityService) SetGoal(ctx context.Context, clerkID, id string, req *activity.UpdateGoalRequest) (*abstinence.TimeDisplay, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	u, a, last, err := s.loadQuit(ctx, clerkID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	hours := abstinence.Hours(abstinence.Elapsed(anchorOf(a, last), now))
	goal, err := abstinence.ValidateOverride(hours, req.GoalName, req.GoalHours)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateSelectedGoal(ctx, a.ID, goal); err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	a.SelectedGoal = &goal

	display := s.timerFor(a, last, a.AbstinenceLabel(u.DefaultAbstinenceText), now)
	return &display, nil
}

func (s *ActivityService) loadQuit(ctx context.Context, clerkID, id string) (*user.User, *activity.Activity, *event.Event, error) {
	u, err := s.users.GetProfile(ctx, clerkID)
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := s.store.GetActivity(ctx, id, clerkID, false)
	if err != nil {
		return nil, nil, nil, err
	}
	if !a.IsQuit() {
		return nil, nil, nil, validation.Errorf("timers are only available for quit activities")
	}

	last, err := s.latestEvent(ctx, a.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return u, a, last, nil
}

// LiveSnapshot loads the cached timer input for a live session.
func (s *ActivityService) LiveSnapshot(ctx context.Context, clerkID, id string) (*livestate.Entry, error) {
	u, a, last, err := s.loadQuit(ctx, clerkID, id)
	if err != nil {
		return nil, err
	}

	return &livestate.Entry{
		ActivityID: a.ID,
		OwnerID:    a.OwnerID,
		Name:       a.Name,
		Label:      a.AbstinenceLabel(u.DefaultAbstinenceText),
		Anchor:     anchorOf(a, last),
		Selected:   a.SelectedGoal,
	}, nil
}

// RecordAdvance persists a goal change observed by a live session.
func (s *ActivityService) RecordAdvance(adv livestate.Advance) {
	s.persistSelection(adv.Entry.ActivityID, adv.Entry.Name, adv.Entry.OwnerID, adv.Previous, adv.Selection)
}

// timerFor computes the display and queues the auto-advanced goal when the
// selection moved. a.SelectedGoal is updated in place.
func (s *ActivityService) timerFor(a *activity.Activity, last *event.Event, label string, now time.Time) abstinence.TimeDisplay {
	display, sel := abstinence.Compute(anchorOf(a, last), now, a.SelectedGoal)
	display.ActivityID = a.ID
	display.Label = label

	if sel.Changed {
		s.persistSelection(a.ID, a.Name, a.OwnerID, a.SelectedGoal, sel)
		goal := sel.Goal
		a.SelectedGoal = &goal
	}
	return display
}

func (s *ActivityService) persistSelection(activityID, name, ownerID string, previous *abstinence.Goal, sel abstinence.Selection) {
	goalAutoAdvances.Inc()
	if s.goals == nil {
		return
	}

	job := &GoalJob{
		ActivityID:   activityID,
		ActivityName: name,
		OwnerID:      ownerID,
		Goal:         sel.Goal,
	}
	if sel.Previous == abstinence.GoalStateCompleted && previous != nil {
		reached := *previous
		job.Reached = &reached
	}
	s.goals.Enqueue(job)
}

func anchorOf(a *activity.Activity, last *event.Event) time.Time {
	if last != nil {
		return last.Timestamp
	}
	return a.CreatedAt
}
