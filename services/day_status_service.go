package services

import (
	"context"
	"errors"

	"habitTrackerAPI/internal/daystatus"
	"habitTrackerAPI/internal/logger"
	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/validation"
)

type DayStatusService struct {
	activities store.ActivityStore
	users      *UserService
	reconciler *daystatus.Reconciler
}

func NewDayStatusService(activities store.ActivityStore, users *UserService, reconciler *daystatus.Reconciler) *DayStatusService {
	return &DayStatusService{activities: activities, users: users, reconciler: reconciler}
}

// SetDayStatus validates the payload, checks ownership and reconciles the
// day. Nothing is written unless every check passes.
func (s *DayStatusService) SetDayStatus(ctx context.Context, clerkID, activityID string, payload daystatus.Payload) (*daystatus.Result, error) {
	req, err := payload.Decode()
	if err != nil {
		dayStatusMutations.WithLabelValues("unknown", "invalid").Inc()
		return nil, err
	}

	_, loc, err := s.users.Locate(ctx, clerkID)
	if err != nil {
		dayStatusMutations.WithLabelValues(req.Mode(), "error").Inc()
		return nil, err
	}

	a, err := s.activities.GetActivity(ctx, activityID, clerkID, false)
	if err != nil {
		dayStatusMutations.WithLabelValues(req.Mode(), outcomeOf(err)).Inc()
		return nil, err
	}

	res, err := s.reconciler.Apply(ctx, a, loc, req)
	if err != nil {
		dayStatusMutations.WithLabelValues(req.Mode(), outcomeOf(err)).Inc()
		if !errors.Is(err, validation.ErrInvalid) {
			logger.Error("Day Status Service: reconcile failed", "activity_id", activityID, "date", req.Date(), "err", err)
		}
		return nil, err
	}

	outcome := "noop"
	switch {
	case res.Inserted > 0:
		outcome = "inserted"
	case res.Deleted > 0:
		outcome = "deleted"
	}
	dayStatusMutations.WithLabelValues(req.Mode(), outcome).Inc()

	logger.Debug("Day Status Service: reconciled",
		"activity_id", activityID, "mode", req.Mode(), "date", req.Date(),
		"inserted", res.Inserted, "deleted", res.Deleted, "count", res.Count)
	return res, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, validation.ErrInvalid):
		return "invalid"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
