package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"habitTrackerAPI/internal/daystatus"
	"habitTrackerAPI/internal/types/activity"
	"habitTrackerAPI/middleware"
	"habitTrackerAPI/services"
)

type ActivityHandler struct {
	activityService  *services.ActivityService
	dayStatusService *services.DayStatusService
}

func NewActivityHandler(activityService *services.ActivityService, dayStatusService *services.DayStatusService) *ActivityHandler {
	return &ActivityHandler{
		activityService:  activityService,
		dayStatusService: dayStatusService,
	}
}

// GET /api/v1/activities
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	q := r.URL.Query()
	var opts activity.ListOptions
	for name, dst := range map[string]*bool{
		"include_stats":      &opts.IncludeStats,
		"include_last_event": &opts.IncludeLastEvent,
		"include_archived":   &opts.IncludeArchived,
	} {
		v, err := queryBool(q.Get(name))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Query parameter '"+name+"' must be a boolean")
			return
		}
		*dst = v
	}

	views, err := h.activityService.ListActivities(ctx, clerkID, opts)
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}
	if views == nil {
		views = []activity.View{}
	}

	respondWithJSON(w, http.StatusOK, views)
}

// POST /api/v1/activities
func (h *ActivityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req activity.CreateActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a, err := h.activityService.CreateActivity(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, a)
}

// GET /api/v1/activities/{id}
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	view, err := h.activityService.GetActivity(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

// PUT /api/v1/activities/{id}
func (h *ActivityHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req activity.UpdateActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a, err := h.activityService.UpdateActivity(ctx, clerkID, mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, a)
}

// DELETE /api/v1/activities/{id} archives; nothing is destroyed.
func (h *ActivityHandler) ArchiveActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.activityService.ArchiveActivity(ctx, clerkID, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Activity archived"})
}

// POST /api/v1/activities/{id}/restore
func (h *ActivityHandler) RestoreActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.activityService.RestoreActivity(ctx, clerkID, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Activity restored"})
}

// GET /api/v1/activities/{id}/stats
func (h *ActivityHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	st, err := h.activityService.GetStats(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, st)
}

// GET /api/v1/activities/{id}/weekly?end=YYYY-MM-DD
func (h *ActivityHandler) GetWeeklyLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	log, err := h.activityService.GetWeeklyLog(ctx, clerkID, mux.Vars(r)["id"], r.URL.Query().Get("end"))
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, log)
}

// GET /api/v1/activities/{id}/calendar?year=&month=
// Missing parameters default to the current UTC month.
func (h *ActivityHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'year' must be a number")
			return
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'month' must be a number")
			return
		}
		month = n
	}

	cal, err := h.activityService.GetCalendar(ctx, clerkID, mux.Vars(r)["id"], year, month)
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, cal)
}

// GET /api/v1/activities/{id}/timer
func (h *ActivityHandler) GetTimer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	display, err := h.activityService.GetTimer(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, display)
}

// GET /api/v1/activities/{id}/goals
func (h *ActivityHandler) GetGoalOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	options, err := h.activityService.GetGoalOptions(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, options)
}

// PATCH /api/v1/activities/{id}/goal
func (h *ActivityHandler) SetGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req activity.UpdateGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	display, err := h.activityService.SetGoal(ctx, clerkID, mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithServiceError(w, "Activity Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, display)
}

// POST /api/v1/activities/{id}/day-status
func (h *ActivityHandler) SetDayStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var payload daystatus.Payload
	if !decodeBody(w, r, &payload) {
		return
	}

	result, err := h.dayStatusService.SetDayStatus(ctx, clerkID, mux.Vars(r)["id"], payload)
	if err != nil {
		respondWithServiceError(w, "Day Status Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func queryBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
