package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"habitTrackerAPI/internal/types/event"
	"habitTrackerAPI/middleware"
	"habitTrackerAPI/services"
)

type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

type eventListResponse struct {
	Events     []event.Event     `json:"events"`
	Pagination *event.Pagination `json:"pagination,omitempty"`
}

// GET /api/v1/events?today=&activity_id=&limit=&offset=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	q := r.URL.Query()
	today, err := queryBool(q.Get("today"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'today' must be a boolean")
		return
	}

	if today {
		events, err := h.eventService.TodayEvents(ctx, clerkID)
		if err != nil {
			respondWithServiceError(w, "Event Handler", err)
			return
		}
		respondWithJSON(w, http.StatusOK, eventListResponse{Events: nonNil(events)})
		return
	}

	opts := event.ListOptions{ActivityID: q.Get("activity_id")}
	if opts.Limit, err = queryInt(q.Get("limit")); err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'limit' must be a number")
		return
	}
	if opts.Offset, err = queryInt(q.Get("offset")); err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'offset' must be a number")
		return
	}

	events, page, err := h.eventService.ListEvents(ctx, clerkID, opts)
	if err != nil {
		respondWithServiceError(w, "Event Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, eventListResponse{Events: nonNil(events), Pagination: &page})
}

// POST /api/v1/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req event.CreateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	e, err := h.eventService.CreateEvent(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, "Event Handler", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, e)
}

// POST /api/v1/events/quick-log
func (h *EventHandler) QuickLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req event.QuickLogRequest
	if !decodeBody(w, r, &req) {
		return
	}

	e, err := h.eventService.QuickLog(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, "Event Handler", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, e)
}

// GET /api/v1/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	e, err := h.eventService.GetEvent(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, "Event Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, e)
}

// PUT /api/v1/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req event.UpdateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	e, err := h.eventService.UpdateEvent(ctx, clerkID, mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithServiceError(w, "Event Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, e)
}

// DELETE /api/v1/events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.eventService.DeleteEvent(ctx, clerkID, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, "Event Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}

// GET /api/v1/events/activity/{activityId}/range?start_date=&end_date=
func (h *EventHandler) EventsInRange(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	q := r.URL.Query()
	events, err := h.eventService.EventsInRange(ctx, clerkID, mux.Vars(r)["activityId"], q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		respondWithServiceError(w, "Event Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, eventListResponse{Events: nonNil(events)})
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func nonNil(events []event.Event) []event.Event {
	if events == nil {
		return []event.Event{}
	}
	return events
}
