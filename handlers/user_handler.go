package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/logger"
	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/user"
	"habitTrackerAPI/internal/validation"
	"habitTrackerAPI/middleware"
	"habitTrackerAPI/services"
)

const (
	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.GetProfile(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, "User Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.UpdatePreferencesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.userService.UpdatePreferences(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, "User Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.userService.DeleteUser(ctx, clerkID); err != nil {
		respondWithServiceError(w, "User Handler", err)
		return
	}

	logger.Info("User Handler: account deleted", "clerk_id", clerkID)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service errors to status codes. Store
// failures are logged and reported without their text.
func respondWithServiceError(w http.ResponseWriter, prefix string, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid), errors.Is(err, abstinence.ErrUnknownGoal):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, abstinence.ErrGoalCompleted):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn(prefix+": request timed out", "err", err)
		respondWithError(w, http.StatusServiceUnavailable, "Request timed out")
	default:
		logger.Error(prefix+": request failed", "err", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
