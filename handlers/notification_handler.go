package handlers

import (
	"context"
	"net/http"

	"habitTrackerAPI/internal/types/notification"
	"habitTrackerAPI/middleware"
	"habitTrackerAPI/services"
)

// NotificationHandler manages the push tokens milestone pushes go to.
type NotificationHandler struct {
	userService *services.UserService
}

func NewNotificationHandler(userService *services.UserService) *NotificationHandler {
	return &NotificationHandler{
		userService: userService,
	}
}

// POST /api/v1/user/devices
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req notification.RegisterDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.userService.RegisterDevice(ctx, clerkID, &req); err != nil {
		respondWithServiceError(w, "Notification Handler", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered successfully"})
}

// DELETE /api/v1/user/devices
func (h *NotificationHandler) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req notification.UnregisterDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	removed, err := h.userService.UnregisterDevice(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, "Notification Handler", err)
		return
	}
	if !removed {
		respondWithError(w, http.StatusNotFound, "Device not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device removed successfully"})
}

// GET /api/v1/user/devices
func (h *NotificationHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	devices, err := h.userService.ListDevices(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, "Notification Handler", err)
		return
	}
	if devices == nil {
		devices = []notification.DeviceToken{}
	}

	respondWithJSON(w, http.StatusOK, devices)
}
