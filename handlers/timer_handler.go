package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"habitTrackerAPI/internal/logger"
	"habitTrackerAPI/middleware"
	"habitTrackerAPI/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type TimerHandler struct {
	hub *services.TimerHub
}

func NewTimerHandler(hub *services.TimerHub) *TimerHandler {
	return &TimerHandler{hub: hub}
}

// GET /api/v1/timers/ws upgrades to a live timer session.
func (h *TimerHandler) Connect(w http.ResponseWriter, r *http.Request) {
	clerkID, ok := middleware.GetClerkID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Timer Handler: could not upgrade connection", "err", err)
		return
	}

	h.hub.Serve(conn, clerkID)
}
