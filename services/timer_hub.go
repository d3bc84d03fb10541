package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"habitTrackerAPI/internal/livestate"
	"habitTrackerAPI/internal/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// maxWatched caps the activities one session may watch.
	maxWatched = 50
)

// TimerSource loads timer inputs and takes goal advances seen while ticking.
type TimerSource interface {
	LiveSnapshot(ctx context.Context, clerkID, activityID string) (*livestate.Entry, error)
	RecordAdvance(adv livestate.Advance)
}

// TimerHub tracks the open live timer sessions.
type TimerHub struct {
	source   TimerSource
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	clients map[*TimerClient]struct{}
}

func NewTimerHub(source TimerSource, interval time.Duration) *TimerHub {
	return &TimerHub{
		source:   source,
		interval: interval,
		now:      time.Now,
		clients:  make(map[*TimerClient]struct{}),
	}
}

// TimerClient is one websocket connection and the timers it watches.
type TimerClient struct {
	hub     *TimerHub
	conn    *websocket.Conn
	clerkID string
	send    chan []byte
	state   *livestate.State
	ctx     context.Context
	cancel  context.CancelFunc
}

type timerCommand struct {
	Action      string   `json:"action"`
	ActivityIDs []string `json:"activity_ids"`
	ActivityID  string   `json:"activity_id"`
}

type timerFrame struct {
	Type   string `json:"type"`
	Timers any    `json:"timers,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Serve registers conn and starts its pumps. It returns immediately.
func (h *TimerHub) Serve(conn *websocket.Conn, clerkID string) *TimerClient {
	ctx, cancel := context.WithCancel(context.Background())
	c := &TimerClient{
		hub:     h,
		conn:    conn,
		clerkID: clerkID,
		send:    make(chan []byte, 16),
		state:   livestate.New(),
		ctx:     ctx,
		cancel:  cancel,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	liveTimerSessions.Inc()

	go c.writePump()
	go c.tickLoop()
	go c.readPump()
	return c
}

func (h *TimerHub) unregister(c *TimerClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		liveTimerSessions.Dec()
	}
}

// Sessions returns the number of open sessions.
func (h *TimerHub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close ends every session.
func (h *TimerHub) Close() {
	h.mu.Lock()
	clients := make([]*TimerClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.cancel()
	}
}

func (c *TimerClient) readPump() {
	defer func() {
		c.cancel()
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Timer Hub: read failed", "clerk_id", c.clerkID, "err", err)
			}
			return
		}

		var cmd timerCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.sendFrame(timerFrame{Type: "error", Error: "invalid message"})
			continue
		}

		switch cmd.Action {
		case "watch":
			if len(cmd.ActivityIDs) > maxWatched {
				c.sendFrame(timerFrame{Type: "error", Error: "too many activities"})
				continue
			}
			for _, id := range c.state.Watch(cmd.ActivityIDs) {
				go c.refresh(id)
			}
		case "refresh":
			if c.state.IsWatching(cmd.ActivityID) {
				go c.refresh(cmd.ActivityID)
			}
		default:
			c.sendFrame(timerFrame{Type: "error", Error: "unknown action"})
		}
	}
}

// refresh loads one activity. A result for an activity that stopped being
// watched in the meantime is discarded by the state.
func (c *TimerClient) refresh(activityID string) {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	entry, err := c.hub.source.LiveSnapshot(ctx, c.clerkID, activityID)
	if err != nil {
		logger.Debug("Timer Hub: snapshot failed", "activity_id", activityID, "err", err)
		c.state.Forget(activityID)
		c.sendFrame(timerFrame{Type: "error", Error: "activity unavailable: " + activityID})
		return
	}
	c.state.Apply(*entry)
}

// tickLoop re-renders cached timers once per interval until the session ends.
func (c *TimerClient) tickLoop() {
	ticker := time.NewTicker(c.hub.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			displays, advances := c.state.Tick(c.hub.now())
			for _, adv := range advances {
				c.hub.source.RecordAdvance(adv)
			}
			c.sendFrame(timerFrame{Type: "tick", Timers: displays})
		case <-c.ctx.Done():
			return
		}
	}
}

// sendFrame drops the frame when the client is not keeping up; the next
// tick carries fresh values anyway.
func (c *TimerClient) sendFrame(f timerFrame) {
	data, err := json.Marshal(f)
	if err != nil {
		logger.Error("Timer Hub: failed to marshal frame", "err", err)
		return
	}

	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
	}
}

// writePump handles messages going to the client.
func (c *TimerClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.cancel()
				return
			}

		case <-ticker.C:
			// Heartbeat: keep connection alive
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}

		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
