package event

import "time"

type Event struct {
	ID           string    `json:"id"`
	ActivityID   string    `json:"activity_id"`
	Timestamp    time.Time `json:"timestamp"`
	Note         *string   `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ActivityName string    `json:"activity_name,omitempty"`
	ActivityKind string    `json:"activity_type,omitempty"`
}

type CreateEventRequest struct {
	ActivityID string  `json:"activity_id" validate:"required"`
	Timestamp  *string `json:"timestamp,omitempty"`
	Note       *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type UpdateEventRequest struct {
	Timestamp *string `json:"timestamp,omitempty"`
	Note      *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type QuickLogRequest struct {
	ActivityID string `json:"activity_id" validate:"required"`
}

type ListOptions struct {
	ActivityID      string
	IncludeActivity bool
	Limit           int
	Offset          int
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}
