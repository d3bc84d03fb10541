package clerk

import "encoding/json"

// WebhookEvent is the envelope Clerk posts to /webhooks/clerk.
type WebhookEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

// UserData is the part of a user payload the API keeps.
type UserData struct {
	ID string `json:"id"`
}
