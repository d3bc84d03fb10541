package user

import "time"

const DefaultAbstinenceText = "Abstinence time"

type User struct {
	ClerkID               string    `json:"clerkId"`
	DefaultAbstinenceText string    `json:"defaultAbstinenceText"`
	Timezone              string    `json:"timezone"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

type UpdatePreferencesRequest struct {
	DefaultAbstinenceText *string `json:"defaultAbstinenceText,omitempty" validate:"omitempty,min=1,max=100"`
	Timezone              *string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}
