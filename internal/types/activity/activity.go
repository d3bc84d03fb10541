package activity

import (
	"time"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/stats"
	"habitTrackerAPI/internal/types/event"
	"habitTrackerAPI/internal/weekly_stats"
)

type Kind string

const (
	KindHabit Kind = "habit"
	KindQuit  Kind = "quit"
)

const DefaultColor = "#6366f1"

type Activity struct {
	ID                       string           `json:"id"`
	OwnerID                  string           `json:"user_id"`
	Name                     string           `json:"name"`
	Kind                     Kind             `json:"type"`
	Color                    string           `json:"color"`
	Icon                     *string          `json:"icon,omitempty"`
	Archived                 bool             `json:"archived"`
	DisplayOrder             int              `json:"display_order"`
	AllowMultiplePerDay      bool             `json:"allow_multiple_entries_per_day"`
	SelectedGoal             *abstinence.Goal `json:"selected_goal,omitempty"`
	AbstinenceText           *string          `json:"abstinence_text,omitempty"`
	UseDefaultAbstinenceText bool             `json:"use_default_abstinence_text"`
	CreatedAt                time.Time        `json:"created_at"`
	UpdatedAt                time.Time        `json:"updated_at"`
}

func (a *Activity) IsQuit() bool { return a.Kind == KindQuit }

// AbstinenceLabel resolves the label shown next to a quit timer.
func (a *Activity) AbstinenceLabel(userDefault string) string {
	if a.UseDefaultAbstinenceText || a.AbstinenceText == nil || *a.AbstinenceText == "" {
		return userDefault
	}
	return *a.AbstinenceText
}

// View is an activity with whichever derived blocks the caller asked for.
type View struct {
	Activity
	Statistics      *stats.Statistics       `json:"statistics,omitempty"`
	LastEvent       *event.Event            `json:"last_event,omitempty"`
	WeeklyLog       *weekly_stats.WeeklyLog `json:"weekly_log,omitempty"`
	TimeDisplay     *abstinence.TimeDisplay `json:"time_display,omitempty"`
	AbstinenceLabel string                  `json:"abstinence_label,omitempty"`
}

type CreateActivityRequest struct {
	Name                     string  `json:"name" validate:"required,min=1,max=100"`
	Kind                     Kind    `json:"type" validate:"required,oneof=habit quit"`
	Color                    *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Icon                     *string `json:"icon,omitempty" validate:"omitempty,max=50"`
	AllowMultiplePerDay      bool    `json:"allow_multiple_entries_per_day"`
	AbstinenceText           *string `json:"abstinence_text,omitempty" validate:"omitempty,max=100"`
	UseDefaultAbstinenceText *bool   `json:"use_default_abstinence_text,omitempty"`
}

type UpdateActivityRequest struct {
	Name                     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Kind                     *Kind   `json:"type,omitempty" validate:"omitempty,oneof=habit quit"`
	Color                    *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Icon                     *string `json:"icon,omitempty" validate:"omitempty,max=50"`
	DisplayOrder             *int    `json:"display_order,omitempty" validate:"omitempty,min=0"`
	AllowMultiplePerDay      *bool   `json:"allow_multiple_entries_per_day,omitempty"`
	AbstinenceText           *string `json:"abstinence_text,omitempty" validate:"omitempty,max=100"`
	UseDefaultAbstinenceText *bool   `json:"use_default_abstinence_text,omitempty"`
}

type UpdateGoalRequest struct {
	GoalName  string  `json:"goal_name" validate:"required"`
	GoalHours float64 `json:"goal_hours" validate:"omitempty,gt=0"`
}

type ListOptions struct {
	IncludeStats     bool
	IncludeLastEvent bool
	IncludeArchived  bool
}
