package calendar

import "cloud.google.com/go/civil"

type CalendarDay struct {
	Date      civil.Date `json:"date"`
	Count     int        `json:"count"`
	Completed bool       `json:"completed"`
	IsToday   bool       `json:"is_today"`
}

type CalendarResponse struct {
	ActivityID string         `json:"activity_id"`
	Year       int            `json:"year"`
	Month      int            `json:"month"`
	Days       []*CalendarDay `json:"days"`
}
