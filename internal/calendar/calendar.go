package calendar

import "time"

type CalendarDay struct {
	Date         time.Time `json:"date" db:"date"`
	StudiedToday bool      `json:"studied_today" db:"studied_today"`
	IsToday      bool      `json:"is_today"`
}

type CalendarResponse struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []*CalendarDay `json:"days"`
}
