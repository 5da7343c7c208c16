package stats

type DaysStat struct {
	Period      string `json:"period"` // "week", "month", "year", "all_time"
	DaysStudied int    `json:"days_studied" db:"days_studied"`
	TotalDays   int    `json:"total_days"`
}

type UserStats struct {
	TodayStatus       bool    `json:"today_status"`
	DaysThisWeek      int     `json:"days_this_week"`
	DaysThisMonth     int     `json:"days_this_month"`
	TotalDaysStudied  int     `json:"total_days_studied"`
	SessionsCompleted int     `json:"sessions_completed"`
	SessionsTotal     int     `json:"sessions_total"`
	HoursCompleted    float64 `json:"hours_completed"`
	CurrentStreak     int     `json:"current_streak"`
	LongestStreak     int     `json:"longest_streak"`
	FreezeCount       int     `json:"freeze_count"`
	SubjectsActive    int     `json:"subjects_active"`
	DisciplineScore   float64 `json:"discipline_score"`
}
