package streak

import (
	"time"

	"github.com/google/uuid"
)

// Milestones a streak can cross, in ascending order. Kept as data so the
// crossing check never hard-codes individual values.
var Milestones = []int{3, 7, 14, 30, 50, 100, 365}

const (
	// MaxFreezeCount caps banked freeze credits.
	MaxFreezeCount = 3
	// FreezeEveryDays awards one freeze credit each time the streak hits a
	// multiple of this many days.
	FreezeEveryDays = 7
	// DefaultFreezeCount is what a fresh profile starts with.
	DefaultFreezeCount = 1
)

type Record struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentStreak int        `json:"current_streak" db:"current_streak"`
	LongestStreak int        `json:"longest_streak" db:"longest_streak"`
	LastStudyDate *time.Time `json:"last_study_date" db:"last_study_date"`
	FreezeCount   int        `json:"freeze_count" db:"freeze_count"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Result describes one Advance call. Updated is false when the record was
// already stamped for today and nothing changed.
type Result struct {
	Streak      int    `json:"streak"`
	Longest     int    `json:"longest"`
	Milestone   *int   `json:"milestone"`
	FreezeUsed  bool   `json:"freeze_used"`
	FreezeCount int    `json:"freeze_count"`
	Record      Record `json:"-"`
	Updated     bool   `json:"-"`
}

// DateOnly truncates t to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// Normalized clamps a record read from storage back into its invariants:
// non-negative counters, freeze count within [0, MaxFreezeCount], longest at
// least current, and no future-dated last study date. The engine never writes
// values outside those ranges, so this only matters for rows touched by
// something else.
func (r Record) Normalized(today time.Time) Record {
	if r.CurrentStreak < 0 {
		r.CurrentStreak = 0
	}
	if r.LongestStreak < r.CurrentStreak {
		r.LongestStreak = r.CurrentStreak
	}
	if r.FreezeCount < 0 {
		r.FreezeCount = 0
	}
	if r.FreezeCount > MaxFreezeCount {
		r.FreezeCount = MaxFreezeCount
	}
	if r.LastStudyDate != nil && r.LastStudyDate.After(DateOnly(today)) {
		d := DateOnly(today)
		r.LastStudyDate = &d
	}
	return r
}

// Advance computes the streak transition for a completion recorded on today.
// It is pure: the caller supplies today (already in the user-relevant
// timezone) and persists the returned record.
func Advance(prev Record, today time.Time) Result {
	today = DateOnly(today)

	// Already counted today. Repeat completions, retries and concurrent
	// tabs all land here once the first write is visible.
	if prev.LastStudyDate != nil && sameDate(*prev.LastStudyDate, today) {
		return Result{
			Streak:      prev.CurrentStreak,
			Longest:     prev.LongestStreak,
			Milestone:   nil,
			FreezeUsed:  false,
			FreezeCount: prev.FreezeCount,
			Record:      prev,
			Updated:     false,
		}
	}

	yesterday := today.AddDate(0, 0, -1)
	twoDaysAgo := today.AddDate(0, 0, -2)

	newStreak := prev.CurrentStreak
	freezeUsed := false
	newFreezeCount := prev.FreezeCount

	switch {
	case prev.LastStudyDate != nil && sameDate(*prev.LastStudyDate, yesterday):
		// Studied yesterday, streak continues.
		newStreak = prev.CurrentStreak + 1
	case prev.LastStudyDate != nil && sameDate(*prev.LastStudyDate, twoDaysAgo) && prev.FreezeCount > 0:
		// Missed exactly one day with a freeze banked.
		newStreak = prev.CurrentStreak + 1
		newFreezeCount = prev.FreezeCount - 1
		freezeUsed = true
	default:
		newStreak = 1
	}

	// Replenish after consumption, one credit per full week of streak.
	if newStreak%FreezeEveryDays == 0 && newFreezeCount < MaxFreezeCount {
		newFreezeCount++
	}

	newLongest := prev.LongestStreak
	if newStreak > newLongest {
		newLongest = newStreak
	}

	var milestone *int
	for _, m := range Milestones {
		if newStreak >= m && prev.CurrentStreak < m {
			v := m
			milestone = &v
			break
		}
	}

	rec := prev
	rec.CurrentStreak = newStreak
	rec.LongestStreak = newLongest
	rec.LastStudyDate = &today
	rec.FreezeCount = newFreezeCount

	return Result{
		Streak:      newStreak,
		Longest:     newLongest,
		Milestone:   milestone,
		FreezeUsed:  freezeUsed,
		FreezeCount: newFreezeCount,
		Record:      rec,
		Updated:     true,
	}
}
