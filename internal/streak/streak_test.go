package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestAdvanceSameDayIsNoOp(t *testing.T) {
	today := date(2025, time.March, 10)
	prev := Record{
		CurrentStreak: 5,
		LongestStreak: 10,
		LastStudyDate: datePtr(2025, time.March, 10),
		FreezeCount:   2,
	}

	res := Advance(prev, today)

	assert.False(t, res.Updated)
	assert.Equal(t, 5, res.Streak)
	assert.Equal(t, 10, res.Longest)
	assert.Nil(t, res.Milestone)
	assert.False(t, res.FreezeUsed)
	assert.Equal(t, 2, res.FreezeCount)
	assert.Equal(t, prev, res.Record)

	// Calling again with the no-op output stays a no-op.
	again := Advance(res.Record, today)
	assert.False(t, again.Updated)
	assert.Equal(t, res.Record, again.Record)
}

func TestAdvanceContinuesFromYesterday(t *testing.T) {
	today := date(2025, time.March, 10)
	prev := Record{
		CurrentStreak: 5,
		LongestStreak: 10,
		LastStudyDate: datePtr(2025, time.March, 9),
		FreezeCount:   1,
	}

	res := Advance(prev, today)

	assert.True(t, res.Updated)
	assert.Equal(t, 6, res.Streak)
	assert.Equal(t, 10, res.Longest)
	assert.False(t, res.FreezeUsed)
	assert.Equal(t, 1, res.FreezeCount)
	assert.Nil(t, res.Milestone)
	require.NotNil(t, res.Record.LastStudyDate)
	assert.Equal(t, today, *res.Record.LastStudyDate)
}

func TestAdvanceFreezeBridgesOneMissedDay(t *testing.T) {
	today := date(2025, time.March, 10)
	prev := Record{
		CurrentStreak: 6,
		LongestStreak: 6,
		LastStudyDate: datePtr(2025, time.March, 8),
		FreezeCount:   1,
	}

	res := Advance(prev, today)

	assert.True(t, res.Updated)
	assert.Equal(t, 7, res.Streak)
	assert.True(t, res.FreezeUsed)
	// Consumed to 0, then week boundary replenishes back to 1.
	assert.Equal(t, 1, res.FreezeCount)
	assert.Equal(t, 7, res.Longest)
	require.NotNil(t, res.Milestone)
	assert.Equal(t, 7, *res.Milestone)
}

func TestAdvanceResetsWithoutFreeze(t *testing.T) {
	today := date(2025, time.March, 10)
	prev := Record{
		CurrentStreak: 6,
		LongestStreak: 10,
		LastStudyDate: datePtr(2025, time.March, 8),
		FreezeCount:   0,
	}

	res := Advance(prev, today)

	assert.True(t, res.Updated)
	assert.Equal(t, 1, res.Streak)
	assert.False(t, res.FreezeUsed)
	assert.Equal(t, 10, res.Longest)
	// Milestones already passed on the old climb are not re-credited
	// when the streak restarts below them.
	assert.Nil(t, res.Milestone)
}

func TestAdvanceResetsAfterLongGapEvenWithFreezes(t *testing.T) {
	today := date(2025, time.March, 10)
	prev := Record{
		CurrentStreak: 40,
		LongestStreak: 40,
		LastStudyDate: datePtr(2025, time.March, 1),
		FreezeCount:   3,
	}

	res := Advance(prev, today)

	assert.Equal(t, 1, res.Streak)
	assert.False(t, res.FreezeUsed)
	assert.Equal(t, 3, res.FreezeCount)
	assert.Equal(t, 40, res.Longest)
}

func TestAdvanceFirstEverCompletion(t *testing.T) {
	prev := Record{
		CurrentStreak: 0,
		LongestStreak: 0,
		LastStudyDate: nil,
		FreezeCount:   DefaultFreezeCount,
	}

	res := Advance(prev, date(2025, time.July, 4))

	assert.True(t, res.Updated)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, 1, res.Longest)
	assert.Nil(t, res.Milestone)
	assert.False(t, res.FreezeUsed)
	assert.Equal(t, DefaultFreezeCount, res.FreezeCount)
}

func TestAdvanceFreezeCountNeverExceedsCap(t *testing.T) {
	rec := Record{
		CurrentStreak: 0,
		LongestStreak: 0,
		FreezeCount:   DefaultFreezeCount,
	}

	// Study 100 consecutive days; every 7th day awards a credit but the
	// cap holds.
	day := date(2025, time.January, 1)
	for i := 0; i < 100; i++ {
		res := Advance(rec, day)
		require.True(t, res.Updated)
		assert.LessOrEqual(t, res.FreezeCount, MaxFreezeCount)
		assert.GreaterOrEqual(t, res.FreezeCount, 0)
		rec = res.Record
		day = day.AddDate(0, 0, 1)
	}

	assert.Equal(t, 100, rec.CurrentStreak)
	assert.Equal(t, MaxFreezeCount, rec.FreezeCount)
}

func TestAdvanceMilestonesCrossedOncePerClimb(t *testing.T) {
	rec := Record{FreezeCount: DefaultFreezeCount}
	day := date(2025, time.January, 1)

	var crossed []int
	for i := 0; i < 30; i++ {
		res := Advance(rec, day)
		if res.Milestone != nil {
			crossed = append(crossed, *res.Milestone)
		}
		rec = res.Record
		day = day.AddDate(0, 0, 1)
	}

	assert.Equal(t, []int{3, 7, 14, 30}, crossed)
}

func TestAdvanceLongestTracksCurrent(t *testing.T) {
	today := date(2025, time.March, 10)
	prev := Record{
		CurrentStreak: 9,
		LongestStreak: 9,
		LastStudyDate: datePtr(2025, time.March, 9),
		FreezeCount:   0,
	}

	res := Advance(prev, today)
	assert.Equal(t, 10, res.Streak)
	assert.Equal(t, 10, res.Longest)
	assert.GreaterOrEqual(t, res.Longest, res.Streak)
}

func TestAdvanceIgnoresTimeOfDay(t *testing.T) {
	lastEvening := time.Date(2025, time.March, 9, 23, 55, 0, 0, time.UTC)
	prev := Record{
		CurrentStreak: 2,
		LongestStreak: 2,
		LastStudyDate: &lastEvening,
		FreezeCount:   1,
	}

	res := Advance(prev, time.Date(2025, time.March, 10, 0, 5, 0, 0, time.UTC))
	assert.Equal(t, 3, res.Streak)
	require.NotNil(t, res.Milestone)
	assert.Equal(t, 3, *res.Milestone)
	require.NotNil(t, res.Record.LastStudyDate)
	assert.Equal(t, date(2025, time.March, 10), *res.Record.LastStudyDate)
}

func TestNormalizedClampsCorruptValues(t *testing.T) {
	today := date(2025, time.March, 10)
	future := date(2025, time.April, 1)

	rec := Record{
		CurrentStreak: -4,
		LongestStreak: -1,
		FreezeCount:   9,
		LastStudyDate: &future,
	}.Normalized(today)

	assert.Equal(t, 0, rec.CurrentStreak)
	assert.Equal(t, 0, rec.LongestStreak)
	assert.Equal(t, MaxFreezeCount, rec.FreezeCount)
	require.NotNil(t, rec.LastStudyDate)
	assert.Equal(t, today, *rec.LastStudyDate)

	negFreeze := Record{FreezeCount: -2}.Normalized(today)
	assert.Equal(t, 0, negFreeze.FreezeCount)
}
