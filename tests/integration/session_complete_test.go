package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estudyAPI/handlers"
	"estudyAPI/internal/streak"
	"estudyAPI/internal/types/session"
	"estudyAPI/middleware"
	"estudyAPI/services"
	"estudyAPI/tests/helpers"
)

func completeSessionRequest(t *testing.T, handler *handlers.SessionHandler, clerkID, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/sessions/"+sessionID+"/complete", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"id": sessionID})
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.CompleteSession(rr, req)
	return rr
}

// TestSessionCompletionStartsStreak covers the first ever completion: streak
// goes to 1 and no milestone fires.
func TestSessionCompletionStartsStreak(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	sessionService := services.NewSessionService(pool, nil)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	clerkID := "user_test_complete_" + time.Now().Format("20060102150405")
	userID := helpers.CreateTestUser(t, pool, clerkID)
	subjectID := helpers.CreateTestSubject(t, pool, userID)
	sessionID := helpers.CreateTestSession(t, pool, userID, subjectID)

	rr := completeSessionRequest(t, sessionHandler, clerkID, sessionID.String(), `{"completed": true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp session.CompleteSessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Streak)
	assert.Equal(t, 1, resp.Streak.Streak)
	assert.Equal(t, 1, resp.Streak.Longest)
	assert.Nil(t, resp.Streak.Milestone)
	assert.False(t, resp.Streak.FreezeUsed)
}

// TestSecondCompletionSameDayIsNoOp completes two sessions on the same day
// and verifies the streak moves only once.
func TestSecondCompletionSameDayIsNoOp(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	sessionService := services.NewSessionService(pool, nil)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	clerkID := "user_test_noop_" + time.Now().Format("20060102150405")
	userID := helpers.CreateTestUser(t, pool, clerkID)
	subjectID := helpers.CreateTestSubject(t, pool, userID)
	first := helpers.CreateTestSession(t, pool, userID, subjectID)
	second := helpers.CreateTestSession(t, pool, userID, subjectID)

	rr1 := completeSessionRequest(t, sessionHandler, clerkID, first.String(), `{"completed": true}`)
	require.Equal(t, http.StatusOK, rr1.Code)

	rr2 := completeSessionRequest(t, sessionHandler, clerkID, second.String(), `{"completed": true}`)
	require.Equal(t, http.StatusOK, rr2.Code)

	var resp session.CompleteSessionResponse
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &resp))
	require.NotNil(t, resp.Streak)
	assert.Equal(t, 1, resp.Streak.Streak, "same-day completion must not increment")

	rec, err := sessionService.GetStreak(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak)
}

// TestUncompleteDoesNotReverseStreak flags a completed session back to
// incomplete and verifies the streak recorded for the day survives.
func TestUncompleteDoesNotReverseStreak(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	sessionService := services.NewSessionService(pool, nil)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	clerkID := "user_test_uncomplete_" + time.Now().Format("20060102150405")
	userID := helpers.CreateTestUser(t, pool, clerkID)
	subjectID := helpers.CreateTestSubject(t, pool, userID)
	sessionID := helpers.CreateTestSession(t, pool, userID, subjectID)

	rr1 := completeSessionRequest(t, sessionHandler, clerkID, sessionID.String(), `{"completed": true}`)
	require.Equal(t, http.StatusOK, rr1.Code)

	rr2 := completeSessionRequest(t, sessionHandler, clerkID, sessionID.String(), `{"completed": false}`)
	require.Equal(t, http.StatusOK, rr2.Code)

	var resp session.CompleteSessionResponse
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Streak, "un-completing must not touch the streak")

	var isCompleted bool
	err := pool.QueryRow(context.Background(),
		`SELECT is_completed FROM study_sessions WHERE id = $1`, sessionID,
	).Scan(&isCompleted)
	require.NoError(t, err)
	assert.False(t, isCompleted)

	rec, err := sessionService.GetStreak(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak)
}

// TestFreezeBridgesMissedDay seeds a 6-day streak that last moved two days
// ago with one freeze banked, then completes a session. The freeze is spent
// to bridge the gap, the streak continues to 7, and the weekly replenish
// restores the freeze.
func TestFreezeBridgesMissedDay(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	sessionService := services.NewSessionService(pool, nil)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	clerkID := "user_test_freeze_" + time.Now().Format("20060102150405")
	userID := helpers.CreateTestUser(t, pool, clerkID)
	subjectID := helpers.CreateTestSubject(t, pool, userID)
	sessionID := helpers.CreateTestSession(t, pool, userID, subjectID)

	twoDaysAgo := streak.DateOnly(time.Now().UTC()).AddDate(0, 0, -2)
	helpers.SetStreakState(t, pool, userID, 6, 6, &twoDaysAgo, 1)

	rr := completeSessionRequest(t, sessionHandler, clerkID, sessionID.String(), `{"completed": true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp session.CompleteSessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Streak)
	assert.Equal(t, 7, resp.Streak.Streak)
	assert.True(t, resp.Streak.FreezeUsed)
	assert.Equal(t, 1, resp.Streak.FreezeCount, "weekly replenish should restore the spent freeze")
	require.NotNil(t, resp.Streak.Milestone)
	assert.Equal(t, 7, *resp.Streak.Milestone)
}

// TestGapWithoutFreezeResets seeds a long-running streak with no freezes and
// a three-day gap; completing a session starts over at 1.
func TestGapWithoutFreezeResets(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	sessionService := services.NewSessionService(pool, nil)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	clerkID := "user_test_reset_" + time.Now().Format("20060102150405")
	userID := helpers.CreateTestUser(t, pool, clerkID)
	subjectID := helpers.CreateTestSubject(t, pool, userID)
	sessionID := helpers.CreateTestSession(t, pool, userID, subjectID)

	threeDaysAgo := streak.DateOnly(time.Now().UTC()).AddDate(0, 0, -3)
	helpers.SetStreakState(t, pool, userID, 12, 12, &threeDaysAgo, 0)

	rr := completeSessionRequest(t, sessionHandler, clerkID, sessionID.String(), `{"completed": true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp session.CompleteSessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Streak)
	assert.Equal(t, 1, resp.Streak.Streak)
	assert.Equal(t, 12, resp.Streak.Longest, "longest must survive the reset")
	assert.Nil(t, resp.Streak.Milestone)
}

// TestConcurrentCompletionsIncrementOnce fires several same-day streak
// updates in parallel; the conditional write must let exactly one through.
func TestConcurrentCompletionsIncrementOnce(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	sessionService := services.NewSessionService(pool, nil)

	clerkID := "user_test_race_" + time.Now().Format("20060102150405")
	userID := helpers.CreateTestUser(t, pool, clerkID)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sessionService.UpdateStreak(context.Background(), userID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	rec, err := sessionService.GetStreak(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak, "concurrent updates must net exactly one increment")
	assert.Equal(t, 1, rec.LongestStreak)
}
