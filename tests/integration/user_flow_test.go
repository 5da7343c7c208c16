package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estudyAPI/handlers"
	"estudyAPI/internal/streak"
	modelUser "estudyAPI/internal/types/user"
	"estudyAPI/middleware"
	"estudyAPI/services"
	"estudyAPI/tests/helpers"
)

// TestFullSignUpAndProfileFlow simulates the Clerk webhook lifecycle and the
// profile endpoints built on top of it.
func TestFullSignUpAndProfileFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	sessionService := services.NewSessionService(pool, nil)
	userHandler := handlers.NewUserHandler(userService, sessionService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405")

	t.Log("Step 1: User signs up via Clerk webhook")

	createPayload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req1 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload))
	rr1 := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr1, req1)
	assert.Equal(t, http.StatusOK, rr1.Code, "Webhook should succeed")

	t.Log("Step 2: Verify user and seeded streak in database")

	ctx := context.Background()
	u, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "test.user@example.com", u.Email)
	assert.True(t, u.EmailVerified)

	rec, err := sessionService.GetStreak(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.CurrentStreak)
	assert.Nil(t, rec.LastStudyDate)
	assert.Equal(t, streak.DefaultFreezeCount, rec.FreezeCount)

	t.Log("Step 3: User gets profile")

	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	ctx = context.WithValue(req2.Context(), middleware.ClerkIDKey, clerkID)
	req2 = req2.WithContext(ctx)
	rr2 := httptest.NewRecorder()

	userHandler.GetProfile(rr2, req2)
	assert.Equal(t, http.StatusOK, rr2.Code)

	var profile modelUser.User
	err = json.Unmarshal(rr2.Body.Bytes(), &profile)
	require.NoError(t, err)
	assert.Equal(t, u.Email, profile.Email)

	t.Log("Step 4: User updates profile")

	updateData := `{"firstName": "NewFirst", "username": "newusername123"}`
	req3 := httptest.NewRequest(http.MethodPut, "/api/v1/user/update-profile", strings.NewReader(updateData))
	req3.Header.Set("Content-Type", "application/json")
	ctx = context.WithValue(req3.Context(), middleware.ClerkIDKey, clerkID)
	req3 = req3.WithContext(ctx)
	rr3 := httptest.NewRecorder()

	userHandler.UpdateProfile(rr3, req3)
	assert.Equal(t, http.StatusOK, rr3.Code)

	updatedUser, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "NewFirst", updatedUser.FirstName)
	assert.Equal(t, "newusername123", updatedUser.Username)

	t.Log("Step 5: User deletes account")

	req4 := httptest.NewRequest(http.MethodDelete, "/api/v1/user/delete-account", nil)
	ctx = context.WithValue(req4.Context(), middleware.ClerkIDKey, clerkID)
	req4 = req4.WithContext(ctx)
	rr4 := httptest.NewRecorder()

	userHandler.DeleteAccount(rr4, req4)
	assert.Equal(t, http.StatusOK, rr4.Code)

	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err, "User should be deleted")
}

// TestUserStatsReflectCompletions completes a session and checks the stats
// endpoint counts it.
func TestUserStatsReflectCompletions(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	sessionService := services.NewSessionService(pool, nil)
	userHandler := handlers.NewUserHandler(userService, sessionService)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	clerkID := "user_test_stats_" + time.Now().Format("20060102150405")
	userID := helpers.CreateTestUser(t, pool, clerkID)
	subjectID := helpers.CreateTestSubject(t, pool, userID)
	sessionID := helpers.CreateTestSession(t, pool, userID, subjectID)

	rr := completeSessionRequest(t, sessionHandler, clerkID, sessionID.String(), `{"completed": true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/stats", nil)
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)
	rrStats := httptest.NewRecorder()

	userHandler.GetUserStats(rrStats, req)
	require.Equal(t, http.StatusOK, rrStats.Code, rrStats.Body.String())

	var st map[string]any
	require.NoError(t, json.Unmarshal(rrStats.Body.Bytes(), &st))
	assert.Equal(t, true, st["today_status"])
	assert.Equal(t, float64(1), st["sessions_completed"])
	assert.Equal(t, float64(1), st["current_streak"])
	assert.Equal(t, float64(1), st["subjects_active"])
}
