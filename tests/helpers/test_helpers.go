package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"estudyAPI/internal/streak"
)

// SetupTestDB creates a test database connection
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Fatal("TEST_DATABASE_URL or DATABASE_URL must be set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB cleans up test data
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM users WHERE email LIKE 'test%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	pool.Close()
}

// GenerateMockClerkJWT generates a mock JWT token for testing
func GenerateMockClerkJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// MockClerkWebhookPayload creates a mock webhook payload
func MockClerkWebhookPayload(eventType string, clerkID string) []byte {
	payload := ""

	switch eventType {
	case "user.created":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Test",
				"last_name": "User",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "test.user@example.com",
					"verification": {"status": "verified"}
				}],
				"username": "testuser",
				"image_url": "https://example.com/image.jpg",
				"profile_image_url": "https://example.com/image.jpg"
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)

	case "user.updated":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Updated",
				"last_name": "User",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "test.user@example.com",
					"verification": {"status": "verified"}
				}],
				"username": "updateduser",
				"image_url": "https://example.com/new-image.jpg"
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)

	case "user.deleted":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"deleted": true
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)
	}

	return []byte(payload)
}

// CreateTestUser inserts a user row plus its streak record and returns the
// user id.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool, clerkID string) uuid.UUID {
	ctx := context.Background()

	userID := uuid.New()
	_, err := pool.Exec(ctx, `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, timezone, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 'Test', 'User', '', 'UTC', NOW(), NOW())
	`, userID, clerkID, fmt.Sprintf("test+%s@example.com", clerkID), "testuser_"+clerkID)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	_, err = pool.Exec(ctx, `
	INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_study_date, freeze_count, created_at, updated_at)
	VALUES ($1, $2, 0, 0, NULL, $3, NOW(), NOW())
	`, uuid.New(), userID, streak.DefaultFreezeCount)
	if err != nil {
		t.Fatalf("Failed to create test streak: %v", err)
	}

	return userID
}

// CreateTestSubject inserts a subject owned by the user.
func CreateTestSubject(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) uuid.UUID {
	ctx := context.Background()

	subjectID := uuid.New()
	examDate := time.Now().UTC().AddDate(0, 0, 14)
	_, err := pool.Exec(ctx, `
	INSERT INTO subjects (id, user_id, name, description, color, exam_date, hours_per_day, is_archived, created_at, updated_at)
	VALUES ($1, $2, 'Linear Algebra', NULL, '#6366f1', $3, 2.0, false, NOW(), NOW())
	`, subjectID, userID, examDate)
	if err != nil {
		t.Fatalf("Failed to create test subject: %v", err)
	}

	return subjectID
}

// CreateTestSession inserts a plan with a single uncompleted session
// scheduled for today and returns the session id.
func CreateTestSession(t *testing.T, pool *pgxpool.Pool, userID, subjectID uuid.UUID) uuid.UUID {
	ctx := context.Background()

	planID := uuid.New()
	_, err := pool.Exec(ctx, `
	INSERT INTO study_plans (id, subject_id, user_id, is_active, total_days, total_hours, generated_at)
	VALUES ($1, $2, $3, true, 1, 2.0, NOW())
	`, planID, subjectID, userID)
	if err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	sessionID := uuid.New()
	_, err = pool.Exec(ctx, `
	INSERT INTO study_sessions (id, plan_id, subject_id, user_id, scheduled_date, duration_hours, title, description, topics, is_completed, created_at)
	VALUES ($1, $2, $3, $4, CURRENT_DATE, 2.0, 'Vector spaces', NULL, '{}', false, NOW())
	`, sessionID, planID, subjectID, userID)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return sessionID
}

// SetStreakState forces the stored streak record into a known shape so
// transitions can be exercised from any starting point.
func SetStreakState(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, current, longest int, lastStudy *time.Time, freezes int) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, `
	UPDATE streaks
	SET current_streak = $2, longest_streak = $3, last_study_date = $4, freeze_count = $5, updated_at = NOW()
	WHERE user_id = $1
	`, userID, current, longest, lastStudy, freezes)
	if err != nil {
		t.Fatalf("Failed to set streak state: %v", err)
	}
}
