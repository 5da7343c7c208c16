package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"estudyAPI/handlers"
	"estudyAPI/middleware"
	"estudyAPI/services"
	"estudyAPI/tests/helpers"
)

func generateFlashcardsRequest(t *testing.T, handler *handlers.FlashcardHandler, clerkID, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/flashcards/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.GenerateFlashcards(rr, req)
	return rr
}

// TestGenerateFlashcardsRejectsForeignSubject asks for flashcards over a
// subject owned by a different user. The ownership gate must answer 404
// before any model call is attempted.
func TestGenerateFlashcardsRejectsForeignSubject(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	// A nil model client proves the request is rejected before generation.
	flashcardService := services.NewFlashcardService(pool, services.NewSubjectService(pool), nil)
	flashcardHandler := handlers.NewFlashcardHandler(flashcardService)

	stamp := time.Now().Format("20060102150405")
	ownerID := helpers.CreateTestUser(t, pool, "user_test_fc_owner_"+stamp)
	subjectID := helpers.CreateTestSubject(t, pool, ownerID)

	otherClerkID := "user_test_fc_other_" + stamp
	helpers.CreateTestUser(t, pool, otherClerkID)

	rr := generateFlashcardsRequest(t, flashcardHandler, otherClerkID,
		`{"subject_id": "`+subjectID.String()+`", "count": 5}`)
	require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
}

// TestGenerateFlashcardsValidation exercises the request checks that never
// reach the service.
func TestGenerateFlashcardsValidation(t *testing.T) {
	flashcardHandler := handlers.NewFlashcardHandler(services.NewFlashcardService(nil, nil, nil))

	rr := generateFlashcardsRequest(t, flashcardHandler, "user_test_fc_validation", `{"count": 5}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = generateFlashcardsRequest(t, flashcardHandler, "user_test_fc_validation",
		`{"subject_id": "11111111-1111-1111-1111-111111111111", "count": 99}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
