package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estudyAPI/handlers"
	"estudyAPI/middleware"
	"estudyAPI/services"
	"estudyAPI/tests/helpers"
)

// TestCompleteUnknownSessionReturns404 completes a session id that does not
// exist; the missing row must surface as 404, not a server error.
func TestCompleteUnknownSessionReturns404(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	sessionHandler := handlers.NewSessionHandler(services.NewSessionService(pool, nil))

	clerkID := "user_test_404_sess_" + time.Now().Format("20060102150405")
	helpers.CreateTestUser(t, pool, clerkID)

	rr := completeSessionRequest(t, sessionHandler, clerkID, uuid.NewString(), `{"completed": true}`)
	require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
}

// TestCompleteForeignSessionReturns404 completes a session owned by another
// user. Ownership misses must be indistinguishable from missing rows.
func TestCompleteForeignSessionReturns404(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	sessionService := services.NewSessionService(pool, nil)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	stamp := time.Now().Format("20060102150405")
	ownerID := helpers.CreateTestUser(t, pool, "user_test_404_owner_"+stamp)
	subjectID := helpers.CreateTestSubject(t, pool, ownerID)
	sessionID := helpers.CreateTestSession(t, pool, ownerID, subjectID)

	otherClerkID := "user_test_404_other_" + stamp
	helpers.CreateTestUser(t, pool, otherClerkID)

	rr := completeSessionRequest(t, sessionHandler, otherClerkID, sessionID.String(), `{"completed": true}`)
	require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())

	// The owner's session must be untouched.
	var isCompleted bool
	err := pool.QueryRow(context.Background(),
		`SELECT is_completed FROM study_sessions WHERE id = $1`, sessionID,
	).Scan(&isCompleted)
	require.NoError(t, err)
	assert.False(t, isCompleted)
}

// TestDeleteUnknownSubjectReturns404 deletes a subject id that does not
// exist for the caller.
func TestDeleteUnknownSubjectReturns404(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	subjectHandler := handlers.NewSubjectHandler(services.NewSubjectService(pool))

	clerkID := "user_test_404_subj_" + time.Now().Format("20060102150405")
	helpers.CreateTestUser(t, pool, clerkID)

	unknownID := uuid.NewString()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/subjects/"+unknownID, nil)
	req = mux.SetURLVars(req, map[string]string{"id": unknownID})
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID))

	rr := httptest.NewRecorder()
	subjectHandler.DeleteSubject(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
}

// TestDeleteUnknownMaterialReturns404 deletes a material id that does not
// exist for the caller.
func TestDeleteUnknownMaterialReturns404(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	materialHandler := handlers.NewMaterialHandler(services.NewMaterialService(pool, nil, nil))

	clerkID := "user_test_404_mat_" + time.Now().Format("20060102150405")
	helpers.CreateTestUser(t, pool, clerkID)

	unknownID := uuid.NewString()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/materials/"+unknownID, nil)
	req = mux.SetURLVars(req, map[string]string{"id": unknownID})
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID))

	rr := httptest.NewRecorder()
	materialHandler.DeleteMaterial(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
}
