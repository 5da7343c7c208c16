package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"estudyAPI/internal/types/flashcard"
	"estudyAPI/middleware"
	"estudyAPI/services"
)

type FlashcardHandler struct {
	flashcardService *services.FlashcardService
}

func NewFlashcardHandler(flashcardService *services.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{flashcardService: flashcardService}
}

func (h *FlashcardHandler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req flashcard.GenerateFlashcardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.SubjectID == "" {
		respondWithError(w, http.StatusBadRequest, "subject_id is required")
		return
	}
	if req.Count < 0 || req.Count > 20 {
		respondWithError(w, http.StatusBadRequest, "count must be between 1 and 20")
		return
	}

	resp, err := h.flashcardService.GenerateFlashcards(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}
