package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"estudyAPI/internal/types/material"
	"estudyAPI/middleware"
	"estudyAPI/services"
)

type MaterialHandler struct {
	materialService *services.MaterialService
}

func NewMaterialHandler(materialService *services.MaterialService) *MaterialHandler {
	return &MaterialHandler{materialService: materialService}
}

func (h *MaterialHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req material.CreateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.SubjectID == "" || req.Title == "" || req.Type == "" {
		respondWithError(w, http.StatusBadRequest, "subject_id, title and type are required")
		return
	}

	mat, err := h.materialService.CreateMaterial(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	// Accepted, not Created: summarization still runs in the background.
	respondWithJSON(w, http.StatusAccepted, mat)
}

func (h *MaterialHandler) GetMaterialsBySubject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	subjectID := mux.Vars(r)["id"]

	materials, err := h.materialService.GetMaterialsBySubject(ctx, clerkID, subjectID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, materials)
}

func (h *MaterialHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	materialID := mux.Vars(r)["id"]

	if err := h.materialService.DeleteMaterial(ctx, clerkID, materialID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Material deleted successfully"})
}
