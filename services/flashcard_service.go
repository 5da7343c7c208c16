package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"estudyAPI/internal/types/flashcard"
	"estudyAPI/internal/types/material"
)

const defaultFlashcardCount = 10

type FlashcardService struct {
	db       *pgxpool.Pool
	subjects *SubjectService
	ai       *AIService
}

func NewFlashcardService(db *pgxpool.Pool, subjects *SubjectService, ai *AIService) *FlashcardService {
	return &FlashcardService{db: db, subjects: subjects, ai: ai}
}

// GenerateFlashcards builds review cards over the subject's processed
// materials. Unlike questions, cards are not persisted; every call produces
// a fresh set for the client to review.
func (s *FlashcardService) GenerateFlashcards(ctx context.Context, clerkID string, req *flashcard.GenerateFlashcardsRequest) (*flashcard.GenerateFlashcardsResponse, error) {
	subj, err := s.subjects.GetSubject(ctx, clerkID, req.SubjectID)
	if err != nil {
		return nil, err
	}

	count := req.Count
	if count <= 0 {
		count = defaultFlashcardCount
	}

	query := `
	SELECT title, COALESCE(processed_content, '')
	FROM materials
	WHERE subject_id = $1 AND status = $2
	ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, subj.ID, material.StatusReady)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch materials: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var title, content string
		if err := rows.Scan(&title, &content); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		fmt.Fprintf(&b, "### %s\n%s\n\n", title, content)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating material rows: %w", err)
	}

	set, err := s.ai.GenerateFlashcards(ctx, subj.Name, b.String(), count)
	if err != nil {
		return nil, fmt.Errorf("failed to generate flashcards: %w", err)
	}

	return &flashcard.GenerateFlashcardsResponse{Flashcards: set.Flashcards}, nil
}
