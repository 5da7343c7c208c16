package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"estudyAPI/internal/notification"
	"estudyAPI/internal/types/material"
)

type MaterialService struct {
	db       *pgxpool.Pool
	ai       *AIService
	notifier *NotificationService
}

func NewMaterialService(db *pgxpool.Pool, ai *AIService, notifier *NotificationService) *MaterialService {
	return &MaterialService{db: db, ai: ai, notifier: notifier}
}

// CreateMaterial stores the material as pending and kicks off summarization
// in the background. The client polls status until ready/error.
func (s *MaterialService) CreateMaterial(ctx context.Context, clerkID string, req *material.CreateMaterialRequest) (*material.Material, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	subjectUUID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid subject id")
	}

	// Subject ownership gate before anything is written.
	var owns bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM subjects WHERE id = $1 AND user_id = $2)`,
		subjectUUID, userID,
	).Scan(&owns)
	if err != nil {
		return nil, fmt.Errorf("failed to check subject: %w", err)
	}
	if !owns {
		return nil, fmt.Errorf("subject %w", ErrNotFound)
	}

	query := `
	INSERT INTO materials (id, subject_id, user_id, type, title, source_url, raw_content, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	RETURNING id, subject_id, user_id, type, title, source_url, raw_content, processed_content, status, error_message, created_at, updated_at
	`

	mat := &material.Material{}
	err = s.db.QueryRow(ctx, query,
		uuid.New(), subjectUUID, userID, req.Type, req.Title, req.SourceURL, req.RawContent, material.StatusPending,
	).Scan(
		&mat.ID,
		&mat.SubjectID,
		&mat.UserID,
		&mat.Type,
		&mat.Title,
		&mat.SourceURL,
		&mat.RawContent,
		&mat.ProcessedContent,
		&mat.Status,
		&mat.ErrorMessage,
		&mat.CreatedAt,
		&mat.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	go s.processMaterial(mat.ID, userID)

	return mat, nil
}

// processMaterial runs off the request path: pending → processing →
// ready|error, with the summary produced by the model.
func (s *MaterialService) processMaterial(materialID uuid.UUID, userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var title string
	var rawContent *string
	err := s.db.QueryRow(ctx,
		`UPDATE materials SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING title, raw_content`,
		materialID, material.StatusProcessing,
	).Scan(&title, &rawContent)
	if err != nil {
		log.Printf("processMaterial: failed to mark %s processing: %v", materialID, err)
		return
	}

	if rawContent == nil || *rawContent == "" {
		s.failMaterial(ctx, materialID, "material has no content to process")
		return
	}

	summary, err := s.ai.SummarizeContent(ctx, title, *rawContent)
	if err != nil {
		log.Printf("processMaterial: summarization failed for %s: %v", materialID, err)
		s.failMaterial(ctx, materialID, "summarization failed")
		return
	}

	_, err = s.db.Exec(ctx,
		`UPDATE materials SET status = $2, processed_content = $3, error_message = NULL, updated_at = NOW() WHERE id = $1`,
		materialID, material.StatusReady, summary,
	)
	if err != nil {
		log.Printf("processMaterial: failed to store summary for %s: %v", materialID, err)
		return
	}

	if s.notifier != nil {
		_, err = s.notifier.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:   userID,
			Type:     notification.TypeMaterialReady,
			Priority: notification.PriorityNormal,
			Title:    "Material processed",
			Body:     fmt.Sprintf("%q is ready to be used in your study plan.", title),
			Data:     map[string]any{"material_id": materialID.String()},
		})
		if err != nil {
			log.Printf("processMaterial: notification failed for %s: %v", materialID, err)
		}
	}
}

func (s *MaterialService) failMaterial(ctx context.Context, materialID uuid.UUID, reason string) {
	_, err := s.db.Exec(ctx,
		`UPDATE materials SET status = $2, error_message = $3, updated_at = NOW() WHERE id = $1`,
		materialID, material.StatusError, reason,
	)
	if err != nil {
		log.Printf("failMaterial: failed to mark %s errored: %v", materialID, err)
	}
}

func (s *MaterialService) GetMaterialsBySubject(ctx context.Context, clerkID string, subjectID string) ([]*material.Material, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	subjectUUID, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid subject id")
	}

	query := `
	SELECT id, subject_id, user_id, type, title, source_url, raw_content, processed_content, status, error_message, created_at, updated_at
	FROM materials
	WHERE subject_id = $1 AND user_id = $2
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, subjectUUID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch materials: %w", err)
	}
	defer rows.Close()

	var materials []*material.Material
	for rows.Next() {
		mat := &material.Material{}
		err := rows.Scan(
			&mat.ID,
			&mat.SubjectID,
			&mat.UserID,
			&mat.Type,
			&mat.Title,
			&mat.SourceURL,
			&mat.RawContent,
			&mat.ProcessedContent,
			&mat.Status,
			&mat.ErrorMessage,
			&mat.CreatedAt,
			&mat.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, mat)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating material rows: %w", err)
	}

	if materials == nil {
		materials = []*material.Material{}
	}

	return materials, nil
}

func (s *MaterialService) DeleteMaterial(ctx context.Context, clerkID string, materialID string) error {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	materialUUID, err := uuid.Parse(materialID)
	if err != nil {
		return fmt.Errorf("invalid material id")
	}

	result, err := s.db.Exec(ctx, `DELETE FROM materials WHERE id = $1 AND user_id = $2`, materialUUID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("material %w", ErrNotFound)
	}

	return nil
}
