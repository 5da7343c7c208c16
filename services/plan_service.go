package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estudyAPI/internal/notification"
	"estudyAPI/internal/streak"
	"estudyAPI/internal/types/material"
	"estudyAPI/internal/types/plan"
	"estudyAPI/middleware"
)

type PlanService struct {
	db       *pgxpool.Pool
	subjects *SubjectService
	ai       *AIService
	notifier *NotificationService
}

func NewPlanService(db *pgxpool.Pool, subjects *SubjectService, ai *AIService, notifier *NotificationService) *PlanService {
	return &PlanService{db: db, subjects: subjects, ai: ai, notifier: notifier}
}

// GeneratePlan builds a fresh plan for a subject: gathers ready materials,
// asks the model for a day-by-day schedule, then swaps it in as the active
// plan in a single transaction.
func (s *PlanService) GeneratePlan(ctx context.Context, clerkID string, req *plan.GeneratePlanRequest) (*plan.GeneratePlanResponse, error) {
	subj, err := s.subjects.GetSubject(ctx, clerkID, req.SubjectID)
	if err != nil {
		middleware.RecordPlanGeneration("rejected")
		return nil, err
	}

	today := streak.DateOnly(time.Now().UTC())
	daysAvailable := int(streak.DateOnly(subj.ExamDate).Sub(today).Hours() / 24)
	if daysAvailable <= 0 {
		middleware.RecordPlanGeneration("rejected")
		return nil, fmt.Errorf("exam date has already passed")
	}

	materials, err := s.readyMaterials(ctx, subj.ID)
	if err != nil {
		middleware.RecordPlanGeneration("error")
		return nil, err
	}

	aiPlan, err := s.ai.GeneratePlan(ctx, subj, materials, today, daysAvailable)
	if err != nil {
		middleware.RecordPlanGeneration("error")
		log.Printf("GeneratePlan: model call failed for subject %s: %v", subj.ID, err)
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		middleware.RecordPlanGeneration("error")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE study_plans SET is_active = false WHERE subject_id = $1 AND user_id = $2`,
		subj.ID, subj.UserID,
	)
	if err != nil {
		middleware.RecordPlanGeneration("error")
		return nil, fmt.Errorf("failed to deactivate previous plans: %w", err)
	}

	totalHours := 0.0
	for _, sess := range aiPlan.Sessions {
		if sess.DurationHours > 0 {
			totalHours += sess.DurationHours
		} else {
			totalHours += subj.HoursPerDay
		}
	}

	newPlan := &plan.StudyPlan{}
	err = tx.QueryRow(ctx, `
	INSERT INTO study_plans (id, subject_id, user_id, is_active, total_days, total_hours, generated_at)
	VALUES ($1, $2, $3, true, $4, $5, NOW())
	RETURNING id, subject_id, user_id, is_active, total_days, total_hours, generated_at
	`, uuid.New(), subj.ID, subj.UserID, len(aiPlan.Sessions), totalHours).Scan(
		&newPlan.ID,
		&newPlan.SubjectID,
		&newPlan.UserID,
		&newPlan.IsActive,
		&newPlan.TotalDays,
		&newPlan.TotalHours,
		&newPlan.GeneratedAt,
	)
	if err != nil {
		middleware.RecordPlanGeneration("error")
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	batch := &pgx.Batch{}
	for _, sess := range aiPlan.Sessions {
		scheduled, err := time.Parse("2006-01-02", sess.Date)
		if err != nil {
			log.Printf("GeneratePlan: skipping session with bad date %q", sess.Date)
			continue
		}

		duration := sess.DurationHours
		if duration <= 0 {
			duration = subj.HoursPerDay
		}

		topics := sess.Topics
		if topics == nil {
			topics = []string{}
		}

		batch.Queue(`
		INSERT INTO study_sessions (id, plan_id, subject_id, user_id, scheduled_date, duration_hours, title, description, topics, is_completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, NOW())
		`, uuid.New(), newPlan.ID, subj.ID, subj.UserID, scheduled, duration, sess.Title, sess.Description, topics)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			middleware.RecordPlanGeneration("error")
			return nil, fmt.Errorf("failed to save sessions: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		middleware.RecordPlanGeneration("error")
		return nil, fmt.Errorf("failed to close session batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		middleware.RecordPlanGeneration("error")
		return nil, fmt.Errorf("failed to commit plan: %w", err)
	}

	middleware.RecordPlanGeneration("success")

	if s.notifier != nil {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_, err := s.notifier.CreateNotification(bgCtx, &notification.CreateNotificationRequest{
				UserID:   subj.UserID,
				Type:     notification.TypePlanReady,
				Priority: notification.PriorityNormal,
				Title:    "Study plan ready",
				Body:     fmt.Sprintf("Your plan for %q covers %d days.", subj.Name, len(aiPlan.Sessions)),
				Data:     map[string]any{"subject_id": subj.ID.String(), "plan_id": newPlan.ID.String()},
			})
			if err != nil {
				log.Printf("GeneratePlan: notification failed for %s: %v", subj.UserID, err)
			}
		}()
	}

	return &plan.GeneratePlanResponse{
		Plan:          newPlan,
		SessionsCount: len(aiPlan.Sessions),
	}, nil
}

// GetActivePlan returns the subject's active plan with all of its sessions.
func (s *PlanService) GetActivePlan(ctx context.Context, clerkID string, subjectID string) (*plan.PlanWithSessions, error) {
	subj, err := s.subjects.GetSubject(ctx, clerkID, subjectID)
	if err != nil {
		return nil, err
	}

	p := &plan.StudyPlan{}
	err = s.db.QueryRow(ctx, `
	SELECT id, subject_id, user_id, is_active, total_days, total_hours, generated_at
	FROM study_plans
	WHERE subject_id = $1 AND user_id = $2 AND is_active = true
	ORDER BY generated_at DESC
	LIMIT 1
	`, subj.ID, subj.UserID).Scan(
		&p.ID,
		&p.SubjectID,
		&p.UserID,
		&p.IsActive,
		&p.TotalDays,
		&p.TotalHours,
		&p.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("active plan %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, plan_id, subject_id, user_id, scheduled_date, duration_hours, title, description, topics, is_completed, completed_at, notes, created_at
	FROM study_sessions
	WHERE plan_id = $1
	ORDER BY scheduled_date ASC
	`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plan sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}

	return &plan.PlanWithSessions{
		Plan:     p,
		Sessions: sessions,
	}, nil
}

func (s *PlanService) readyMaterials(ctx context.Context, subjectID uuid.UUID) ([]materialContext, error) {
	rows, err := s.db.Query(ctx, `
	SELECT title, type, COALESCE(processed_content, '')
	FROM materials
	WHERE subject_id = $1 AND status = $2
	ORDER BY created_at ASC
	`, subjectID, material.StatusReady)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch materials: %w", err)
	}
	defer rows.Close()

	var materials []materialContext
	for rows.Next() {
		var mc materialContext
		if err := rows.Scan(&mc.Title, &mc.Type, &mc.Content); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, mc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating material rows: %w", err)
	}

	return materials, nil
}
