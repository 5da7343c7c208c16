package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estudyAPI/internal/types/material"
	"estudyAPI/internal/types/question"
)

type QuestionService struct {
	db       *pgxpool.Pool
	subjects *SubjectService
	ai       *AIService
}

func NewQuestionService(db *pgxpool.Pool, subjects *SubjectService, ai *AIService) *QuestionService {
	return &QuestionService{db: db, subjects: subjects, ai: ai}
}

// GenerateQuestions asks the model for a batch of practice questions over the
// subject's processed materials and stores them for later quizzing.
func (s *QuestionService) GenerateQuestions(ctx context.Context, clerkID string, req *question.GenerateQuestionsRequest) ([]*question.Question, error) {
	subj, err := s.subjects.GetSubject(ctx, clerkID, req.SubjectID)
	if err != nil {
		return nil, err
	}

	var materialID *uuid.UUID
	if req.MaterialID != nil && *req.MaterialID != "" {
		parsed, err := uuid.Parse(*req.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("invalid material id")
		}
		materialID = &parsed
	}

	materialsSection, err := s.materialContext(ctx, subj.ID, materialID)
	if err != nil {
		return nil, err
	}

	set, err := s.ai.GenerateQuestions(ctx, subj.Name, materialsSection, req.Type, req.Difficulty, req.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO questions (id, subject_id, material_id, user_id, type, difficulty, question_text, options, correct_answer, explanation, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	RETURNING id, subject_id, material_id, user_id, type, difficulty, question_text, options, correct_answer, explanation, created_at
	`

	var saved []*question.Question
	for _, aiq := range set.Questions {
		explanation := aiq.Explanation
		q := &question.Question{}
		err = tx.QueryRow(ctx, query,
			uuid.New(), subj.ID, materialID, subj.UserID,
			req.Type, req.Difficulty, aiq.QuestionText, aiq.Options, aiq.CorrectAnswer, &explanation,
		).Scan(
			&q.ID,
			&q.SubjectID,
			&q.MaterialID,
			&q.UserID,
			&q.Type,
			&q.Difficulty,
			&q.QuestionText,
			&q.Options,
			&q.CorrectAnswer,
			&q.Explanation,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to save question: %w", err)
		}
		saved = append(saved, q)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit questions: %w", err)
	}

	return saved, nil
}

func (s *QuestionService) GetQuestionsBySubject(ctx context.Context, clerkID string, subjectID string) ([]*question.Question, error) {
	subj, err := s.subjects.GetSubject(ctx, clerkID, subjectID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, subject_id, material_id, user_id, type, difficulty, question_text, options, correct_answer, explanation, created_at
	FROM questions
	WHERE subject_id = $1 AND user_id = $2
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, subj.ID, subj.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}
	defer rows.Close()

	var questions []*question.Question
	for rows.Next() {
		q := &question.Question{}
		err := rows.Scan(
			&q.ID,
			&q.SubjectID,
			&q.MaterialID,
			&q.UserID,
			&q.Type,
			&q.Difficulty,
			&q.QuestionText,
			&q.Options,
			&q.CorrectAnswer,
			&q.Explanation,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}

	if questions == nil {
		questions = []*question.Question{}
	}

	return questions, nil
}

// RecordAttempt grades the answer against the stored question and logs the
// attempt. Grading is case and whitespace insensitive.
func (s *QuestionService) RecordAttempt(ctx context.Context, clerkID string, req *question.AttemptRequest) (*question.AttemptResponse, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	questionUUID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("invalid question id")
	}

	var correctAnswer string
	var explanation *string
	err = s.db.QueryRow(ctx,
		`SELECT correct_answer, explanation FROM questions WHERE id = $1 AND user_id = $2`,
		questionUUID, userID,
	).Scan(&correctAnswer, &explanation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("question %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	isCorrect := normalizeAnswer(req.Answer) == normalizeAnswer(correctAnswer)

	_, err = s.db.Exec(ctx, `
	INSERT INTO question_attempts (id, question_id, user_id, user_answer, is_correct, attempted_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	`, uuid.New(), questionUUID, userID, req.Answer, isCorrect)
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	return &question.AttemptResponse{
		IsCorrect:     isCorrect,
		CorrectAnswer: correctAnswer,
		Explanation:   explanation,
	}, nil
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *QuestionService) materialContext(ctx context.Context, subjectID uuid.UUID, materialID *uuid.UUID) (string, error) {
	query := `
	SELECT title, type, COALESCE(processed_content, '')
	FROM materials
	WHERE subject_id = $1 AND status = $2 AND ($3::uuid IS NULL OR id = $3)
	ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, subjectID, material.StatusReady, materialID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch materials: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var title, mType, content string
		if err := rows.Scan(&title, &mType, &content); err != nil {
			return "", fmt.Errorf("failed to scan material: %w", err)
		}
		fmt.Fprintf(&b, "\n\n### %s (%s)\n%s", title, mType, content)
	}

	if err = rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating material rows: %w", err)
	}

	return b.String(), nil
}
