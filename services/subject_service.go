package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estudyAPI/internal/types/subject"
)

type SubjectService struct {
	db *pgxpool.Pool
}

func NewSubjectService(db *pgxpool.Pool) *SubjectService {
	return &SubjectService{db: db}
}

func (s *SubjectService) CreateSubject(ctx context.Context, clerkID string, req *subject.CreateSubjectRequest) (*subject.Subject, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	examDate, err := time.Parse("2006-01-02", req.ExamDate)
	if err != nil {
		return nil, fmt.Errorf("invalid exam_date, expected YYYY-MM-DD")
	}

	color := req.Color
	if color == "" {
		color = "#6366f1"
	}

	query := `
	INSERT INTO subjects (id, user_id, name, description, color, exam_date, hours_per_day, is_archived, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, false, NOW(), NOW())
	RETURNING id, user_id, name, description, color, exam_date, hours_per_day, is_archived, created_at, updated_at
	`

	subj := &subject.Subject{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, req.Name, req.Description, color, examDate, req.HoursPerDay).Scan(
		&subj.ID,
		&subj.UserID,
		&subj.Name,
		&subj.Description,
		&subj.Color,
		&subj.ExamDate,
		&subj.HoursPerDay,
		&subj.IsArchived,
		&subj.CreatedAt,
		&subj.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}

	return subj, nil
}

func (s *SubjectService) GetSubjects(ctx context.Context, clerkID string, includeArchived bool) ([]*subject.Subject, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, name, description, color, exam_date, hours_per_day, is_archived, created_at, updated_at
	FROM subjects
	WHERE user_id = $1 AND (is_archived = false OR $2)
	ORDER BY exam_date ASC
	`

	rows, err := s.db.Query(ctx, query, userID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*subject.Subject
	for rows.Next() {
		subj := &subject.Subject{}
		err := rows.Scan(
			&subj.ID,
			&subj.UserID,
			&subj.Name,
			&subj.Description,
			&subj.Color,
			&subj.ExamDate,
			&subj.HoursPerDay,
			&subj.IsArchived,
			&subj.CreatedAt,
			&subj.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, subj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subject rows: %w", err)
	}

	if subjects == nil {
		subjects = []*subject.Subject{}
	}

	return subjects, nil
}

func (s *SubjectService) GetSubject(ctx context.Context, clerkID string, subjectID string) (*subject.Subject, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	subjectUUID, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid subject id")
	}

	query := `
	SELECT id, user_id, name, description, color, exam_date, hours_per_day, is_archived, created_at, updated_at
	FROM subjects
	WHERE id = $1 AND user_id = $2
	`

	subj := &subject.Subject{}
	err = s.db.QueryRow(ctx, query, subjectUUID, userID).Scan(
		&subj.ID,
		&subj.UserID,
		&subj.Name,
		&subj.Description,
		&subj.Color,
		&subj.ExamDate,
		&subj.HoursPerDay,
		&subj.IsArchived,
		&subj.CreatedAt,
		&subj.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subject %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	return subj, nil
}

func (s *SubjectService) UpdateSubject(ctx context.Context, clerkID string, subjectID string, req *subject.UpdateSubjectRequest) (*subject.Subject, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	subjectUUID, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid subject id")
	}

	var examDate *time.Time
	if req.ExamDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ExamDate)
		if err != nil {
			return nil, fmt.Errorf("invalid exam_date, expected YYYY-MM-DD")
		}
		examDate = &parsed
	}

	query := `
	UPDATE subjects
	SET
		name = COALESCE(NULLIF($3, ''), name),
		description = COALESCE($4, description),
		color = COALESCE(NULLIF($5, ''), color),
		exam_date = COALESCE($6, exam_date),
		hours_per_day = COALESCE($7, hours_per_day),
		is_archived = COALESCE($8, is_archived),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, name, description, color, exam_date, hours_per_day, is_archived, created_at, updated_at
	`

	subj := &subject.Subject{}
	err = s.db.QueryRow(ctx, query, subjectUUID, userID, req.Name, req.Description, req.Color, examDate, req.HoursPerDay, req.IsArchived).Scan(
		&subj.ID,
		&subj.UserID,
		&subj.Name,
		&subj.Description,
		&subj.Color,
		&subj.ExamDate,
		&subj.HoursPerDay,
		&subj.IsArchived,
		&subj.CreatedAt,
		&subj.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subject %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update subject: %w", err)
	}

	return subj, nil
}

func (s *SubjectService) DeleteSubject(ctx context.Context, clerkID string, subjectID string) error {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	subjectUUID, err := uuid.Parse(subjectID)
	if err != nil {
		return fmt.Errorf("invalid subject id")
	}

	result, err := s.db.Exec(ctx, `DELETE FROM subjects WHERE id = $1 AND user_id = $2`, subjectUUID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("subject %w", ErrNotFound)
	}

	return nil
}
