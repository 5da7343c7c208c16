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
	"estudyAPI/internal/types/session"
	"estudyAPI/middleware"
)

// streakWriteRetries bounds the read-compute-write loop. A conflict means a
// concurrent completion for the same user landed first, so after the budget
// is spent the stored record is simply re-read and reported.
const streakWriteRetries = 3

type SessionService struct {
	db       *pgxpool.Pool
	notifier *NotificationService
}

func NewSessionService(db *pgxpool.Pool, notifier *NotificationService) *SessionService {
	return &SessionService{db: db, notifier: notifier}
}

func (s *SessionService) GetTodaySessions(ctx context.Context, clerkID string) ([]*session.StudySession, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, plan_id, subject_id, user_id, scheduled_date, duration_hours, title, description, topics, is_completed, completed_at, notes, created_at
	FROM study_sessions
	WHERE user_id = $1 AND scheduled_date = CURRENT_DATE
	ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// CompleteSession toggles a session's completion flag. Only the false→true
// transition drives the streak engine; un-completing never reverses a streak
// already recorded for the day.
func (s *SessionService) CompleteSession(ctx context.Context, clerkID string, sessionID string, req *session.CompleteSessionRequest) (*session.CompleteSessionResponse, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	sessionUUID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id")
	}

	// Match the product default: an absent flag means "complete".
	completed := req.Completed == nil || *req.Completed

	if completed {
		query := `
		UPDATE study_sessions
		SET is_completed = true, completed_at = NOW(), notes = COALESCE($3, notes)
		WHERE id = $1 AND user_id = $2
		`
		tag, err := s.db.Exec(ctx, query, sessionUUID, userID, req.Notes)
		if err != nil {
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("session %w", ErrNotFound)
		}
	} else {
		query := `
		UPDATE study_sessions
		SET is_completed = false, completed_at = NULL, notes = COALESCE($3, notes)
		WHERE id = $1 AND user_id = $2
		`
		tag, err := s.db.Exec(ctx, query, sessionUUID, userID, req.Notes)
		if err != nil {
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("session %w", ErrNotFound)
		}
		return &session.CompleteSessionResponse{Success: true}, nil
	}

	// The session write is already committed; the streak update is
	// best-effort on top of it. A later completion recomputes from
	// whatever last_study_date is on record, so a miss here cannot
	// corrupt anything.
	res, err := s.UpdateStreak(ctx, userID)
	if err != nil {
		log.Printf("CompleteSession: streak update failed for user %s: %v", userID, err)
		middleware.RecordStreakUpdate("failed")
		return &session.CompleteSessionResponse{Success: true}, nil
	}

	return &session.CompleteSessionResponse{Success: true, Streak: res}, nil
}

// UpdateStreak runs the streak engine over the stored record for today and
// persists the outcome with a conditional write keyed on last_study_date.
// Two concurrent same-day completions both read the same snapshot, but only
// one conditional write lands; the loser re-reads and lands in the engine's
// same-day no-op branch.
func (s *SessionService) UpdateStreak(ctx context.Context, userID uuid.UUID) (*streak.Result, error) {
	today := streak.DateOnly(time.Now().UTC())

	for attempt := 0; attempt < streakWriteRetries; attempt++ {
		prev, err := s.readStreak(ctx, userID)
		if err != nil {
			return nil, err
		}

		rec := prev.Normalized(today)
		res := streak.Advance(rec, today)

		if !res.Updated {
			middleware.RecordStreakUpdate("noop")
			return &res, nil
		}

		query := `
		UPDATE streaks
		SET current_streak = $2, longest_streak = $3, last_study_date = $4, freeze_count = $5, updated_at = NOW()
		WHERE user_id = $1 AND last_study_date IS NOT DISTINCT FROM $6
		`

		tag, err := s.db.Exec(ctx, query,
			userID,
			res.Record.CurrentStreak,
			res.Record.LongestStreak,
			res.Record.LastStudyDate,
			res.Record.FreezeCount,
			prev.LastStudyDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to write streak: %w", err)
		}

		if tag.RowsAffected() > 0 {
			middleware.RecordStreakUpdate("updated")
			if res.Milestone != nil {
				s.notifyMilestone(userID, *res.Milestone, res.Streak)
			}
			return &res, nil
		}

		// Someone else moved last_study_date between our read and write.
		middleware.RecordStreakUpdate("conflict")
		log.Printf("UpdateStreak: conflict for user %s, attempt %d", userID, attempt+1)
	}

	// Retries exhausted: today's increment was won by another request.
	prev, err := s.readStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := streak.Advance(prev.Normalized(today), today)
	if res.Updated {
		return nil, fmt.Errorf("streak write contention for user %s", userID)
	}
	return &res, nil
}

// GetStreak returns the stored record for the dashboard card, creating the
// default row if the profile predates streak tracking.
func (s *SessionService) GetStreak(ctx context.Context, clerkID string) (*streak.Record, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rec, err := s.readStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	norm := rec.Normalized(streak.DateOnly(time.Now().UTC()))
	return &norm, nil
}

func (s *SessionService) readStreak(ctx context.Context, userID uuid.UUID) (streak.Record, error) {
	query := `
	SELECT id, user_id, current_streak, longest_streak, last_study_date, freeze_count, created_at, updated_at
	FROM streaks
	WHERE user_id = $1
	`

	var rec streak.Record
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.CurrentStreak,
		&rec.LongestStreak,
		&rec.LastStudyDate,
		&rec.FreezeCount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.createDefaultStreak(ctx, userID)
		}
		return streak.Record{}, fmt.Errorf("failed to read streak: %w", err)
	}

	return rec, nil
}

func (s *SessionService) createDefaultStreak(ctx context.Context, userID uuid.UUID) (streak.Record, error) {
	query := `
	INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_study_date, freeze_count, created_at, updated_at)
	VALUES ($1, $2, 0, 0, NULL, $3, NOW(), NOW())
	ON CONFLICT (user_id) DO NOTHING
	RETURNING id, user_id, current_streak, longest_streak, last_study_date, freeze_count, created_at, updated_at
	`

	var rec streak.Record
	err := s.db.QueryRow(ctx, query, uuid.New(), userID, streak.DefaultFreezeCount).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.CurrentStreak,
		&rec.LongestStreak,
		&rec.LastStudyDate,
		&rec.FreezeCount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the insert race; the row exists now.
			return s.readStreak(ctx, userID)
		}
		return streak.Record{}, fmt.Errorf("failed to create streak record: %w", err)
	}

	return rec, nil
}

func (s *SessionService) notifyMilestone(userID uuid.UUID, milestone int, current int) {
	if s.notifier == nil {
		return
	}

	// Fire and forget off the request path.
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req := &notification.CreateNotificationRequest{
			UserID:   userID,
			Type:     notification.TypeStreakMilestone,
			Priority: notification.PriorityHigh,
			Title:    fmt.Sprintf("%d day streak!", milestone),
			Body:     fmt.Sprintf("You reached a %d day study streak. Keep it going!", milestone),
			Data: map[string]any{
				"milestone": milestone,
				"streak":    current,
			},
		}

		if _, err := s.notifier.CreateNotification(bgCtx, req); err != nil {
			log.Printf("notifyMilestone: failed for user %s: %v", userID, err)
		}
	}()
}

func scanSessions(rows pgx.Rows) ([]*session.StudySession, error) {
	var sessions []*session.StudySession
	for rows.Next() {
		sess := &session.StudySession{}
		err := rows.Scan(
			&sess.ID,
			&sess.PlanID,
			&sess.SubjectID,
			&sess.UserID,
			&sess.ScheduledDate,
			&sess.DurationHours,
			&sess.Title,
			&sess.Description,
			&sess.Topics,
			&sess.IsCompleted,
			&sess.CompletedAt,
			&sess.Notes,
			&sess.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	if sessions == nil {
		sessions = []*session.StudySession{}
	}

	return sessions, nil
}
