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

	"estudyAPI/internal/calendar"
	"estudyAPI/internal/stats"
	"estudyAPI/internal/streak"
	"estudyAPI/internal/types/user"
	"estudyAPI/utils"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// CreateUser inserts the user row and seeds the default streak record in one
// transaction. Every profile owns exactly one streak row from birth.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		Timezone:  "UTC",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, timezone, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified, timezone, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.Timezone,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.Timezone,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	streakQuery := `
	INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_study_date, freeze_count, created_at, updated_at)
	VALUES ($1, $2, 0, 0, NULL, $3, NOW(), NOW())
	`

	_, err = tx.Exec(ctx, streakQuery, uuid.New(), u.ID, streak.DefaultFreezeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create streak record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit user creation: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, email_verified, timezone, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.Timezone,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET
		username = COALESCE(NULLIF($2, ''), username),
		first_name = COALESCE(NULLIF($3, ''), first_name),
		last_name = COALESCE(NULLIF($4, ''), last_name),
		image_url = COALESCE(NULLIF($5, ''), image_url),
		timezone = COALESCE(NULLIF($6, ''), timezone),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified, timezone, created_at, updated_at
	`

	u := &user.User{}
	err := s.db.QueryRow(
		ctx,
		query,
		clerkID,
		req.Username,
		req.FirstName,
		req.LastName,
		req.ImageURL,
		req.Timezone,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.Timezone,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	query := `DELETE FROM users WHERE clerk_id = $1`

	result, err := s.db.Exec(ctx, query, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}

	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	query := `
	UPDATE users
	SET email_verified = $2, updated_at = NOW()
	WHERE clerk_id = $1
	`

	_, err := s.db.Exec(ctx, query, clerkID, verified)
	return err
}

func (s *UserService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		EXISTS(
			SELECT 1 FROM study_sessions
			WHERE user_id = $1 AND is_completed = true AND completed_at::date = CURRENT_DATE
		) AS today_status,
		(SELECT COUNT(DISTINCT completed_at::date) FROM study_sessions
			WHERE user_id = $1 AND is_completed = true
			AND completed_at >= DATE_TRUNC('week', CURRENT_DATE)) AS days_this_week,
		(SELECT COUNT(DISTINCT completed_at::date) FROM study_sessions
			WHERE user_id = $1 AND is_completed = true
			AND completed_at >= DATE_TRUNC('month', CURRENT_DATE)) AS days_this_month,
		(SELECT COUNT(DISTINCT completed_at::date) FROM study_sessions
			WHERE user_id = $1 AND is_completed = true) AS total_days_studied,
		(SELECT COUNT(*) FROM study_sessions
			WHERE user_id = $1 AND is_completed = true) AS sessions_completed,
		(SELECT COUNT(*) FROM study_sessions WHERE user_id = $1) AS sessions_total,
		(SELECT COALESCE(SUM(duration_hours), 0) FROM study_sessions
			WHERE user_id = $1 AND is_completed = true) AS hours_completed,
		COALESCE(s.current_streak, 0) AS current_streak,
		COALESCE(s.longest_streak, 0) AS longest_streak,
		COALESCE(s.freeze_count, 0) AS freeze_count,
		(SELECT COUNT(*) FROM subjects
			WHERE user_id = $1 AND is_archived = false) AS subjects_active
	FROM streaks s
	WHERE s.user_id = $1
	`

	st := &stats.UserStats{}
	err = s.db.QueryRow(ctx, query, userID).Scan(
		&st.TodayStatus,
		&st.DaysThisWeek,
		&st.DaysThisMonth,
		&st.TotalDaysStudied,
		&st.SessionsCompleted,
		&st.SessionsTotal,
		&st.HoursCompleted,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.FreezeCount,
		&st.SubjectsActive,
	)
	if err != nil {
		log.Printf("GetUserStats: Failed to fetch stats for %s: %v", clerkID, err)
		return nil, fmt.Errorf("failed to fetch user stats: %w", err)
	}

	st.DisciplineScore = utils.CalculateDisciplineScore(st.CurrentStreak, st.TotalDaysStudied, st.SessionsCompleted)

	return st, nil
}

// GetDaysStudied counts distinct study days inside the given period
// ("week", "month", "year" or "all_time").
func (s *UserService) GetDaysStudied(ctx context.Context, clerkID string, period string) (*stats.DaysStat, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var since string
	var totalDays int
	now := time.Now().UTC()
	switch period {
	case "week":
		since = "DATE_TRUNC('week', CURRENT_DATE)"
		totalDays = 7
	case "month":
		since = "DATE_TRUNC('month', CURRENT_DATE)"
		totalDays = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
	case "year":
		since = "DATE_TRUNC('year', CURRENT_DATE)"
		totalDays = daysInYear(now.Year())
	case "all_time":
		since = "'epoch'::timestamp"
		totalDays = 0
	default:
		return nil, fmt.Errorf("invalid period: %s", period)
	}

	query := fmt.Sprintf(`
	SELECT COUNT(DISTINCT completed_at::date)
	FROM study_sessions
	WHERE user_id = $1 AND is_completed = true AND completed_at >= %s
	`, since)

	st := &stats.DaysStat{Period: period, TotalDays: totalDays}
	if err := s.db.QueryRow(ctx, query, userID).Scan(&st.DaysStudied); err != nil {
		return nil, fmt.Errorf("failed to count study days: %w", err)
	}

	return st, nil
}

// daysInYear is 366 on leap years.
func daysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

func (s *UserService) GetCalendar(ctx context.Context, clerkID string, year int, month int) (*calendar.CalendarResponse, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT DISTINCT completed_at::date AS date
	FROM study_sessions
	WHERE user_id = $1
		AND is_completed = true
		AND EXTRACT(YEAR FROM completed_at) = $2
		AND EXTRACT(MONTH FROM completed_at) = $3
	`

	rows, err := s.db.Query(ctx, query, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	defer rows.Close()

	studied := make(map[int]bool)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan calendar day: %w", err)
		}
		studied[d.Day()] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calendar rows: %w", err)
	}

	now := time.Now().UTC()
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	days := make([]*calendar.CalendarDay, 0, daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		date := time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
		days = append(days, &calendar.CalendarDay{
			Date:         date,
			StudiedToday: studied[d],
			IsToday:      date.Year() == now.Year() && date.YearDay() == now.YearDay(),
		})
	}

	return &calendar.CalendarResponse{
		Year:  year,
		Month: month,
		Days:  days,
	}, nil
}
