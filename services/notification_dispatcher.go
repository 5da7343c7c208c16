package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"estudyAPI/internal/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher pushes stored notifications out to devices from a
// small worker pool, so delivery never blocks the request path.
type NotificationDispatcher struct {
	service      *NotificationService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *notification.Notification
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	d := &NotificationDispatcher{
		service:  service,
		workers:  5,
		jobQueue: make(chan *notification.Notification, 100),
		stopChan: make(chan struct{}),
	}

	d.startWorkers()

	go d.cleanupLoop()
	go d.reminderLoop()

	return d
}

// SetPushProvider injects the real FCM provider from main. Until it is set,
// dispatch only stores notifications for in-app display.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case notif := <-d.jobQueue:
			d.processJob(notif)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(notif *notification.Notification) {
	if d.pushProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := d.service.getDeviceTokens(ctx, notif.UserID)
	if err != nil {
		log.Printf("dispatcher: failed to load tokens for user %s: %v", notif.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	if err := d.pushProvider.SendPush(ctx, tokens, notif.Title, notif.Body, notif.Data); err != nil {
		log.Printf("dispatcher: push failed for user %s: %v", notif.UserID, err)
	}
}

// Dispatch queues a notification for push delivery. Drops the push rather
// than blocking callers when the queue is saturated; the in-app copy is
// already persisted.
func (d *NotificationDispatcher) Dispatch(notif *notification.Notification) {
	select {
	case d.jobQueue <- notif:
	default:
		log.Printf("dispatcher: queue full, dropping push for notification %s", notif.ID)
	}
}

func (d *NotificationDispatcher) cleanupLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cleanupExpired()
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) cleanupExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := d.service.db.Exec(ctx, `DELETE FROM notifications WHERE expires_at < NOW()`)
	if err != nil {
		log.Printf("dispatcher: failed to cleanup expired notifications: %v", err)
		return
	}

	if n := result.RowsAffected(); n > 0 {
		log.Printf("dispatcher: cleaned up %d expired notifications", n)
	}
}

// reminderLoop periodically sweeps for streaks about to break and exams
// coming up, and raises reminder notifications. The NOT EXISTS guards make
// each sweep idempotent per day.
func (d *NotificationDispatcher) reminderLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.sweepStreakRisk()
			d.sweepExamSoon()
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) sweepStreakRisk() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := d.service.db.Query(ctx, `
	SELECT s.user_id, s.current_streak
	FROM streaks s
	WHERE s.current_streak > 0
	  AND s.last_study_date = CURRENT_DATE - 1
	  AND NOT EXISTS (
		SELECT 1 FROM notifications n
		WHERE n.user_id = s.user_id AND n.type = 'streak_risk' AND n.created_at::date = CURRENT_DATE
	  )
	LIMIT 500
	`)
	if err != nil {
		log.Printf("dispatcher: streak risk sweep failed: %v", err)
		return
	}
	defer rows.Close()

	type atRisk struct {
		userID  uuid.UUID
		current int
	}
	var users []atRisk
	for rows.Next() {
		var u atRisk
		if err := rows.Scan(&u.userID, &u.current); err != nil {
			log.Printf("dispatcher: failed to scan streak risk row: %v", err)
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		log.Printf("dispatcher: streak risk sweep failed: %v", err)
		return
	}

	for _, u := range users {
		_, err := d.service.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:   u.userID,
			Type:     notification.TypeStreakRisk,
			Priority: notification.PriorityHigh,
			Title:    "Your streak is at risk",
			Body:     fmt.Sprintf("Complete a session today to keep your %d day streak alive.", u.current),
			Data:     map[string]any{"streak": u.current},
		})
		if err != nil {
			log.Printf("dispatcher: streak risk notification failed for %s: %v", u.userID, err)
		}
	}
}

func (d *NotificationDispatcher) sweepExamSoon() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := d.service.db.Query(ctx, `
	SELECT s.id, s.user_id, s.name, s.exam_date::date - CURRENT_DATE AS days_left
	FROM subjects s
	WHERE s.is_archived = false
	  AND s.exam_date::date - CURRENT_DATE IN (1, 3, 7)
	  AND NOT EXISTS (
		SELECT 1 FROM notifications n
		WHERE n.user_id = s.user_id AND n.type = 'exam_soon'
		  AND n.data->>'subject_id' = s.id::text AND n.created_at::date = CURRENT_DATE
	  )
	LIMIT 500
	`)
	if err != nil {
		log.Printf("dispatcher: exam sweep failed: %v", err)
		return
	}
	defer rows.Close()

	type upcoming struct {
		subjectID uuid.UUID
		userID    uuid.UUID
		name      string
		daysLeft  int
	}
	var exams []upcoming
	for rows.Next() {
		var e upcoming
		if err := rows.Scan(&e.subjectID, &e.userID, &e.name, &e.daysLeft); err != nil {
			log.Printf("dispatcher: failed to scan exam row: %v", err)
			return
		}
		exams = append(exams, e)
	}
	if err := rows.Err(); err != nil {
		log.Printf("dispatcher: exam sweep failed: %v", err)
		return
	}

	for _, e := range exams {
		_, err := d.service.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:   e.userID,
			Type:     notification.TypeExamSoon,
			Priority: notification.PriorityNormal,
			Title:    fmt.Sprintf("%s exam in %d day(s)", e.name, e.daysLeft),
			Body:     "Check your study plan and keep on schedule.",
			Data:     map[string]any{"subject_id": e.subjectID.String(), "days_left": e.daysLeft},
		})
		if err != nil {
			log.Printf("dispatcher: exam notification failed for %s: %v", e.userID, err)
		}
	}
}

func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}
