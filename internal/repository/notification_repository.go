package repository

import (
	"context"
	"database/sql"

	"github.com/ram-app/ram-api/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) (models.Notification, error)
}

type CreateNotificationParams struct {
	UserID  string
	Event   models.NotificationEvent
	Title   string
	Message string
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, user_id, event, title, message, read_at, created_at`

func (r *notificationRepository) Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error) {
	const query = `
		INSERT INTO notifications (user_id, event, title, message)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + notificationColumns

	row := r.db.QueryRowContext(ctx, query, params.UserID, params.Event, params.Title, params.Message)
	return scanNotification(row)
}

func (r *notificationRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	const query = `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var notif models.Notification
		var readAt sql.NullTime
		if err := rows.Scan(&notif.ID, &notif.UserID, &notif.Event, &notif.Title, &notif.Message, &readAt, &notif.CreatedAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			notif.ReadAt = &t
		}
		notifications = append(notifications, notif)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) (models.Notification, error) {
	const query = `
		UPDATE notifications
		SET read_at = COALESCE(read_at, now())
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns

	return scanNotification(r.db.QueryRowContext(ctx, query, notificationID, userID))
}

func scanNotification(row *sql.Row) (models.Notification, error) {
	var notif models.Notification
	var readAt sql.NullTime
	err := row.Scan(&notif.ID, &notif.UserID, &notif.Event, &notif.Title, &notif.Message, &readAt, &notif.CreatedAt)
	if err != nil {
		return models.Notification{}, err
	}
	if readAt.Valid {
		t := readAt.Time
		notif.ReadAt = &t
	}
	return notif, nil
}
