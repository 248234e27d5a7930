// internal/notifications/repository.go

package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// Notifications
	CreateNotification(ctx context.Context, notification *Notification) error
	GetUserNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error)
	GetUserNotificationCount(ctx context.Context, userID int64, unreadOnly bool) (int, error)
	MarkAsRead(ctx context.Context, notificationID int64, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	DeleteNotification(ctx context.Context, notificationID int64, userID int64) error
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)

	// Push tokens
	SavePushToken(ctx context.Context, token *PushToken) error
	GetUserPushTokens(ctx context.Context, userID int64) ([]*PushToken, error)
	DeletePushToken(ctx context.Context, userID int64, token string) error
	DeactivatePushTokens(ctx context.Context, tokens []string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreateNotification creates a new notification
func (r *postgresRepository) CreateNotification(ctx context.Context, notification *Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, body, data, is_read)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	if notification.Data == nil {
		notification.Data = NotificationData{}
	}

	err := r.db.QueryRowContext(ctx, query,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Body,
		notification.Data,
		notification.IsRead,
	).Scan(&notification.ID, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// GetUserNotifications retrieves notifications for a user, newest first
func (r *postgresRepository) GetUserNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT id, user_id, type, title, body, data, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1`

	if unreadOnly {
		query += " AND is_read = false"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3"

	notifications := []*Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// GetUserNotificationCount gets notification count for a user
func (r *postgresRepository) GetUserNotificationCount(ctx context.Context, userID int64, unreadOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += " AND is_read = false"
	}

	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

// MarkAsRead marks a notification as read
func (r *postgresRepository) MarkAsRead(ctx context.Context, notificationID int64, userID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2`

	return r.execOne(ctx, query, notificationID, userID)
}

// MarkAllAsRead marks all notifications as read for a user
func (r *postgresRepository) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE user_id = $1 AND is_read = false`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteNotification deletes a notification
func (r *postgresRepository) DeleteNotification(ctx context.Context, notificationID int64, userID int64) error {
	query := `DELETE FROM notifications WHERE id = $1 AND user_id = $2`
	return r.execOne(ctx, query, notificationID, userID)
}

// DeleteReadBefore deletes read notifications created before the cutoff
func (r *postgresRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE is_read = true AND created_at < $1`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SavePushToken saves or updates a push token
func (r *postgresRepository) SavePushToken(ctx context.Context, token *PushToken) error {
	query := `
		INSERT INTO push_tokens (user_id, platform, token, device_id, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (user_id, device_id)
		DO UPDATE SET token = EXCLUDED.token, platform = EXCLUDED.platform, is_active = true, updated_at = NOW()
		RETURNING id, is_active, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		token.UserID, token.Platform, token.Token, token.DeviceID,
	).Scan(&token.ID, &token.IsActive, &token.CreatedAt, &token.UpdatedAt)
}

// GetUserPushTokens returns the active tokens of a user
func (r *postgresRepository) GetUserPushTokens(ctx context.Context, userID int64) ([]*PushToken, error) {
	query := `
		SELECT id, user_id, platform, token, device_id, is_active, created_at, updated_at
		FROM push_tokens
		WHERE user_id = $1 AND is_active = true
		ORDER BY updated_at DESC`

	var tokens []*PushToken
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("list push tokens: %w", err)
	}
	return tokens, nil
}

// DeletePushToken removes a token registered by the user
func (r *postgresRepository) DeletePushToken(ctx context.Context, userID int64, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM push_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	return err
}

// DeactivatePushTokens marks tokens FCM reported as unregistered
func (r *postgresRepository) DeactivatePushTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE push_tokens SET is_active = false, updated_at = NOW() WHERE token IN (?)`, tokens)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}

func (r *postgresRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
