package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт запись уведомления
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, related_swap_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at
	`

	err := r.QueryRow(
		ctx, query,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.RelatedSwapID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)

	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

// GetByUserID получает последние уведомления пользователя (новые сверху)
func (r *NotificationRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, is_read, related_swap_id, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get notifications by user: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// GetUnreadByUserID получает все непрочитанные уведомления пользователя (новые сверху)
func (r *NotificationRepository) GetUnreadByUserID(ctx context.Context, userID int64) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, is_read, related_swap_id, created_at
		FROM notifications
		WHERE user_id = $1 AND is_read = false
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get unread notifications: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// MarkRead помечает уведомление прочитанным.
// Уведомление должно принадлежать пользователю.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND user_id = $2
	`

	affected, err := r.ExecAffected(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	if affected == 0 {
		return model.ErrNotFound
	}

	return nil
}

// MarkAllRead помечает все уведомления пользователя прочитанными
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE user_id = $1 AND is_read = false
	`

	_, err := r.ExecAffected(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}

	return nil
}

func scanNotifications(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*model.Notification, error) {
	var notifications []*model.Notification
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.IsRead,
			&n.RelatedSwapID,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}

	return notifications, nil
}
