package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/ws"
	"go.uber.org/zap"
)

// Лимит выборки уведомлений по умолчанию
const defaultNotificationLimit = 50

// NotificationStore контракт хранилища уведомлений
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.Notification, error)
	GetUnreadByUserID(ctx context.Context, userID int64) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

// Pusher доставляет payload во все открытые каналы пользователя
type Pusher interface {
	Broadcast(userID int64, payload any) bool
}

type NotificationService struct {
	store  NotificationStore
	pusher Pusher
	logger *zap.Logger
}

func NewNotificationService(store NotificationStore, pusher Pusher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		pusher: pusher,
		logger: logger,
	}
}

// Record создаёт запись уведомления без отправки. Если в контексте
// открыта транзакция, запись попадает в неё.
func (s *NotificationService) Record(
	ctx context.Context,
	userID int64,
	typ model.NotificationType,
	title, message string,
	relatedSwapID *int64,
) (*model.Notification, error) {
	n := &model.Notification{
		UserID:        userID,
		Type:          typ,
		Title:         title,
		Message:       message,
		RelatedSwapID: relatedSwapID,
	}

	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("record notification: %w", err)
	}

	return n, nil
}

// Push отправляет уведомление в открытые каналы получателя.
// Отсутствие открытых каналов не ошибка: запись уже сохранена.
func (s *NotificationService) Push(n *model.Notification) bool {
	delivered := s.pusher.Broadcast(n.UserID, ws.NewNotificationMessage(n))

	if delivered {
		s.logger.Info("Notification pushed",
			zap.Int64("notification_id", n.ID),
			zap.Int64("user_id", n.UserID),
			zap.String("type", string(n.Type)),
		)
	} else {
		s.logger.Debug("No open channels, notification stored only",
			zap.Int64("notification_id", n.ID),
			zap.Int64("user_id", n.UserID),
		)
	}

	return delivered
}

// Notify сохраняет уведомление и отправляет его по открытым каналам.
// Возвращает доставлено ли хотя бы в один канал.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID int64,
	typ model.NotificationType,
	title, message string,
	relatedSwapID *int64,
) (*model.Notification, bool, error) {
	n, err := s.Record(ctx, userID, typ, title, message, relatedSwapID)
	if err != nil {
		return nil, false, err
	}

	return n, s.Push(n), nil
}

// List возвращает последние уведомления пользователя (новые сверху)
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return s.store.GetByUserID(ctx, userID, limit)
}

// UnreadNotifications возвращает все непрочитанные уведомления пользователя
func (s *NotificationService) UnreadNotifications(ctx context.Context, userID int64) ([]*model.Notification, error) {
	return s.store.GetUnreadByUserID(ctx, userID)
}

// MarkRead помечает уведомление прочитанным.
// Возвращает model.ErrNotFound если оно не принадлежит пользователю.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	return s.store.MarkRead(ctx, id, userID)
}

// MarkAllRead помечает все уведомления пользователя прочитанными. Идемпотентен.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.store.MarkAllRead(ctx, userID)
}
