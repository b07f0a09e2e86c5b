package ws

import "github.com/Freeeeeet/slotswapper/internal/model"

// Типы сообщений протокола канала
const (
	MessageTypeAuthenticate  = "authenticate"
	MessageTypePing          = "ping"
	MessageTypeAuthenticated = "authenticated"
	MessageTypeError         = "error"
	MessageTypeUnread        = "unread_notifications"
	MessageTypeNotification  = "notification"
	MessageTypePong          = "pong"
)

// InboundMessage сообщение клиента
type InboundMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// AuthenticatedMessage подтверждение успешной аутентификации
type AuthenticatedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// ErrorMessage сообщение об ошибке протокола
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// UnreadMessage пакет непрочитанных уведомлений при подключении
type UnreadMessage struct {
	Type string                `json:"type"`
	Data []*model.Notification `json:"data"`
}

// NotificationMessage push одного уведомления
type NotificationMessage struct {
	Type string              `json:"type"`
	Data *model.Notification `json:"data"`
}

// PongMessage ответ на ping с серверным временем в миллисекундах
type PongMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// NewNotificationMessage оборачивает уведомление в push-сообщение
func NewNotificationMessage(n *model.Notification) NotificationMessage {
	return NotificationMessage{Type: MessageTypeNotification, Data: n}
}
