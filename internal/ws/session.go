package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"go.uber.org/zap"
)

// SessionState состояние сессии канала
type SessionState string

const (
	SessionStateUnauthenticated SessionState = "unauthenticated"
	SessionStateAuthenticated   SessionState = "authenticated"
	SessionStateClosed          SessionState = "closed"
)

// TokenVerifier проверяет токен и возвращает ID пользователя
type TokenVerifier interface {
	VerifyToken(token string) (int64, error)
}

// BacklogSource поставляет непрочитанные уведомления для отправки при подключении
type BacklogSource interface {
	UnreadNotifications(ctx context.Context, userID int64) ([]*model.Notification, error)
}

// Session протокол одной сессии канала: аутентификация с таймаутом,
// отправка бэклога, ping/pong, снятие с реестра при закрытии.
type Session struct {
	channel  *Channel
	registry *Registry
	verifier TokenVerifier
	backlog  BacklogSource
	logger   *zap.Logger

	authTimeout time.Duration
	state       SessionState
	userID      int64
}

// NewSession создаёт сессию для канала в состоянии unauthenticated
func NewSession(
	channel *Channel,
	registry *Registry,
	verifier TokenVerifier,
	backlog BacklogSource,
	authTimeout time.Duration,
	logger *zap.Logger,
) *Session {
	return &Session{
		channel:     channel,
		registry:    registry,
		verifier:    verifier,
		backlog:     backlog,
		logger:      logger,
		authTimeout: authTimeout,
		state:       SessionStateUnauthenticated,
	}
}

// State возвращает текущее состояние сессии
func (s *Session) State() SessionState {
	return s.state
}

// UserID возвращает ID пользователя после аутентификации (0 до неё)
func (s *Session) UserID() int64 {
	return s.userID
}

// Run читает сообщения канала до его закрытия. Блокирует вызывающую
// горутину; по одной горутине на канал.
func (s *Session) Run(ctx context.Context) {
	// Неаутентифицированный канал живёт не дольше authTimeout
	_ = s.channel.conn.SetReadDeadline(time.Now().Add(s.authTimeout))

	defer s.close()

	for {
		_, data, err := s.channel.conn.ReadMessage()
		if err != nil {
			if s.state == SessionStateUnauthenticated {
				s.logger.Debug("Channel closed before authentication",
					zap.String("channel_id", s.channel.ID()),
					zap.Error(err),
				)
			}
			return
		}

		if !s.handleMessage(ctx, data) {
			return
		}
	}
}

// handleMessage обрабатывает одно входящее сообщение.
// Возвращает false если сессию нужно завершить.
func (s *Session) handleMessage(ctx context.Context, data []byte) bool {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Debug("Malformed channel message ignored",
			zap.String("channel_id", s.channel.ID()),
			zap.Error(err),
		)
		return true
	}

	switch s.state {
	case SessionStateUnauthenticated:
		// До аутентификации принимается только authenticate
		if msg.Type != MessageTypeAuthenticate {
			s.logger.Debug("Message before authentication ignored",
				zap.String("channel_id", s.channel.ID()),
				zap.String("type", msg.Type),
			)
			return true
		}
		return s.authenticate(ctx, msg.Token)

	case SessionStateAuthenticated:
		switch msg.Type {
		case MessageTypePing:
			_ = s.channel.Send(PongMessage{
				Type:      MessageTypePong,
				Timestamp: time.Now().UnixMilli(),
			})
		default:
			s.logger.Debug("Unknown channel message ignored",
				zap.Int64("user_id", s.userID),
				zap.String("type", msg.Type),
			)
		}
		return true
	}

	return false
}

// authenticate проверяет токен, регистрирует канал и отправляет бэклог
func (s *Session) authenticate(ctx context.Context, token string) bool {
	if token == "" {
		_ = s.channel.Send(ErrorMessage{Type: MessageTypeError, Message: "No token provided"})
		return false
	}

	userID, err := s.verifier.VerifyToken(token)
	if err != nil {
		s.logger.Warn("Channel authentication failed",
			zap.String("channel_id", s.channel.ID()),
			zap.Error(err),
		)
		_ = s.channel.Send(ErrorMessage{Type: MessageTypeError, Message: "Invalid token"})
		return false
	}

	s.userID = userID
	s.state = SessionStateAuthenticated
	s.registry.Attach(userID, s.channel)

	// Аутентифицированный канал живёт до закрытия транспорта
	_ = s.channel.conn.SetReadDeadline(time.Time{})

	_ = s.channel.Send(AuthenticatedMessage{
		Type:    MessageTypeAuthenticated,
		Message: "Successfully authenticated",
		UserID:  userID,
	})

	s.logger.Info("Channel authenticated",
		zap.Int64("user_id", userID),
		zap.String("channel_id", s.channel.ID()),
	)

	s.sendBacklog(ctx)
	return true
}

// sendBacklog отправляет все непрочитанные уведомления одним пакетом
func (s *Session) sendBacklog(ctx context.Context) {
	notifications, err := s.backlog.UnreadNotifications(ctx, s.userID)
	if err != nil {
		s.logger.Error("Failed to load unread notifications",
			zap.Int64("user_id", s.userID),
			zap.Error(err),
		)
		return
	}

	if notifications == nil {
		notifications = []*model.Notification{}
	}

	_ = s.channel.Send(UnreadMessage{Type: MessageTypeUnread, Data: notifications})
}

// close снимает канал с реестра и закрывает транспорт
func (s *Session) close() {
	if s.state == SessionStateAuthenticated {
		s.registry.Detach(s.userID, s.channel)
	}
	s.state = SessionStateClosed
	_ = s.channel.Close()
}
