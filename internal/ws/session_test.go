package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	users map[string]int64
}

func (v *fakeVerifier) VerifyToken(token string) (int64, error) {
	userID, ok := v.users[token]
	if !ok {
		return 0, model.ErrAuthenticationFailed
	}
	return userID, nil
}

type fakeBacklog struct {
	notifications map[int64][]*model.Notification
	err           error
}

func (b *fakeBacklog) UnreadNotifications(_ context.Context, userID int64) ([]*model.Notification, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.notifications[userID], nil
}

func newTestSession(conn *fakeConn, registry *Registry, backlog *fakeBacklog) *Session {
	verifier := &fakeVerifier{users: map[string]int64{"valid-token": 7}}
	channel := NewChannel(conn)
	return NewSession(channel, registry, verifier, backlog, time.Second, zap.NewNop())
}

func decodeWritten(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func enqueue(t *testing.T, conn *fakeConn, msg any) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	conn.inbound <- data
}

func TestSession_AuthenticateSuccess(t *testing.T) {
	conn := newFakeConn()
	registry := NewRegistry(zap.NewNop())
	backlog := &fakeBacklog{notifications: map[int64][]*model.Notification{
		7: {
			{ID: 2, UserID: 7, Type: model.NotificationSwapRequest, Title: "New Swap Request"},
			{ID: 1, UserID: 7, Type: model.NotificationSwapApproved, Title: "Swap Request Approved"},
		},
	}}

	session := newTestSession(conn, registry, backlog)

	enqueue(t, conn, InboundMessage{Type: MessageTypeAuthenticate, Token: "valid-token"})
	enqueue(t, conn, InboundMessage{Type: MessageTypePing})
	_ = conn.Close()

	session.Run(context.Background())

	require.Equal(t, SessionStateClosed, session.State())
	assert.Equal(t, int64(7), session.UserID())

	require.Len(t, conn.written, 3)

	authMsg := decodeWritten(t, conn.written[0])
	assert.Equal(t, MessageTypeAuthenticated, authMsg["type"])
	assert.Equal(t, float64(7), authMsg["userId"])

	unreadMsg := decodeWritten(t, conn.written[1])
	assert.Equal(t, MessageTypeUnread, unreadMsg["type"])
	assert.Len(t, unreadMsg["data"], 2)

	pongMsg := decodeWritten(t, conn.written[2])
	assert.Equal(t, MessageTypePong, pongMsg["type"])
	assert.NotZero(t, pongMsg["timestamp"])

	// После закрытия транспорта канал снят с реестра
	assert.Equal(t, 0, registry.CountForUser(7))
}

func TestSession_AuthenticateInvalidToken(t *testing.T) {
	conn := newFakeConn()
	registry := NewRegistry(zap.NewNop())

	session := newTestSession(conn, registry, &fakeBacklog{})

	enqueue(t, conn, InboundMessage{Type: MessageTypeAuthenticate, Token: "wrong"})

	session.Run(context.Background())

	require.Equal(t, SessionStateClosed, session.State())
	require.Len(t, conn.written, 1)

	errMsg := decodeWritten(t, conn.written[0])
	assert.Equal(t, MessageTypeError, errMsg["type"])
	assert.Equal(t, "Invalid token", errMsg["message"])

	assert.Equal(t, 0, registry.CountAll())
	assert.True(t, conn.isClosed())
}

func TestSession_AuthenticateMissingToken(t *testing.T) {
	conn := newFakeConn()
	session := newTestSession(conn, NewRegistry(zap.NewNop()), &fakeBacklog{})

	enqueue(t, conn, InboundMessage{Type: MessageTypeAuthenticate})

	session.Run(context.Background())

	require.Len(t, conn.written, 1)
	errMsg := decodeWritten(t, conn.written[0])
	assert.Equal(t, MessageTypeError, errMsg["type"])
	assert.Equal(t, "No token provided", errMsg["message"])
	assert.Equal(t, SessionStateClosed, session.State())
}

func TestSession_IgnoresMessagesBeforeAuthentication(t *testing.T) {
	conn := newFakeConn()
	registry := NewRegistry(zap.NewNop())
	session := newTestSession(conn, registry, &fakeBacklog{})

	enqueue(t, conn, InboundMessage{Type: MessageTypePing})
	enqueue(t, conn, InboundMessage{Type: MessageTypeAuthenticate, Token: "valid-token"})
	_ = conn.Close()

	session.Run(context.Background())

	// Ping до аутентификации проигнорирован, pong не отправлен
	require.Len(t, conn.written, 2)
	assert.Equal(t, MessageTypeAuthenticated, decodeWritten(t, conn.written[0])["type"])
	assert.Equal(t, MessageTypeUnread, decodeWritten(t, conn.written[1])["type"])
}

func TestSession_IgnoresUnknownAndMalformedMessages(t *testing.T) {
	conn := newFakeConn()
	session := newTestSession(conn, NewRegistry(zap.NewNop()), &fakeBacklog{})

	enqueue(t, conn, InboundMessage{Type: MessageTypeAuthenticate, Token: "valid-token"})
	conn.inbound <- []byte("{not json")
	enqueue(t, conn, InboundMessage{Type: "subscribe"})
	enqueue(t, conn, InboundMessage{Type: MessageTypePing})
	_ = conn.Close()

	session.Run(context.Background())

	// authenticated + unread + pong, мусор проигнорирован
	require.Len(t, conn.written, 3)
	assert.Equal(t, MessageTypePong, decodeWritten(t, conn.written[2])["type"])
}

func TestSession_EmptyBacklogStillSent(t *testing.T) {
	conn := newFakeConn()
	session := newTestSession(conn, NewRegistry(zap.NewNop()), &fakeBacklog{})

	enqueue(t, conn, InboundMessage{Type: MessageTypeAuthenticate, Token: "valid-token"})
	_ = conn.Close()

	session.Run(context.Background())

	require.Len(t, conn.written, 2)
	unreadMsg := decodeWritten(t, conn.written[1])
	assert.Equal(t, MessageTypeUnread, unreadMsg["type"])
	assert.Empty(t, unreadMsg["data"])
}

func TestSession_BacklogErrorDoesNotKillSession(t *testing.T) {
	conn := newFakeConn()
	registry := NewRegistry(zap.NewNop())
	session := newTestSession(conn, registry, &fakeBacklog{err: errors.New("db down")})

	enqueue(t, conn, InboundMessage{Type: MessageTypeAuthenticate, Token: "valid-token"})
	enqueue(t, conn, InboundMessage{Type: MessageTypePing})
	_ = conn.Close()

	session.Run(context.Background())

	// Без бэклога, но сессия жива и отвечает на ping
	require.Len(t, conn.written, 2)
	assert.Equal(t, MessageTypeAuthenticated, decodeWritten(t, conn.written[0])["type"])
	assert.Equal(t, MessageTypePong, decodeWritten(t, conn.written[1])["type"])
}

func TestSession_PushAfterAttach(t *testing.T) {
	conn := newFakeConn()
	registry := NewRegistry(zap.NewNop())
	session := newTestSession(conn, registry, &fakeBacklog{})

	enqueue(t, conn, InboundMessage{Type: MessageTypeAuthenticate, Token: "valid-token"})

	done := make(chan struct{})
	go func() {
		session.Run(context.Background())
		close(done)
	}()

	// Дожидаемся регистрации канала и шлём push через реестр
	require.Eventually(t, func() bool { return registry.CountForUser(7) == 1 }, time.Second, 5*time.Millisecond)

	delivered := registry.Broadcast(7, NewNotificationMessage(&model.Notification{
		ID: 3, UserID: 7, Type: model.NotificationSwapRequest,
	}))
	require.True(t, delivered)

	_ = conn.Close()
	<-done

	require.GreaterOrEqual(t, conn.writtenCount(), 3)
	pushMsg := decodeWritten(t, conn.written[len(conn.written)-1])
	assert.Equal(t, MessageTypeNotification, pushMsg["type"])
}
