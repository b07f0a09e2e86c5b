package controller

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/slotswapper/internal/ws"
	"go.uber.org/zap"
)

// serveWS апгрейдит соединение и запускает сессию канала.
// Аутентификация происходит уже внутри протокола канала.
func (c *Controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	channel := ws.NewChannel(conn)
	session := ws.NewSession(channel, c.registry, c.tokens, c.notifications, c.wsAuthTimeout, c.logger)

	// Горутина этого хендлера и есть горутина канала. Контекст запроса
	// после апгрейда не используем: сессия живёт дольше него.
	session.Run(context.Background())
}

func (c *Controller) wsStats(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]any{
			"totalConnections":    c.registry.CountAll(),
			"connectedUsers":      len(c.registry.Users()),
			"userConnectionCount": c.registry.CountForUser(userID),
		},
	})
}
