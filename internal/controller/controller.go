package controller

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/service"
	"github.com/Freeeeeet/slotswapper/internal/ws"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Controller тонкий HTTP/WebSocket слой над движком обмена
type Controller struct {
	swaps         *service.SwapService
	notifications *service.NotificationService
	registry      *ws.Registry
	tokens        ws.TokenVerifier
	upgrader      websocket.Upgrader
	wsAuthTimeout time.Duration
	logger        *zap.Logger
}

func NewController(
	swaps *service.SwapService,
	notifications *service.NotificationService,
	registry *ws.Registry,
	tokens ws.TokenVerifier,
	wsAuthTimeout time.Duration,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		swaps:         swaps,
		notifications: notifications,
		registry:      registry,
		tokens:        tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Аутентификация своя, внутри протокола канала
			CheckOrigin: func(*http.Request) bool { return true },
		},
		wsAuthTimeout: wsAuthTimeout,
		logger:        logger,
	}
}

// Routes собирает маршруты приложения
func (c *Controller) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/swaps/requests", c.authenticate(c.createSwapRequest))
	mux.HandleFunc("GET /api/swaps/requests", c.authenticate(c.listSwapRequests))
	mux.HandleFunc("PUT /api/swaps/requests/{id}", c.authenticate(c.updateSwapRequest))

	mux.HandleFunc("GET /api/swaps/notifications", c.authenticate(c.listNotifications))
	mux.HandleFunc("PUT /api/swaps/notifications/read-all", c.authenticate(c.markAllNotificationsRead))
	mux.HandleFunc("PUT /api/swaps/notifications/{id}/read", c.authenticate(c.markNotificationRead))

	mux.HandleFunc("GET /api/ws", c.serveWS)
	mux.HandleFunc("GET /api/ws/stats", c.authenticate(c.wsStats))

	return mux
}
