package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Registry потокобезопасный реестр открытых каналов по пользователям.
// Единственная разделяемая структура в процессе; мутируется только
// через Attach/Detach/Broadcast.
type Registry struct {
	mu          sync.RWMutex
	connections map[int64]map[*Channel]struct{}
	logger      *zap.Logger
}

// NewRegistry создаёт пустой реестр
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		connections: make(map[int64]map[*Channel]struct{}),
		logger:      logger,
	}
}

// Attach регистрирует канал за пользователем
func (r *Registry) Attach(userID int64, ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels, ok := r.connections[userID]
	if !ok {
		channels = make(map[*Channel]struct{})
		r.connections[userID] = channels
	}
	channels[ch] = struct{}{}

	r.logger.Info("Channel attached",
		zap.Int64("user_id", userID),
		zap.String("channel_id", ch.ID()),
		zap.Int("user_channels", len(channels)),
	)
}

// Detach удаляет канал пользователя. Идемпотентен.
func (r *Registry) Detach(userID int64, ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels, ok := r.connections[userID]
	if !ok {
		return
	}

	if _, ok := channels[ch]; !ok {
		return
	}

	delete(channels, ch)
	if len(channels) == 0 {
		delete(r.connections, userID)
	}

	r.logger.Info("Channel detached",
		zap.Int64("user_id", userID),
		zap.String("channel_id", ch.ID()),
	)
}

// Broadcast отправляет payload во все открытые каналы пользователя.
// Канал с ошибкой записи считается закрытым и удаляется из реестра;
// остальных каналов это не касается. Возвращает true если доставлено
// хотя бы в один канал.
func (r *Registry) Broadcast(userID int64, payload any) bool {
	r.mu.RLock()
	channels := make([]*Channel, 0, len(r.connections[userID]))
	for ch := range r.connections[userID] {
		channels = append(channels, ch)
	}
	r.mu.RUnlock()

	if len(channels) == 0 {
		return false
	}

	var delivered bool
	var dead []*Channel

	for _, ch := range channels {
		if !ch.IsOpen() {
			dead = append(dead, ch)
			continue
		}
		if err := ch.Send(payload); err != nil {
			r.logger.Warn("Channel write failed, detaching",
				zap.Int64("user_id", userID),
				zap.String("channel_id", ch.ID()),
				zap.Error(err),
			)
			dead = append(dead, ch)
			continue
		}
		delivered = true
	}

	for _, ch := range dead {
		_ = ch.Close()
		r.Detach(userID, ch)
	}

	return delivered
}

// CountAll возвращает общее количество открытых каналов
func (r *Registry) CountAll() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, channels := range r.connections {
		total += len(channels)
	}
	return total
}

// CountForUser возвращает количество открытых каналов пользователя
func (r *Registry) CountForUser(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections[userID])
}

// Users возвращает ID всех подключённых пользователей
func (r *Registry) Users() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]int64, 0, len(r.connections))
	for userID := range r.connections {
		users = append(users, userID)
	}
	return users
}
