package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Transport минимальный контракт соединения, нужный каналу.
// *websocket.Conn из gorilla ему удовлетворяет.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Channel обёртка над одним открытым соединением.
// Записи сериализуются мьютексом, состояние открытости явное.
// Флаг open отвечает за пригодность к записи; закрытие транспорта
// отслеживается отдельно, иначе канал с ошибкой записи остался бы
// с незакрытым соединением.
type Channel struct {
	id   string
	conn Transport

	mu        sync.Mutex
	open      bool
	closeOnce sync.Once
}

// NewChannel создаёт канал поверх транспорта
func NewChannel(conn Transport) *Channel {
	return &Channel{
		id:   uuid.NewString(),
		conn: conn,
		open: true,
	}
}

// ID возвращает эфемерный идентификатор канала
func (c *Channel) ID() string {
	return c.id
}

// IsOpen сообщает открыт ли ещё канал
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Send сериализует payload в JSON и пишет в канал.
// Ошибка записи закрывает канал.
func (c *Channel) Send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return websocket.ErrCloseSent
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.open = false
		return err
	}

	return nil
}

// Close закрывает канал и его транспорт. Повторные вызовы безопасны,
// транспорт закрывается ровно один раз, в том числе когда канал уже
// помечен непригодным к записи после ошибки Send.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()

	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
