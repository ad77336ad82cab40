package broadcast

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketSubscriber - подписчик поверх websocket соединения
type WebSocketSubscriber struct {
	id           uuid.UUID
	conn         *websocket.Conn
	writeTimeout time.Duration

	// gorilla/websocket допускает только одного писателя одновременно
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewWebSocketSubscriber создает подписчика для уже установленного соединения
func NewWebSocketSubscriber(conn *websocket.Conn, writeTimeout time.Duration) *WebSocketSubscriber {
	return &WebSocketSubscriber{
		id:           uuid.New(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (s *WebSocketSubscriber) ID() uuid.UUID {
	return s.id
}

// Send отправляет текстовое сообщение с ограничением по времени записи
func (s *WebSocketSubscriber) Send(ctx context.Context, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Now().Add(s.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to write websocket message: %w", err)
	}
	return nil
}

// Close отправляет close-фрейм, если это еще возможно, и закрывает соединение.
// Ожидающий ReadMessage в ServeWebSocket после этого завершается.
func (s *WebSocketSubscriber) Close() error {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "closing")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
		s.writeMu.Unlock()
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// ServeWebSocket принимает подключение, регистрирует его в хабе и держит его открытым,
// пока клиент не отключится
func ServeWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, writeTimeout time.Duration, logger *logrus.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("Failed to upgrade websocket connection")
		return
	}

	sub := NewWebSocketSubscriber(conn, writeTimeout)
	hub.Connect(sub)
	defer func() {
		hub.Disconnect(sub)
		_ = sub.Close()
	}()

	// Входящие сообщения не используются, чтение нужно для обнаружения закрытия соединения
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).WithField("subscriber_id", sub.ID()).Debug("Websocket closed unexpectedly")
			}
			return
		}
	}
}
