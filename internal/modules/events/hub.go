package events

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

// connection pairs a socket with its outbound queue. The write pump is
// the only goroutine allowed to write on the socket.
type connection struct {
	conn *websocket.Conn
	send chan interface{}
}

// Hub tracks one live WebSocket connection per user. A reconnect
// replaces and closes the previous connection.
type Hub struct {
	connections map[int64]*connection
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]*connection),
	}
}

// Register attaches a user's socket and starts its write pump. The send
// channel is only ever closed under the write lock, so enqueuers holding
// the read lock never race the close.
func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	c := &connection{
		conn: conn,
		send: make(chan interface{}, sendBuffer),
	}

	h.mutex.Lock()
	if old, exists := h.connections[userID]; exists {
		close(old.send)
		_ = old.conn.Close()
	}
	h.connections[userID] = c
	h.mutex.Unlock()

	go h.writePump(userID, c)
}

func (h *Hub) Unregister(userID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if c, exists := h.connections[userID]; exists {
		close(c.send)
		_ = c.conn.Close()
		delete(h.connections, userID)
	}
}

// drop removes a connection only if it is still the user's current one,
// so a pump shutting down cannot evict its replacement.
func (h *Hub) drop(userID int64, c *connection) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if current, exists := h.connections[userID]; exists && current == c {
		close(c.send)
		_ = c.conn.Close()
		delete(h.connections, userID)
	}
}

// SendToUser queues one JSON payload and reports whether the user had a
// live connection with room in its queue. The enqueue never blocks: a
// client that stopped draining fills its buffer, gets skipped here, and
// is torn down by the pump once its write deadline fires.
func (h *Hub) SendToUser(userID int64, message interface{}) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	c, exists := h.connections[userID]
	if !exists {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// writePump owns all writes on the socket, pings included. It exits when
// the send channel closes or any write fails, then detaches the
// connection so the next send reports the user offline.
func (h *Hub) writePump(userID int64, c *connection) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		h.drop(userID, c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[userID]
	return exists
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, c := range h.connections {
		close(c.send)
		_ = c.conn.Close()
		delete(h.connections, userID)
	}
}
