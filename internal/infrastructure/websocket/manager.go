package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"webugs/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
	sendBuffer = 64
)

// TopicChatList is the topic of a connection showing the chat list.
const TopicChatList = "chat_list"

// RoomTopic is the topic of a connection showing one room.
func RoomTopic(roomID string) string {
	return "room:" + roomID
}

// Client is one WebSocket connection. A user may hold several, one per
// open screen; Topic says which screen.
type Client struct {
	ID     string
	UserID string
	Topic  string
	Conn   *websocket.Conn
	Send   chan []byte

	// OnMessage receives client frames other than ping.
	OnMessage func(c *Client, msg WSMessage)
	// OnClose runs once after the connection is unregistered.
	OnClose func()

	closeOnce sync.Once
}

func NewClient(userID, topic string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Topic:  topic,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
	}
}

// Manager tracks live connections per user and implements the
// notification surface on top of them.
type Manager struct {
	clients map[string]map[*Client]struct{}
	mutex   sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (m *Manager) Register(c *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	set, ok := m.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		m.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	logger.Info("WebSocket: client %s registered for %s (%s)", c.ID, c.UserID, c.Topic)
}

func (m *Manager) Unregister(c *Client) {
	m.mutex.Lock()
	set, ok := m.clients[c.UserID]
	if ok {
		if _, present := set[c]; present {
			delete(set, c)
			close(c.Send)
		}
		if len(set) == 0 {
			delete(m.clients, c.UserID)
		}
	}
	m.mutex.Unlock()

	c.closeOnce.Do(func() {
		if c.OnClose != nil {
			c.OnClose()
		}
		logger.Info("WebSocket: client %s unregistered for %s", c.ID, c.UserID)
	})
}

// ConnectionCount reports the live connections of a user.
func (m *Manager) ConnectionCount(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID])
}

// sendToUser queues data on every connection of userID whose topic passes
// match. Connections with a full buffer are dropped.
func (m *Manager) sendToUser(userID string, data []byte, match func(topic string) bool) {
	var slow []*Client

	m.mutex.RLock()
	for c := range m.clients[userID] {
		if match != nil && !match(c.Topic) {
			continue
		}
		select {
		case c.Send <- data:
		default:
			slow = append(slow, c)
		}
	}
	m.mutex.RUnlock()

	for _, c := range slow {
		logger.Warn("WebSocket: client %s of %s is not draining, closing it", c.ID, c.UserID)
		m.Unregister(c)
	}
}

// ReadPump reads frames until the connection fails, then unregisters.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessage)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: read error from %s: %v", c.UserID, err)
			}
			return
		}
		m.HandleClientMessage(c, message)
	}
}

// WritePump drains Send to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket: write to %s failed: %v", c.UserID, err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
