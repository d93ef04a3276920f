package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cardbattle/battle-server-go/internal/game"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
	deliveryBuffer = 1024
)

// MessageTypeNotice tags websocket frames carrying a notice.
const MessageTypeNotice = "NOTICE"

// WSMessage is the frame pushed to connected clients.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type delivery struct {
	accountID int64
	payload   []byte
}

// Client is one websocket connection bound to an account.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	accountID int64
}

// Hub fans notices out to the websocket connections of each account. It implements
// notice.Notifier; Deliver never blocks the action pipeline.
type Hub struct {
	mu         sync.RWMutex
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliveries chan delivery
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, deliveryBuffer),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Run owns client registration and delivery until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.accountID] == nil {
				h.clients[c.accountID] = make(map[*Client]struct{})
			}
			h.clients[c.accountID][c] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", zap.Int64("account_id", c.accountID))

		case c := <-h.unregister:
			h.remove(c)

		case d := <-h.deliveries:
			h.mu.Lock()
			for c := range h.clients[d.accountID] {
				select {
				case c.send <- d.payload:
				default:
					h.logger.Warn("websocket client too slow, dropping", zap.Int64("account_id", c.accountID))
					h.removeLocked(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	set, ok := h.clients[c.accountID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.accountID)
	}
	close(c.send)
	h.logger.Debug("websocket client unregistered", zap.Int64("account_id", c.accountID))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.removeLocked(c)
		}
	}
}

// Deliver queues a notice for every connection of the account.
func (h *Hub) Deliver(accountID int64, n notice.Notice) {
	payload, err := json.Marshal(WSMessage{Type: MessageTypeNotice, Data: n})
	if err != nil {
		h.logger.Error("marshal notice", zap.Int64("account_id", accountID), zap.Error(err))
		return
	}
	select {
	case h.deliveries <- delivery{accountID: accountID, payload: payload}:
	default:
		h.logger.Warn("notice queue full, dropping",
			zap.Int64("account_id", accountID),
			zap.String("action", n.Action),
		)
	}
}

// Connected returns the number of open connections of the account.
func (h *Hub) Connected(accountID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}

// ServeWS upgrades requests that carry a valid session_token query parameter.
func (h *Hub) ServeWS(sessions game.SessionValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := sessions.Validate(r.URL.Query().Get("session_token"))
		if accountID == game.InvalidAccount {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), accountID: accountID}
		select {
		case h.register <- c:
		case <-h.done:
			conn.Close()
			return
		}

		go c.writePump()
		go c.readPump()
	}
}

// readPump only services control frames. Clients act over gRPC.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.Int64("account_id", c.accountID), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
