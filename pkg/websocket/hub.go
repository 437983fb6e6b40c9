package websocket

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"civiclearn/pkg/logger"
)

// Message is the envelope for every event pushed to subscribers.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans events out to clients subscribed to discussion threads. Clients
// are read-only; the server pushes, the browser listens.
type Hub struct {
	threadRooms map[uint]map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	mu          sync.RWMutex
	log         *logger.Logger
}

type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	threadID uint
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		threadRooms: make(map[uint]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		log:         log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.threadRooms[client.threadID]; !ok {
				h.threadRooms[client.threadID] = make(map[*Client]bool)
			}
			h.threadRooms[client.threadID][client] = true
			h.mu.Unlock()
			h.log.Debug("ws client subscribed", "client", client.id, "thread", client.threadID)

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.threadRooms[client.threadID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.threadRooms, client.threadID)
					}
				}
			}
			h.mu.Unlock()
			h.log.Debug("ws client unsubscribed", "client", client.id, "thread", client.threadID)
		}
	}
}

// Broadcast pushes an event to everyone watching the thread. Slow clients
// whose send buffer is full are dropped rather than blocking the room.
func (h *Hub) Broadcast(threadID uint, messageType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: messageType, Data: data})
	if err != nil {
		h.log.Error("ws marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	room := h.threadRooms[threadID]
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- payload:
		default:
			h.unregister <- client
		}
	}
}

// HandleWebSocket upgrades GET /ws/threads/{id} and subscribes the
// connection to that thread's events.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	threadID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid thread id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:       uuid.NewString(),
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 16),
		threadID: uint(threadID),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// Inbound frames are ignored; the read loop only detects closure.
		if _, _, err := c.conn.ReadMessage(); err != nil {
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
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
