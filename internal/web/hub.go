package web

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client represents a WebSocket client connection
type Client struct {
	ID     string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *TranscriptHub
	mu     sync.Mutex
	closed bool
}

// TranscriptHub manages WebSocket connections and pushes transcript updates
// to every connected viewer.
type TranscriptHub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan string
	mu         sync.RWMutex
	log        zerolog.Logger
}

// NewTranscriptHub creates a new transcript hub
func NewTranscriptHub(log zerolog.Logger) *TranscriptHub {
	return &TranscriptHub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		broadcast:  make(chan string, 256),
		log:        log,
	}
}

// Run starts the hub's event loop
func (h *TranscriptHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case rendered := <-h.broadcast:
			h.broadcastTranscript(rendered)
		}
	}
}

func (h *TranscriptHub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.log.Info().Str("client", client.ID).Int("total", len(h.clients)).Msg("client connected")

	go client.writePump()
}

func (h *TranscriptHub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		h.log.Info().Str("client", client.ID).Int("total", len(h.clients)).Msg("client disconnected")
	}
}

func (h *TranscriptHub) broadcastTranscript(rendered string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(map[string]interface{}{
		"type":       "transcript",
		"transcript": rendered,
		"time":       time.Now().Unix(),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal transcript update")
		return
	}

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// Client send buffer full, skip
			h.log.Warn().Str("client", client.ID).Msg("client send buffer full")
		}
	}
}

// BroadcastTranscript queues a transcript update for all connected clients.
func (h *TranscriptHub) BroadcastTranscript(rendered string) {
	select {
	case h.broadcast <- rendered:
	default:
		h.log.Warn().Msg("broadcast channel full, dropping transcript update")
	}
}

// GetClientCount returns the number of connected clients
func (h *TranscriptHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.mu.Lock()
			if !ok {
				// Hub closed the channel
				c.closed = true
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				c.mu.Unlock()
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.closed = true
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()

		case <-ticker.C:
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closed = true
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	}
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.Conn.Close()
}

// readPump drains the WebSocket connection until the client goes away.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn().Str("client", c.ID).Err(err).Msg("unexpected close")
			}
			break
		}
	}
}
