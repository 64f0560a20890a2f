package fakeapi

import (
	"encoding/json"
	"sync"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/gorilla/websocket"
)

type wsClient struct {
	conn  *websocket.Conn
	token string
	send  chan []byte
}

func newWSClient(conn *websocket.Conn, token string) *wsClient {
	c := &wsClient{
		conn:  conn,
		token: token,
		send:  make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// hub fans push frames out to every connected client.
type hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	opened  int
}

func newHub() *hub {
	return &hub{clients: make(map[*wsClient]bool)}
}

func (h *hub) add(conn *websocket.Conn, token string) *wsClient {
	c := newWSClient(conn, token)
	h.mu.Lock()
	h.clients[c] = true
	h.opened++
	h.mu.Unlock()
	return c
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// dropToken disconnects every client that authenticated with token.
func (h *hub) dropToken(token string) {
	h.mu.RLock()
	var victims []*wsClient
	for c := range h.clients {
		if c.token == token {
			victims = append(victims, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range victims {
		c.conn.Close()
		h.remove(c)
	}
}

func (h *hub) dropAll() {
	h.mu.RLock()
	victims := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		victims = append(victims, c)
	}
	h.mu.RUnlock()
	for _, c := range victims {
		c.conn.Close()
		h.remove(c)
	}
}

func (h *hub) broadcast(kind client.PushKind, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(client.PushEnvelope{Type: kind, Payload: body})
	if err != nil {
		return err
	}
	return h.broadcastRaw(data)
}

func (h *hub) broadcastRaw(data []byte) error {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Client can't keep up, disconnect it
			h.remove(c)
		}
	}
	return nil
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.opened
}
