package stream

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans snapshots out to every connected websocket client and feeds
// their commands into a Driver.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends snap to every client, dropping any that fail.
func (h *Hub) Broadcast(snap Snapshot) {
	payload, err := snap.Marshal()
	if err != nil {
		log.Printf("failed to marshal snapshot: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			log.Printf("failed to write to client: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) send(conn *websocket.Conn, snap Snapshot) {
	payload, err := snap.Marshal()
	if err != nil {
		log.Printf("failed to marshal snapshot: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		log.Printf("failed to write to client: %v", err)
	}
}

// Handler upgrades the request, sends the driver's latest snapshot and then
// queues every command the client sends.
func (h *Hub) Handler(d *Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		h.add(conn)
		defer h.remove(conn)

		// Send the current state immediately.
		h.send(conn, d.Latest())

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Printf("stream read error: %v", err)
				return
			}

			cmd, err := DecodeCommand(data)
			if err != nil {
				log.Printf("unable to decode command: %v", err)
				continue
			}
			if err := d.Submit(cmd); err != nil {
				log.Printf("dropping command: %v", err)
			}
		}
	}
}
