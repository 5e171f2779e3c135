package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans out server-originated events (new chat lines, roster
// changes) to every connected websocket client, replacing the
// teacher's lack of any live push channel (its clients polled HTTP).
// Connections are write-only from the hub's perspective: clients never
// submit reducer calls over the socket, only GET /ws to subscribe.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub builds an empty Hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Subscriptions are read-only browsing of public state
			// (chat/roster), not a credentialed session, so the
			// origin check is not a security boundary here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP upgrades the request to a websocket and registers the
// connection until it disconnects or Broadcast fails to keep up.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	out := make(chan []byte, 32)

	h.mu.Lock()
	h.clients[conn] = out
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Drain the read side so the client's pong/close frames are
	// processed; this hub never expects client-sent data messages.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for msg := range out {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Broadcast pushes msg to every currently connected client. A client
// whose outbound buffer is full is dropped rather than blocking every
// other subscriber (spec §6 push is best-effort, not a delivery
// guarantee).
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, out := range h.clients {
		select {
		case out <- msg:
		default:
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount reports how many subscribers are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
