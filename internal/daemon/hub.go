package daemon

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"

	"github.com/backkem/ieee1905/pkg/transport"
)

// writeWait bounds each event write so a stalled client cannot hold up
// the loop goroutine.
const writeWait = time.Second

// Event describes one received frame, as broadcast on /v1/events.
type Event struct {
	Type      uint16 `json:"type"`
	TypeName  string `json:"type_name"`
	MID       uint16 `json:"mid"`
	TLVCount  int    `json:"tlv_count"`
	Src       string `json:"src"`
	SrcOrigin string `json:"src_origin"`
	Peer      string `json:"peer,omitempty"`
}

// NewEvent summarizes f.
func NewEvent(f *transport.ReceivedFrame) Event {
	ev := Event{
		Type:      uint16(f.CMDU.MessageType),
		TypeName:  f.CMDU.MessageType.String(),
		MID:       f.CMDU.MessageID,
		TLVCount:  f.CMDU.Count(),
		Src:       f.Source.String(),
		SrcOrigin: f.SourceOrigin.String(),
	}
	if f.PeerAddr != nil {
		ev.Peer = f.PeerAddr.String()
	}
	return ev
}

// Hub fans received-frame events out to WebSocket clients.
type Hub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	log      logging.LeveledLogger
}

// NewHub creates an empty hub.
func NewHub(loggerFactory logging.LoggerFactory) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if loggerFactory != nil {
		h.log = loggerFactory.NewLogger("hub")
	}
	return h
}

// HandleWebSocket upgrades the request and keeps the client subscribed
// until it disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		if h.log != nil {
			h.log.Warnf("websocket upgrade: %v", err)
		}
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Clients never send; reading only detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
}

// Publish sends ev to every client. Clients that fail are dropped.
// Publish must not be called concurrently with itself.
func (h *Hub) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		if h.log != nil {
			h.log.Warnf("encoding %s event: %v", ev.TypeName, err)
		}
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			if h.log != nil {
				h.log.Debugf("dropping event client %s: %v", client.RemoteAddr(), err)
			}
			h.remove(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}
