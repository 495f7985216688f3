package notify

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Event is what gets pushed over a live websocket connection.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans events out to connected clients. Each user may hold several
// connections; delivery is per-user, best effort. Registration and broadcast
// go through channels so only the run loop touches the client set.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan targeted
	clients    map[string]map[*Client]struct{}
	logger     *zap.Logger
}

type targeted struct {
	userIDs []string
	data    []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan targeted, 64),
		clients:    make(map[string]map[*Client]struct{}),
		logger:     logger,
	}
}

// Run owns the client set until the broadcast channel is drained or the hub
// is abandoned. Start it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*Client]struct{})
			}
			h.clients[c.userID][c] = struct{}{}

		case c := <-h.unregister:
			if set, ok := h.clients[c.userID]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.send)
					if len(set) == 0 {
						delete(h.clients, c.userID)
					}
				}
			}

		case msg := <-h.broadcast:
			for _, userID := range msg.userIDs {
				for c := range h.clients[userID] {
					select {
					case c.send <- msg.data:
					default:
						// Slow consumer: drop the connection, not the loop.
						delete(h.clients[userID], c)
						close(c.send)
					}
				}
			}
		}
	}
}

// Push serializes an event and queues it for the given users. Connections
// that are not online simply miss the push; the stored notification remains.
func (h *Hub) Push(userIDs []string, event Event) {
	if h == nil || len(userIDs) == 0 {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("event marshal failed", zap.String("type", event.Type), zap.Error(err))
		}
		return
	}
	h.broadcast <- targeted{userIDs: userIDs, data: data}
}
