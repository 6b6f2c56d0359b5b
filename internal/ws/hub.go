package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/moonhowl/werewolf-go/internal/model"
)

// Sender delivers events to connected clients. The dispatcher depends on
// this rather than on the hub directly so tests can record deliveries.
type Sender interface {
	Send(conn model.ConnectionID, event string, data any)
	SendMany(conns []model.ConnectionID, event string, data any)
}

// Hub tracks live websocket clients by connection id
type Hub struct {
	mu      sync.RWMutex
	clients map[model.ConnectionID]*Client
	logger  *slog.Logger
}

var _ Sender = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionID]*Client),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[c.ID]; ok && current == c {
		delete(h.clients, c.ID)
		close(c.send)
	}
}

// Send marshals the event once and queues it for the given connection.
// Unknown connections are ignored; the client may have already dropped.
func (h *Hub) Send(conn model.ConnectionID, event string, data any) {
	h.SendMany([]model.ConnectionID{conn}, event, data)
}

// SendMany fans one event out to several connections
func (h *Hub) SendMany(conns []model.ConnectionID, event string, data any) {
	msg, err := marshalEnvelope(event, data)
	if err != nil {
		h.logger.Error("failed to marshal outbound event",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range conns {
		client, ok := h.clients[conn]
		if !ok {
			continue
		}
		select {
		case client.send <- msg:
		default:
			// Slow consumer; drop the frame rather than block the hub
			h.logger.Warn("dropping frame for slow client",
				slog.String("connection_id", string(conn)),
			)
		}
	}
}

func marshalEnvelope(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
