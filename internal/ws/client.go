package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/moonhowl/werewolf-go/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Party rooms are joined from phones on the local network; the join
	// page may be served from a different origin than the socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection and its outbound queue
type Client struct {
	ID   model.ConnectionID
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// ServeWS upgrades an HTTP request and runs the connection until it closes
func ServeWS(hub *Hub, dispatcher *Dispatcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		client := &Client{
			ID:   model.ConnectionID(uuid.NewString()),
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 64),
		}
		hub.Register(client)
		logger.Info("client connected", slog.String("connection_id", string(client.ID)))

		go client.writePump()
		client.readPump(r.Context(), dispatcher, logger)
	}
}

func (c *Client) readPump(ctx context.Context, dispatcher *Dispatcher, logger *slog.Logger) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		dispatcher.HandleDisconnect(ctx, c.ID)
		logger.Info("client disconnected", slog.String("connection_id", string(c.ID)))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error",
					slog.String("connection_id", string(c.ID)),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		dispatcher.HandleMessage(ctx, c.ID, msg)
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
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
