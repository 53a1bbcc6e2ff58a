package rest

import (
	"context"
	"myJara/domain"
	"myJara/internal/middleware"
	"myJara/pkg/logger"
	"myJara/pkg/metrics"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type streamConfig struct {
	allowOrigins []string
	sendBuffer   int
}

func (s streamConfig) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range s.allowOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// streamClient pushes one room's new messages to one websocket.
// The socket is push-only: inbound frames are read for control messages and discarded.
type streamClient struct {
	conn *websocket.Conn
	send chan domain.ChatMessage
}

// Stream handles GET /chat/rooms/:id/ws. Membership is checked before the upgrade,
// so refusals are ordinary HTTP errors.
func (h *ChatHandler) Stream(c echo.Context) error {
	roomID := c.Param("id")

	// the request context ends when the handler returns; the stream outlives neither
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &streamClient{send: make(chan domain.ChatMessage, h.stream.sendBuffer)}

	sub, err := h.chatService.Subscribe(ctx, middleware.UserID(c), roomID, func(msg domain.ChatMessage) {
		select {
		case client.send <- msg:
		default:
			metrics.ChatFeedDropped.Inc()
			logger.Warn("websocket client is behind, message dropped", "room_id", roomID)
		}
	})
	if err != nil {
		return writeError(c, err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			logger.Warn("failed to release room subscription", "room_id", roomID, err)
		}
	}()

	upgrader := h.stream.upgrader()
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		logger.Warn("websocket upgrade failed", "room_id", roomID, err)
		return nil
	}
	client.conn = conn

	go client.readPump(cancel)
	client.writePump(ctx)

	return nil
}

func (c *streamClient) readPump(cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket closed", err)
			}
			return
		}
	}
}

func (c *streamClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}
