package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/config"
)

const sendBufSize = 64

// Client is one WebSocket connection. It plays at most one session at a time.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	remote string
	cfg    config.WebSocketConfig
	logger *zap.Logger

	// session is only touched by readPump.
	session *Session
}

func (c *Client) pongWait() time.Duration {
	return c.cfg.PingInterval * 10 / 9
}

// readPump reads requests from the connection and answers each in order.
func (c *Client) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.hub.Unregister(c)
		c.conn.Close()
		c.logger.Info("websocket client disconnected", zap.String("remote", c.remote))
	}()

	c.conn.SetReadLimit(c.cfg.ReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket unexpected close", zap.String("remote", c.remote), zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Warn("invalid client message", zap.String("remote", c.remote), zap.Error(err))
			c.enqueue(errorEvent(err))
			continue
		}
		c.enqueue(c.hub.handleMessage(ctx, c, msg))
	}
}

func (c *Client) enqueue(ev WSEvent) {
	data, err := encode(ev)
	if err != nil {
		c.logger.Error("failed to marshal websocket event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.logger.Warn("dropping websocket message, buffer full", zap.String("remote", c.remote))
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
