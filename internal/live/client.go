package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client pumps messages between one websocket connection and its session.
type Client struct {
	conn    *websocket.Conn
	session *Session
	send    chan []byte
	log     *slog.Logger
}

func NewClient(conn *websocket.Conn, session *Session, log *slog.Logger) *Client {
	return &Client{
		conn:    conn,
		session: session,
		send:    make(chan []byte, sendBuffer),
		log:     log.With("session", session.ID, "user", session.UserID),
	}
}

// ReadPump decodes incoming messages and queues them on the session until the
// connection closes or ctx is cancelled.
func (c *Client) ReadPump(ctx context.Context) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			c.log.Debug("read error", "error", err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("invalid message", "error", err)
			c.session.sendError("", "invalid message")
			continue
		}

		if err := c.session.Enqueue(ctx, &msg); err != nil {
			return
		}
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.log.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg for writing. Messages are dropped when the buffer is full.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("client send buffer full, dropping message", "type", msg.Type)
	}
}
