package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"rtchat/server/internal/chat"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second

	sendBufferSize = 256
)

// Client is one live session: an authenticated websocket connection bound
// to a user. Envelopes are processed strictly in arrival order by the read
// pump; outbound frames are drained by the write pump.
type Client struct {
	Viewer chat.Viewer
	Conn   *websocket.Conn
	Hub    *Hub
	Router *Router
	Send   chan []byte

	log       *zap.Logger
	closeOnce sync.Once
}

func NewClient(viewer chat.Viewer, conn *websocket.Conn, hub *Hub, router *Router, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		Viewer: viewer,
		Conn:   conn,
		Hub:    hub,
		Router: router,
		Send:   make(chan []byte, sendBufferSize),
		log:    log,
	}
}

// closeSend closes the send channel exactly once. Called by the hub under
// its write lock.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// ReadPump joins the user's group, then processes inbound envelopes until
// the connection drops. It blocks the caller; the group is left
// unconditionally on the way out.
func (c *Client) ReadPump() {
	c.Hub.Join(c.Viewer.Username, c)
	defer func() {
		c.Hub.Leave(c.Viewer.Username, c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error",
					zap.String("user", c.Viewer.Username), zap.Error(err))
			}
			break
		}
		c.handleFrame(frame)
	}
}

// handleFrame parses and dispatches one envelope. A malformed frame fails
// this receive only; the connection stays open for the next one.
func (c *Client) handleFrame(frame []byte) {
	var in Inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		c.log.Debug("malformed envelope dropped",
			zap.String("user", c.Viewer.Username), zap.Error(err))
		return
	}
	c.Router.Dispatch(context.Background(), c.Viewer, in)
}

// WritePump drains the send channel to the connection and keeps it alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Warn("websocket write error",
					zap.String("user", c.Viewer.Username), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
