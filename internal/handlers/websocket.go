package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rtchat/server/internal/chat"
	ws "rtchat/server/internal/websocket"
)

// WebSocketHandler upgrades authenticated requests into live sessions.
type WebSocketHandler struct {
	Hub    *ws.Hub
	Router *ws.Router
	Log    *zap.Logger
}

// Upgrade checks that the request is a websocket upgrade.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"error": "WebSocket upgrade required",
	})
}

// Handle runs one live session. A connection without an authenticated
// identity is closed immediately: no group join, no envelope processed.
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	userID, okID := c.Locals("userID").(string)
	username, okName := c.Locals("username").(string)
	if !okID || !okName || userID == "" || username == "" {
		h.Log.Warn("unauthenticated websocket attempt closed")
		c.Close()
		return
	}

	client := ws.NewClient(chat.Viewer{ID: userID, Username: username}, c, h.Hub, h.Router, h.Log)

	go client.WritePump()
	client.ReadPump() // blocks until the connection closes
}

// Stats reports live session counts, for debugging.
func (h *WebSocketHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sessions": h.Hub.SessionCount(),
	})
}
