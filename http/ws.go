package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/ViniZap4/tonote-server/auth"
)

const socketUserKey = "ws.user_id"

// upgrade hands authenticated websocket requests on to the socket handler.
func (s *Server) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals(socketUserKey, auth.CurrentUser(c).ID)
	return c.Next()
}

func (s *Server) serveSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals(socketUserKey).(string)
	if userID == "" {
		conn.Close()
		return
	}
	s.hub.Serve(userID, conn)
}
