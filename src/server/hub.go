package server

import (
	"net/http"

	"prop-backend/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main Hub loop: it owns the client set, so register,
// unregister and broadcast are serialized here. Returns when the server's
// done channel closes.
func (s *WebServer) runHub() {
	for {
		select {
		case <-s.done:
			// Closing the send channels makes every writePump emit a
			// close frame and return
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			// Send the current packet for the client's login on connect
			if client.login != "" {
				if pkt, ok := s.State.Latest(client.login); ok {
					client.send <- pkt
				}
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}

		case pkt := <-s.broadcast:
			for client := range s.clients {
				if !client.wants(pkt.Login) {
					continue
				}
				select {
				case client.send <- pkt:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues a freshly ingested packet for the live feed. Never
// blocks ingestion: when the queue is full the packet is dropped from the
// feed (the telemetry table already holds it).
func (s *WebServer) Broadcast(pkt models.MTelemetryPacket) {
	select {
	case s.broadcast <- pkt:
	default:
		s.Logger.Warning("Live feed queue full, dropping packet for login %s", pkt.Login)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

// handleWebSocket upgrades a session-guarded request into a live feed for
// the user's bound login. Admin sessions receive every packet.
func (s *WebServer) handleWebSocket(c *gin.Context) {
	username := c.GetString("username")

	login := ""
	if acc, ok := s.State.Account(username); ok {
		login = acc.LoginMT
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:   s,
		conn:  conn,
		login: login,
		admin: username == s.Config.AdminUser,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan models.MTelemetryPacket, 64),
	}

	select {
	case s.register <- client:
	case <-s.done:
		// Hub already stopped, nobody will serve this feed
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}
