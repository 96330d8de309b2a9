package server

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// upgrade resolves the session before the handshake so that unknown ids
// get a plain 404.
func (s *Server) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return err
	}
	c.Locals("session", sess)
	return c.Next()
}

// streamView sends every changed frame of the session as JSON and applies
// the commands the client sends back.
func (s *Server) streamView(conn *websocket.Conn) {
	sess := conn.Locals("session").(*Session)
	frames, cancel := sess.Stream.Subscribe()
	defer cancel()

	s.logger.Info("Websocket", "Client connected", map[string]interface{}{"session": sess.ID})
	defer s.logger.Info("Websocket", "Client disconnected", map[string]interface{}{"session": sess.ID})

	replies := make(chan []byte, 8)
	done := make(chan struct{})
	go s.readCommands(conn, sess, replies, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-frames:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case reply := <-replies:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

type wsReply struct {
	Command string `json:"command,omitempty"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) readCommands(conn *websocket.Conn, sess *Session, replies chan<- []byte, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		s.sessions.Touch(sess.ID)
		return nil
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Websocket", "Read failed", map[string]interface{}{"session": sess.ID, "error": err.Error()})
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		data, _ := json.Marshal(s.applyMessage(sess, msg))
		select {
		case replies <- data:
		default:
		}
	}
}

// applyMessage runs one client command. Every message counts as activity
// and keeps the session alive.
func (s *Server) applyMessage(sess *Session, msg []byte) wsReply {
	s.sessions.Touch(sess.ID)

	var req CommandRequest
	reply := wsReply{}
	if err := json.Unmarshal(msg, &req); err != nil {
		reply.Error = err.Error()
	} else if err := ValidateRequest(req); err != nil {
		reply.Command, reply.Error = req.Command, err.Error()
	} else {
		reply.Command, reply.Applied = req.Command, Apply(sess.Viewer, req)
	}
	return reply
}
