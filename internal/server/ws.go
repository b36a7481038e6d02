package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket runs a chat loop over one connection. Each text frame is a
// customer message; each reply frame carries the answer and the order state.
func (s *Server) handleWebSocket(c *gin.Context) {
	sess, ok := s.getSession(c.Query("session_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		sess.mu.Lock()
		start := time.Now()
		res, turnErr := sess.agent.HandleTurn(c.Request.Context(), string(msg))
		elapsed := time.Since(start)
		sess.mu.Unlock()

		s.observeTurn(res, elapsed, turnErr)

		out := gin.H{
			"reply":  res.Reply,
			"order":  res.Order,
			"events": res.Events,
		}
		if turnErr != nil {
			out["error"] = "generation failed"
		}
		if err := conn.WriteJSON(out); err != nil {
			return
		}
		if res.Quit {
			return
		}
	}
}
