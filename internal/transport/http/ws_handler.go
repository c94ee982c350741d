package http

import (
	"log"
	"net/http"

	"quizboard-service/internal/app"
	"quizboard-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler streams leaderboard snapshots for one quiz to connected viewers.
// Delivery is best effort; the core never waits on a client.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string           `json:"type"`
	QuizID  string           `json:"quizId"`
	Payload []domain.Attempt `json:"payload"`
}

// ServeWS upgrades the request and pushes a leaderboard snapshot on connect
// plus one message per recorded attempt until the client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	initial, err := h.service.TopAttempts(r.Context(), quizID, 0)
	if err != nil {
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Broadcaster().Subscribe(quizID)
	defer cancel()

	if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", QuizID: quizID, Payload: initial}); err != nil {
		return
	}

	// Reader goroutine only detects disconnects; clients send nothing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", QuizID: quizID, Payload: snapshot}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
