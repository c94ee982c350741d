// Package http exposes the service over REST plus a websocket feed for live
// leaderboards. Routing, auth, and wire formats live here; the core never
// sees them.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"

	"quizboard-service/internal/app"
	"quizboard-service/internal/domain"
	"quizboard-service/internal/validation"
)

// Handler wires the quiz use cases into HTTP routes.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Routes builds the service mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/quizzes", h.listQuizzes)
	mux.HandleFunc("POST /api/quizzes", h.createQuiz)
	mux.HandleFunc("GET /api/quizzes/search", h.searchQuizzes)
	mux.HandleFunc("GET /api/quizzes/{id}", h.getQuiz)
	mux.HandleFunc("PATCH /api/quizzes/{id}", h.updateQuiz)
	mux.HandleFunc("DELETE /api/quizzes/{id}", h.deleteQuiz)
	mux.HandleFunc("POST /api/quizzes/{id}/check-answers", h.checkAnswers)

	mux.HandleFunc("GET /api/leaderboard/popular/quizzes", h.popularQuizzes)
	mux.HandleFunc("GET /api/leaderboard/user/{userId}/stats", h.userStats)
	mux.HandleFunc("GET /api/leaderboard/{quizId}", h.quizLeaderboard)
	mux.HandleFunc("POST /api/leaderboard/{quizId}", h.recordAttempt)

	ws := NewWSHandler(h.service)
	mux.HandleFunc("GET /ws", ws.ServeWS)
	return mux
}

// userID returns the authenticated identity asserted by the caller. The
// service trusts the gateway in front of it; there is no auth here.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	var quiz domain.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	created, err := h.service.CreateQuiz(r.Context(), uid, quiz)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	var quiz domain.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updated, err := h.service.UpdateQuiz(r.Context(), uid, r.PathValue("id"), quiz)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	if err := h.service.DeleteQuiz(r.Context(), uid, r.PathValue("id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) searchQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.SearchQuizzes(r.Context(), r.URL.Query().Get("pattern"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

type checkAnswersRequest struct {
	Answers   map[string][]string `json:"answers"`
	TimeSpent int                 `json:"timeSpent"`
}

func (h *Handler) checkAnswers(w http.ResponseWriter, r *http.Request) {
	var req checkAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := h.service.CheckAnswers(r.Context(), r.PathValue("id"), req.Answers, req.TimeSpent)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type recordAttemptRequest struct {
	Score     int `json:"score"`
	MaxScore  int `json:"maxScore"`
	TimeSpent int `json:"timeSpent"`
}

func (h *Handler) recordAttempt(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	var req recordAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	attempt, err := h.service.RecordAttempt(r.Context(), uid, r.PathValue("quizId"),
		req.Score, req.MaxScore, req.TimeSpent, clientAddr(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

func (h *Handler) quizLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 0)
	attempts, err := h.service.TopAttempts(r.Context(), r.PathValue("quizId"), limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *Handler) userStats(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("userId")
	rank, err := h.service.RankStatsForUser(r.Context(), uid)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	activity, err := h.service.ActivityStatsForUser(r.Context(), uid)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ranking":  rank,
		"activity": activity,
	})
}

func (h *Handler) popularQuizzes(w http.ResponseWriter, r *http.Request) {
	popular, err := h.service.PopularQuizzes(r.Context(), intQuery(r, "limit", 0))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, popular)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	if verrs, ok := validation.AsErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Validation Error",
			"message": "Invalid input data",
			"details": verrs,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeError(w, http.StatusNotFound, "Quiz not found")
	case errors.Is(err, domain.ErrNotOwner):
		writeError(w, http.StatusForbidden, "You do not have permission to modify this quiz")
	case errors.Is(err, domain.ErrScoreOutOfRange), errors.Is(err, domain.ErrTimeSpentOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
