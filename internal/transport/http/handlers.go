package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"blindtest-service/internal/app"
	"blindtest-service/internal/domain"
)

// Handler serves the REST boundary of the core and the quiz collaborator.
type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

type joinGameRequest struct {
	PlayerName string `json:"player_name"`
}

type submitAnswerRequest struct {
	PlayerID  string  `json:"player_id"`
	Answer    string  `json:"answer"`
	TimeTaken float64 `json:"time_taken"`
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req app.CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"quiz_id":         quiz.ID,
		"title":           quiz.Title,
		"questions_count": len(quiz.Questions),
	})
}

func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.QuizSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), r.PathValue("quiz_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quiz_id")
	if quizID == "" {
		writeError(w, domain.ErrValidation)
		return
	}
	session, err := h.service.CreateGame(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id": session.ID(),
		"quiz_id": session.QuizID(),
		"state":   session.State(),
	})
}

func (h *Handler) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	gameID := r.PathValue("game_id")
	player, err := h.service.JoinGame(gameID, req.PlayerName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player_id": player.ID,
		"game_id":   gameID,
	})
}

func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	if err := h.service.StartGame(r.PathValue("game_id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	answer, err := h.service.SubmitAnswer(r.PathValue("game_id"), req.PlayerID, req.Answer, req.TimeTaken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_correct": answer.Correct})
}

func (h *Handler) AbortGame(w http.ResponseWriter, r *http.Request) {
	if err := h.service.AbortGame(r.PathValue("game_id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "aborted"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("response encode failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Rejected
// operations leave session state untouched, so every outcome here is
// reportable rather than fatal.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrPlayerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrGameFinished):
		status = http.StatusGone
	case errors.Is(err, domain.ErrGameFull),
		errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrNoActiveRound),
		errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRegistryFull):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
