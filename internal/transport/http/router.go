package http

import (
	"net/http"

	"github.com/rs/cors"

	"blindtest-service/internal/app"
)

// NewRouter assembles the REST and websocket surfaces. CORS is wide open,
// matching the kiosk-style deployment (TV display and phones on a LAN).
func NewRouter(service *app.Service) http.Handler {
	handler := NewHandler(service)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/quizzes", handler.CreateQuiz)
	mux.HandleFunc("GET /api/quizzes", handler.ListQuizzes)
	mux.HandleFunc("GET /api/quizzes/{quiz_id}", handler.GetQuiz)

	mux.HandleFunc("POST /api/games/create", handler.CreateGame)
	mux.HandleFunc("POST /api/games/{game_id}/join", handler.JoinGame)
	mux.HandleFunc("POST /api/games/{game_id}/start", handler.StartGame)
	mux.HandleFunc("POST /api/games/{game_id}/answer", handler.SubmitAnswer)
	mux.HandleFunc("POST /api/games/{game_id}/abort", handler.AbortGame)

	mux.HandleFunc("GET /ws/{game_id}/{client_id}", wsHandler.ServeWS)

	return cors.AllowAll().Handler(mux)
}
