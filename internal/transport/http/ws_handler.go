package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"blindtest-service/internal/app"
	"blindtest-service/internal/protocol"
)

// WSHandler wires persistent bidirectional channels into the game core. A
// client connects as /ws/{game_id}/{client_id}; player clients use their
// player id, while passive roles (the TV display, the operator) use a
// reserved id that never maps to a player.
type WSHandler struct {
	service  *app.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.Service) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and pumps the game's message feed to the
// client while answering liveness pings.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("game_id")
	clientID := r.PathValue("client_id")
	if gameID == "" || clientID == "" {
		http.Error(w, "missing game_id or client_id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	feed, err := h.service.Connect(gameID, clientID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"type": "error", "message": err.Error()})
		return
	}
	defer h.service.Disconnect(gameID, clientID, feed)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range feed {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("game_id", gameID).Str("client_id", clientID).Msg("ws write error")
				return
			}
		}
		// Feed closed by the registry (eviction or replacement): tell the
		// client we are done.
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game closed"))
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var inbound protocol.Inbound
		if err := json.Unmarshal(raw, &inbound); err != nil {
			// Malformed inbound data has no session-state effect.
			continue
		}
		if inbound.Type == protocol.InboundPing {
			h.service.Pong(gameID, clientID)
		}
	}

	h.service.Disconnect(gameID, clientID, feed)
	<-writerDone
}
