package api

import (
	"context"
	"net/http"

	"github.com/alexivanou/cityweather/internal/latest"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SuggestSocket handles GET /api/v1/suggest/ws. Every message is a keystroke;
// only the answer for the latest keystroke of the connection is sent back.
func (h *Handler) SuggestSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade suggestion socket", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// writes only happen under the gate, which also keeps them serialized
	var gate latest.Gate
	defer gate.Advance()

	for {
		var req model.SuggestRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("Suggestion socket closed", zap.Error(err))
			}
			return
		}

		seq := gate.Next()
		go func(seq uint64, query string) {
			names := h.service.Suggest(ctx, query)
			err := gate.Apply(seq, func() {
				if err := conn.WriteJSON(model.SuggestResponse{Seq: seq, Query: query, Suggestions: names}); err != nil {
					h.logger.Debug("Failed to write suggestions", zap.Error(err))
				}
			})
			if err != nil {
				h.logger.Debug("Discarded stale suggestions", zap.String("query", query), zap.Uint64("seq", seq))
				if h.onStaleSuggestions != nil {
					h.onStaleSuggestions()
				}
			}
		}(seq, req.Query)
	}
}
