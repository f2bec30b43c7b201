package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TonyXvr/DigitGuesser/internal/chat"
	"github.com/TonyXvr/DigitGuesser/internal/metrics"
)

type chatReq struct {
	Messages []chat.Message `json:"messages"`
}

type chatRes struct {
	Message chat.Message `json:"message"`
}

func (s *Server) mountChat(r chi.Router) {
	limit := s.limiter.Middleware("chat", s.cfg.RateLimit.ChatPerWindow, s.cfg.RateLimit.Window, nil)
	r.With(limit).Post("/chat", s.handleChat)
}

// handleChat forwards the conversation to the hint assistant.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatReq
	if err := decodeJSON(w, r, &body); err != nil {
		metrics.ChatRequests.WithLabelValues("bad_request").Inc()
		writeError(w, r, err)
		return
	}
	reply, err := s.chat.Complete(r.Context(), body.Messages)
	if err != nil {
		metrics.ChatRequests.WithLabelValues(chatStatus(err)).Inc()
		writeError(w, r, err)
		return
	}
	metrics.ChatRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, chatRes{Message: reply})
}

func chatStatus(err error) string {
	switch {
	case errors.Is(err, chat.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, chat.ErrNoMessages):
		return "bad_request"
	}
	return "upstream_error"
}
