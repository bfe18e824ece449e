package connect

import (
	"encoding/json"
	"io"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deathscreen/internal/domain/message"
)

const (
	// MessagePath accepts host messages as plain JSON, the way NUI posts them.
	MessagePath = "/nui/message"
	// FramePath serves the latest frame as JSON.
	FramePath = "/overlay/frame"

	maxMessageBytes = 64 << 10
)

// NewNUIHandler returns the plain JSON endpoints of the overlay.
func NewNUIHandler(svc *OverlayService) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(MessagePath, svc.handleMessage)
	mux.HandleFunc(FramePath, svc.handleFrame)
	return mux
}

func (s *OverlayService) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	msg, err := message.ParseJSON(data)
	if err != nil {
		zlog.Debug().Err(err).Msg("connect: rejected nui message")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.apply(r.Context(), msg); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *OverlayService) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	frame, ok := s.frames.Latest()
	if !ok {
		http.Error(w, "no frame rendered yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Debug().Err(err).Msg("connect: failed to write response")
	}
}
