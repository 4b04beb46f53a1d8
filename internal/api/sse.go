package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/novamind-ai/novamind-api/internal/apperr"
	"github.com/novamind-ai/novamind-api/internal/core"
)

// sseWriter turns chat frames into server-sent events on one persistent
// connection, flushing after every frame so the relay stays pass-through.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, apperr.New(apperr.KindInternal, "streaming is not supported by this connection")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) Emit(frame core.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", frame.Type, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
