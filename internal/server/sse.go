package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Advice stream events, in the order a client sees them: loading, then advice
// or error, then complete.
const (
	EventLoading  = "loading"
	EventAdvice   = "advice"
	EventError    = "error"
	EventComplete = "complete"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// SSEWriter frames JSON payloads as numbered Server-Sent Events. It is not
// safe for concurrent use; one handler owns it for the life of a stream.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
}

func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher, nextID: 1}, nil
}

// WriteEvent marshals data and flushes it as one event.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.nextID, event, payload); err != nil {
		return err
	}
	s.nextID++
	s.flusher.Flush()
	return nil
}

func (s *SSEWriter) WriteError(message string) error {
	return s.WriteEvent(EventError, ErrorResponse{Error: message})
}

// WriteComplete ends the stream for sessionID with its final advice status.
func (s *SSEWriter) WriteComplete(sessionID, status string) error {
	return s.WriteEvent(EventComplete, map[string]string{
		"session_id": sessionID,
		"status":     status,
	})
}
