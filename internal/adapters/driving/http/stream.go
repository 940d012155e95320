package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// sseWriter frames stream events as server-sent events.
// Headers are committed on the first event so that failures before any
// output can still be reported with a status code.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
	done    bool
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}

// send writes one event as a single data frame
func (s *sseWriter) send(ev domain.StreamEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := s.frame("", payload); err != nil {
		return err
	}
	if ev.Type == domain.EventDone {
		s.done = true
	}
	return nil
}

// fail reports an error inside an already started stream and closes it
// with a fallback done event unless one was already sent
func (s *sseWriter) fail(message string) error {
	payload, _ := json.Marshal(ErrorResponse{Error: message})
	if err := s.frame("error", payload); err != nil {
		return err
	}
	if s.done {
		return nil
	}
	return s.send(domain.DoneEvent(domain.DoneMetadata{Fallback: true}))
}

func (s *sseWriter) frame(event string, payload []byte) error {
	s.start()
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleChatStream answers a question as an event stream.
// A client disconnect cancels the request context, which releases the turn.
// @Summary      Answer a question
// @Description  Waits for the inference turn, then streams status, token, sites and done events
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        request  body      domain.ChatRequest  true  "Question and history"
// @Success      200      {object}  domain.StreamEvent
// @Failure      400      {object}  ErrorResponse  "Missing query"
// @Failure      409      {object}  ErrorResponse  "Session ended"
// @Router       /chat/stream [post]
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var req domain.ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	req.Token = GetAuthContext(r.Context()).SessionToken

	sse := &sseWriter{w: w, flusher: flusher}
	err := s.chatService.Stream(r.Context(), req, sse.send)
	if err == nil {
		return
	}

	if r.Context().Err() != nil {
		s.logger.Debug("chat stream abandoned by client")
		return
	}
	s.logger.Warn("chat stream failed", "error", err)
	if !sse.started {
		writeError(w, statusFor(err), streamErrorMessage(err))
		return
	}
	_ = sse.fail(streamErrorMessage(err))
}

func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotConnected):
		return "session ended"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	default:
		return "answer failed"
	}
}
