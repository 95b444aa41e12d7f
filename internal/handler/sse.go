package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"poppy/internal/templates"
)

// SSEBoard streams the board fragment via Server-Sent Events. The page
// listens for "board" events and swaps the HTML. A board is sent on
// connect, on every publish, and on each tick so relative times advance.
func (h *Handler) SSEBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	changed := h.publisher.Changed()
	h.sendBoardEvent(ctx, w, flusher)

	ticker := time.NewTicker(h.sseTick)
	defer ticker.Stop()

	for {
		select {
		case <-changed:
			changed = h.publisher.Changed()
			h.sendBoardEvent(ctx, w, flusher)
		case <-ticker.C:
			h.sendBoardEvent(ctx, w, flusher)
		case <-ctx.Done():
			return
		}
	}
}

// sendBoardEvent renders the current board and sends it as an SSE event.
func (h *Handler) sendBoardEvent(ctx context.Context, w http.ResponseWriter, flusher http.Flusher) {
	var buf bytes.Buffer
	var err error
	if b := h.publisher.Current(); b != nil {
		err = templates.BoardFragment(b, h.now()).Render(ctx, &buf)
	} else {
		err = templates.LoadingFragment().Render(ctx, &buf)
	}
	if err != nil {
		h.logger.Error("rendering SSE board", "error", err)
		return
	}

	// SSE format: event name, then data lines (each line prefixed with "data: ")
	fmt.Fprintf(w, "event: board\n")
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprintf(w, "\n")
	flusher.Flush()
}
