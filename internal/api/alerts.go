package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	keepaliveInterval = 15 * time.Second
	retryMillis       = 3000
)

// handleCurrentAlert returns the most recent alert, or 404 when none has
// been emitted yet.
func (a *API) handleCurrentAlert(w http.ResponseWriter, _ *http.Request) {
	alert, ok := a.pub.Current()
	if !ok {
		http.Error(w, `{"error":"no alert"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(alert)
}

// handleCurrentImage streams the most recently rendered buy card.
func (a *API) handleCurrentImage(w http.ResponseWriter, _ *http.Request) {
	image, ok := a.pub.CurrentImage()
	if !ok {
		http.Error(w, `{"error":"no image"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(image)
}

// handleEvents streams alerts to overlay clients via Server-Sent Events.
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch, cancel := a.hub.Subscribe()
	defer cancel()

	streamAlerts(r.Context(), w, flusher, ch)
}

// streamAlerts forwards broadcast payloads as "buy" events and emits comment
// keepalives until the client disconnects or the subscription closes.
func streamAlerts(ctx context.Context, w io.Writer, flusher http.Flusher, ch <-chan []byte) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case payload, open := <-ch:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "event: buy\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
