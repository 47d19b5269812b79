package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// Subscribe handles Server-Sent Events for new message arrivals. Each new
// message is pushed as a "message" event carrying its summary JSON.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := h.store.Subscribe()
	defer h.store.Unsubscribe(ch)

	// Confirm the stream is open before any message arrives
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case summary, ok := <-ch:
			if !ok {
				return
			}
			sendSSE(w, flusher, "message", summary)
		}
	}
}

// sendSSE sends an SSE message to the client
func sendSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling SSE data: %v", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
