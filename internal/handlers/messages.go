package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/felo/smtpview/internal/store"
	"github.com/felo/smtpview/internal/view"
)

// ListMessages returns every stored message summary as JSON, in arrival
// order.
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List()
	if err != nil {
		log.Printf("Error listing messages: %v", err)
		http.Error(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		log.Printf("Error encoding message list: %v", err)
	}
}

// GetMessagePart resolves one body-tree node. The response carries either a
// JSON multipart descriptor or the leaf payload under its own content type;
// it never includes descendants.
func (h *Handlers) GetMessagePart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	path, err := view.ParsePath(chi.URLParam(r, "*"))
	if err != nil {
		http.Error(w, "Invalid part path", http.StatusBadRequest)
		return
	}

	part, err := h.store.FetchPart(r.Context(), id, path)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Message part not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error resolving part %s%s: %v", id, path, err)
		http.Error(w, "Failed to resolve message part", http.StatusInternalServerError)
		return
	}

	if part.Multipart != nil {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(part.Multipart); err != nil {
			log.Printf("Error encoding multipart descriptor: %v", err)
		}
		return
	}

	contentType := part.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	} else if isText(contentType) {
		// Text payloads were decoded to UTF-8 during parsing
		contentType += "; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(part.Data)
}

func isText(contentType string) bool {
	return len(contentType) >= 5 && contentType[:5] == "text/"
}
