package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/felo/smtpview/internal/store"
	"github.com/felo/smtpview/internal/view"
)

// ViewMessage displays a single message with its rendered body tree.
func (h *Handlers) ViewMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	msg, err := h.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error loading message %s: %v", id, err)
		http.Error(w, "Failed to load message", http.StatusInternalServerError)
		return
	}

	body, err := h.renderer.Render(r.Context(), id, nil)
	loadFailed := false
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		log.Printf("Error rendering message %s: %v", id, err)
		loadFailed = true
	}

	pageTitle := "Message - smtpview"
	if msg.Subject != "" {
		pageTitle = msg.Subject + " - smtpview"
	}

	var from []string
	for _, m := range msg.From {
		from = append(from, m.String())
	}
	var to []string
	for _, a := range msg.To {
		to = append(to, a.String())
	}

	data := map[string]interface{}{
		"PageTitle":  pageTitle,
		"ID":         msg.ID,
		"Subject":    msg.Subject,
		"From":       strings.Join(from, ", "),
		"To":         strings.Join(to, ", "),
		"Date":       msg.Date.Format("Jan 2, 2006 3:04 PM"),
		"Body":       body,
		"LoadFailed": loadFailed,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "message.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// ViewPart renders one body-tree node as an HTML fragment. The tab strip
// fetches this endpoint when the user switches alternatives; closing the
// connection cancels the fetch.
func (h *Handlers) ViewPart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	path, err := view.ParsePath(chi.URLParam(r, "*"))
	if err != nil {
		http.Error(w, "Invalid part path", http.StatusBadRequest)
		return
	}

	node := view.NewNodeView(h.renderer, id, path)
	done := node.Mount(r.Context())

	select {
	case <-done:
	case <-r.Context().Done():
		node.Unmount()
		return
	}

	html, err := node.Result()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Message part not found", http.StatusNotFound)
			return
		}
		log.Printf("Error rendering part %s%s: %v", id, path, err)
		http.Error(w, "Failed to render message part", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
