package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/felo/smtpview/internal/config"
	"github.com/felo/smtpview/internal/store"
	"github.com/felo/smtpview/internal/view"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	store     *store.Store
	cfg       config.Config
	templates *template.Template
	renderer  *view.Renderer
}

// New creates a new Handlers instance. Rendering fetches parts straight from
// the store, not over HTTP.
func New(st *store.Store, cfg config.Config) *Handlers {
	return &Handlers{
		store:    st,
		cfg:      cfg,
		renderer: view.NewRenderer(st),
	}
}

// LoadTemplates loads HTML templates from embedded filesystem
func (h *Handlers) LoadTemplates(embeddedFiles embed.FS) error {
	tmpl, err := template.ParseFS(embeddedFiles,
		"templates/*.html",
		"templates/components/*.html",
	)
	if err != nil {
		return err
	}
	h.templates = tmpl
	return nil
}

// Routes builds the router: a JSON API under /messages plus the HTML pages.
func (h *Handlers) Routes(staticFS fs.FS) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// API
	r.Get("/messages", h.ListMessages)
	r.Get("/messages/{id}", h.GetMessagePart)
	r.Get("/messages/{id}/*", h.GetMessagePart)
	r.Get("/subscribe", h.Subscribe)

	// Pages
	r.Get("/", h.Index)
	r.Get("/view/{id}", h.ViewMessage)
	r.Get("/view/{id}/part", h.ViewPart)
	r.Get("/view/{id}/part/*", h.ViewPart)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	return r
}
