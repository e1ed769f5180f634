package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/migrate"
	"github.com/starford/ansuz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, mgr *migrate.Manager, source migrate.NoteSource, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, mgr, source)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)

	// Search.
	r.Get("/search", h.Search)

	// Link graph.
	r.Get("/links/*", h.GetLinks)
	r.Get("/backlinks/*", h.GetBacklinks)
	r.Get("/broken-links", h.BrokenLinks)
	r.Get("/link-search", h.SearchLinks)
	r.Get("/link-report", h.LinkReport)
	r.Post("/validate-links", h.ValidateLinks)

	// Suggestions and auto-linking.
	r.Get("/suggestions", h.Suggest)
	r.Post("/autolink", h.AutoLink)

	// Schema migrations.
	r.Get("/migrations", h.MigrationInfo)
	r.Post("/migrations", h.RunMigration)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
