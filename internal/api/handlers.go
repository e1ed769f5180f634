package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/migrate"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/suggest"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *noteservice.Service
	mgr    *migrate.Manager
	source migrate.NoteSource
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service, mgr *migrate.Manager, source migrate.NoteSource) *Handler {
	return &Handler{svc: svc, mgr: mgr, source: source}
}

// noteID extracts the note identifier from the URL wildcard. Identifiers
// contain a slash ("type/filename") and may arrive percent-encoded.
func noteID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	notes, total, err := h.svc.ListNotes(r.Context(), q.Get("type"), limit, offset)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: total})
}

// GetNote handles GET /api/notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note id is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Type == "" || req.Filename == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("type, filename, and content are required"))
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Type, req.Filename, []byte(req.Content))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("note already exists"))
		} else {
			slog.Error("create note failed", slog.String("filename", req.Filename), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/*. The request must carry the
// fingerprint the caller last saw; a stale fingerprint yields 409 with both
// fingerprints in the body.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := noteID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note id is required"))
		return
	}
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	note, err := h.svc.UpdateNote(r.Context(), id, []byte(req.Content), req.Fingerprint)
	if err != nil {
		var conflict *apperr.ContentConflictError
		switch {
		case errors.Is(err, apperr.ErrMissingFingerprint):
			writeJSON(w, http.StatusBadRequest, errorBody("fingerprint is required"))
		case errors.As(err, &conflict):
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":    "content conflict",
				"current":  conflict.Current,
				"supplied": conflict.Supplied,
			})
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			slog.Error("update note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/*.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note id is required"))
		return
	}
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, r.URL.Query().Get("type"), limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// GetLinks handles GET /api/links/*.
func (h *Handler) GetLinks(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note id is required"))
		return
	}
	links, external, err := h.svc.GetLinks(r.Context(), id)
	if err != nil {
		h.writeLinkError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, LinksResponse{Links: links, ExternalLinks: external})
}

// GetBacklinks handles GET /api/backlinks/*.
func (h *Handler) GetBacklinks(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note id is required"))
		return
	}
	backlinks, err := h.svc.GetBacklinks(r.Context(), id)
	if err != nil {
		h.writeLinkError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: backlinks})
}

// BrokenLinks handles GET /api/broken-links.
func (h *Handler) BrokenLinks(w http.ResponseWriter, r *http.Request) {
	broken, err := h.svc.FindBrokenLinks(r.Context())
	if err != nil {
		slog.Error("broken links failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, BrokenLinksResponse{Broken: broken})
}

// SearchLinks handles GET /api/link-search. Criteria are mutually exclusive;
// the first non-empty one wins.
func (h *Handler) SearchLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := index.LinkCriteria{
		LinksTo:        q.Get("links_to"),
		LinkedFrom:     q.Get("linked_from"),
		ExternalDomain: q.Get("domain"),
		BrokenOnly:     q.Get("broken") == "true",
	}
	result, err := h.svc.SearchLinks(r.Context(), criteria)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ValidateLinks handles POST /api/validate-links.
func (h *Handler) ValidateLinks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	links, err := h.svc.ValidateWikilinks(r.Context(), req.Content)
	if err != nil {
		slog.Error("validate links failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Links: links})
}

// LinkReport handles GET /api/link-report.
func (h *Handler) LinkReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.GenerateLinkReport(r.Context())
	if err != nil {
		slog.Error("link report failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Suggest handles GET /api/suggestions.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("target")
	display := q.Get("display")
	if target == "" && display == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("target or display is required"))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	suggestions, err := h.svc.Suggest(r.Context(), target, display, q.Get("type"), q.Get("context"), limit)
	if err != nil {
		slog.Error("suggest failed", slog.String("target", target), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

// AutoLink handles POST /api/autolink.
func (h *Handler) AutoLink(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req AutoLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	result, err := h.svc.AutoLink(r.Context(), req.Content, suggest.AutoLinkOptions{
		NoteType:       req.Type,
		Aggressiveness: suggest.Aggressiveness(req.Aggressiveness),
		Context:        req.Context,
		SourceID:       req.SourceID,
	})
	if err != nil {
		slog.Error("autolink failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MigrationInfo handles GET /api/migrations.
func (h *Handler) MigrationInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.mgr.Info()
	if err != nil {
		slog.Error("migration info failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// RunMigration handles POST /api/migrations. With a version in the body the
// named migration is forced; otherwise pending migrations run.
func (h *Handler) RunMigration(w http.ResponseWriter, r *http.Request) {
	var req MigrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var result *migrate.Result
	var err error
	if req.Version != "" {
		result, err = h.mgr.RunSpecificMigration(req.Version, h.source)
	} else {
		current, verErr := h.mgr.CurrentVersion()
		if verErr != nil {
			slog.Error("migration failed", slog.String("error", verErr.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		result, err = h.mgr.CheckAndMigrate(current, h.source)
	}
	if err != nil {
		var notFound *apperr.MigrationNotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusNotFound, errorBody(notFound.Error()))
			return
		}
		slog.Error("migration failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("migration failed"))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeLinkError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error("link query failed", slog.String("id", id), slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}
