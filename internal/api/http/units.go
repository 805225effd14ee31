package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/coursekit/coursekit/internal/definition"
	"github.com/coursekit/coursekit/internal/rbac"
	"github.com/coursekit/coursekit/internal/selfassess"
	"github.com/coursekit/coursekit/internal/storage"
)

// UploadUnitHandler accepts a <selfassessment> definition document,
// validates it and publishes the unit. The raw XML is archived in blob
// storage. Definition errors surface here, to the author, with a 400.
//
// POST /units?id=...&title=...  (body: definition XML)
func UploadUnitHandler(store selfassess.Store, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		title := strings.TrimSpace(r.URL.Query().Get("title"))
		if title == "" {
			title = id
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		cfg, err := definition.Parse(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		u := selfassess.Unit{ID: id, Title: title, Config: cfg}
		if err := store.PutUnit(r.Context(), u); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if blobs != nil {
			if _, err := blobs.Put("units/"+id+".xml", bytes.NewReader(body)); err != nil {
				http.Error(w, "archive definition: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

// GET /units?limit=50&offset=0
func ListUnitsHandler(store selfassess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		units, err := store.ListUnits(r.Context(), limit, offset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, units)
	}
}

// GetUnitViewHandler renders the caller's view bundle for a unit:
// prompt, previous answer, section directives and progress. A first
// visit creates the workflow in its initial state.
//
// GET /units/{unitID}
func GetUnitViewHandler(store selfassess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID := chi.URLParam(r, "unitID")
		sub := rbac.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := store.GetUnit(r.Context(), unitID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, selfassess.ErrUnitNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		wf, err := store.GetOrCreateWorkflow(r.Context(), unitID, sub)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		engine := selfassess.NewEngine(u.Config, nil)
		writeJSON(w, http.StatusOK, engine.ViewBundle(wf))
	}
}
