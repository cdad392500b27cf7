package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/vidall28/trocasequebras/internal/entry"
	"github.com/vidall28/trocasequebras/internal/export"
	"github.com/vidall28/trocasequebras/internal/model"
	"github.com/vidall28/trocasequebras/internal/query"
)

// EntriesHandler serves finalized entry groups.
type EntriesHandler struct {
	Engine  *entry.Engine
	Queries *query.Service
	Exports *export.Engine
}

// List handles GET /api/entries. Approvers see every group, optionally
// filtered by ?status=; ?mine=true narrows to their own. Everyone else only
// sees their own groups.
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	q := r.URL.Query()

	var (
		groups []model.EntryGroup
		err    error
	)
	if actor.CanApprove() && q.Get("mine") != "true" {
		groups, err = h.Queries.ListForApprover(r.Context(), q.Get("status"))
	} else {
		groups, err = h.Queries.ListForOwner(r.Context(), actor.ID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, groups)
}

// Get handles GET /api/entries/{id}.
func (h *EntriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.Queries.Get(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, g)
}

// Resume handles POST /api/entries/{id}/resume. The draft group moves back
// into the caller's staging slot.
func (h *EntriesHandler) Resume(w http.ResponseWriter, r *http.Request) {
	g, err := h.Engine.ResumeEditing(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, g)
}

// Approve handles POST /api/entries/{id}/approve.
func (h *EntriesHandler) Approve(w http.ResponseWriter, r *http.Request) {
	g, err := h.Engine.Approve(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, g)
}

// Reject handles POST /api/entries/{id}/reject.
func (h *EntriesHandler) Reject(w http.ResponseWriter, r *http.Request) {
	g, err := h.Engine.Reject(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, g)
}

// Export handles GET /api/entries/{id}/export and streams the zip archive.
// Items left out because their photo could not be fetched are counted in
// the X-Export-Failures header.
func (h *EntriesHandler) Export(w http.ResponseWriter, r *http.Request) {
	g, err := h.Queries.Get(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	pkg, err := h.Exports.Export(r.Context(), g)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pkg.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(pkg.Data)))
	w.Header().Set("X-Export-Failures", strconv.Itoa(len(pkg.Failures)))
	w.WriteHeader(http.StatusOK)
	w.Write(pkg.Data)
}
