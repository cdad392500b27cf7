package api

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/vidall28/trocasequebras/internal/draft"
	"github.com/vidall28/trocasequebras/internal/evidence"
	"github.com/vidall28/trocasequebras/internal/model"
	"github.com/vidall28/trocasequebras/internal/query"
)

// EvidenceHandler accepts photo uploads and serves the photos of entries the
// caller can see.
type EvidenceHandler struct {
	Store    evidence.Store
	Getter   evidence.Getter
	MaxBytes int64
	Drafts   *draft.Session
	Queries  *query.Service
}

// Upload handles POST /api/evidence with a multipart "photo" field.
func (h *EvidenceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Allow room for the multipart envelope around the photo.
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+64<<10)

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "photo too large or invalid form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	data, mime, err := evidence.Read(file, h.MaxBytes)
	if err != nil {
		writeError(w, err)
		return
	}

	ev, err := h.Store.Put(r.Context(), data, mime)
	if err != nil {
		slog.Error("failed to store evidence", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	slog.Info("evidence uploaded", "user", GetClaims(r.Context()).Name, "ref", ev.Ref, "mime", ev.MIME, "size", ev.Size)
	jsonResponse(w, http.StatusCreated, ev)
}

// Get handles GET /api/evidence?ref=... The ref must belong to the caller's
// draft or to an entry group the caller may view.
func (h *EvidenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		jsonError(w, http.StatusBadRequest, "ref required")
		return
	}

	ok, err := h.visible(r, ref)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "photo not found")
		return
	}

	data, _, err := h.Getter.Get(r.Context(), ref)
	switch {
	case errors.Is(err, evidence.ErrNotFound):
		jsonError(w, http.StatusNotFound, "photo not found")
		return
	case errors.Is(err, evidence.ErrUnknownScheme), errors.Is(err, evidence.ErrHostNotAllowed):
		jsonError(w, http.StatusBadRequest, "unsupported photo reference")
		return
	case err != nil:
		slog.Error("failed to load evidence", "ref", ref, "error", err)
		jsonError(w, http.StatusBadGateway, "failed to load photo")
		return
	}

	mime := http.DetectContentType(data)
	if !evidence.AllowedMIME[mime] {
		slog.Warn("stored evidence is not a photo", "ref", ref, "mime", mime)
		jsonError(w, http.StatusUnsupportedMediaType, "stored payload is not a photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// visible reports whether ref is a photo in the caller's draft or in a group
// the caller can list.
func (h *EvidenceHandler) visible(r *http.Request, ref string) (bool, error) {
	actor := actorFrom(r)

	staged, err := h.Drafts.Load(r.Context(), actor.ID)
	if err != nil {
		return false, err
	}
	if staged != nil && hasRef(*staged, ref) {
		return true, nil
	}

	var groups []model.EntryGroup
	if actor.CanApprove() {
		groups, err = h.Queries.ListForApprover(r.Context(), query.FilterAll)
	} else {
		groups, err = h.Queries.ListForOwner(r.Context(), actor.ID)
	}
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(groups, func(g model.EntryGroup) bool { return hasRef(g, ref) }), nil
}

func hasRef(g model.EntryGroup, ref string) bool {
	return slices.ContainsFunc(g.Items, func(it model.EntryItem) bool { return it.HasEvidence() && it.Ref == ref })
}
