package api

import (
	"net/http"

	"github.com/vidall28/trocasequebras/internal/draft"
	"github.com/vidall28/trocasequebras/internal/entry"
	"github.com/vidall28/trocasequebras/internal/evidence"
	"github.com/vidall28/trocasequebras/internal/model"
)

// DraftHandler edits the caller's staged entry group. Item photos must have
// been uploaded to Evidence.
type DraftHandler struct {
	Drafts   *draft.Session
	Engine   *entry.Engine
	Evidence evidence.Store
}

type putDraftRequest struct {
	Name string          `json:"name"`
	Type model.EntryType `json:"type"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	PhotoURL  string `json:"photoUrl"`
	PhotoMIME string `json:"photoMime"`
	PhotoSize int64  `json:"photoSize"`
}

type finalizeRequest struct {
	Submit bool `json:"submit"`
}

// current returns the caller's staged group, or an empty one.
func (h *DraftHandler) current(r *http.Request) (*model.EntryGroup, error) {
	actor := actorFrom(r)
	g, err := h.Drafts.Load(r.Context(), actor.ID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		g = &model.EntryGroup{OwnerID: actor.ID, OwnerName: actor.Name, Items: []model.EntryItem{}}
	}
	return g, nil
}

// Get handles GET /api/draft.
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, g)
}

// Put handles PUT /api/draft. Only the name and type are taken from the body;
// items change through the item endpoints.
func (h *DraftHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req putDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	g.Name = req.Name
	g.Type = req.Type

	if err := h.Drafts.Save(r.Context(), g); err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, g)
}

// Discard handles DELETE /api/draft.
func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.Drafts.Discard(r.Context(), actorFrom(r).ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /api/draft/items.
func (h *DraftHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.current(r)
	if err != nil {
		writeError(w, err)
		return
	}

	in := draft.ItemInput{ProductID: req.ProductID, Quantity: req.Quantity}
	if req.PhotoURL != "" {
		if !h.Evidence.Owns(req.PhotoURL) {
			jsonError(w, http.StatusBadRequest, "photoUrl must reference an uploaded photo")
			return
		}
		in.Evidence = &model.Evidence{Ref: req.PhotoURL, MIME: req.PhotoMIME, Size: req.PhotoSize}
	}

	next, err := h.Drafts.AddItem(r.Context(), g, in)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, next)
}

// RemoveItem handles DELETE /api/draft/items/{itemId}.
func (h *DraftHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	g, err := h.current(r)
	if err != nil {
		writeError(w, err)
		return
	}

	next, err := h.Drafts.RemoveItem(r.Context(), g, r.PathValue("itemId"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, next)
}

// Finalize handles POST /api/draft/finalize. With submit set the group goes
// straight to pending, otherwise it is kept as a draft.
func (h *DraftHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	actor := actorFrom(r)
	var (
		g   *model.EntryGroup
		err error
	)
	if req.Submit {
		g, err = h.Engine.FinalizeAndSubmit(r.Context(), actor)
	} else {
		g, err = h.Engine.FinalizeAsDraft(r.Context(), actor)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, g)
}
