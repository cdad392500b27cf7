// Package draft stages one unfinished entry group per owner until it is
// finalized by the lifecycle engine.
package draft

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/vidall28/trocasequebras/internal/model"
)

// SlotStore holds the single staged group of each owner.
type SlotStore interface {
	LoadSlot(ctx context.Context, ownerID string) (*model.EntryGroup, error)
	SaveSlot(ctx context.Context, g *model.EntryGroup) error
	ClearSlot(ctx context.Context, ownerID string) error
}

// Catalog resolves a product id to the snapshot copied into new items. A nil
// product means the id is unknown.
type Catalog interface {
	ResolveProduct(ctx context.Context, id string) (*model.Product, error)
}

// ItemInput is what a submitter provides for a new item.
type ItemInput struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Evidence  *model.Evidence `json:"evidence"`
}

// Session edits staged groups. It never touches the durable entry store.
type Session struct {
	slots   SlotStore
	catalog Catalog
	logger  *slog.Logger
}

// NewSession creates a draft session.
func NewSession(slots SlotStore, catalog Catalog, logger *slog.Logger) *Session {
	return &Session{slots: slots, catalog: catalog, logger: logger}
}

// Load returns the owner's staged group, or nil if nothing is staged.
func (s *Session) Load(ctx context.Context, ownerID string) (*model.EntryGroup, error) {
	if ownerID == "" {
		return nil, model.Invalid("ownerId", "required")
	}
	g, err := s.slots.LoadSlot(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	return g, nil
}

// Save overwrites the owner's slot with g. Partial groups are accepted. A group
// without an id gets one here, so every finalize of the same staged group
// targets the same durable id.
func (s *Session) Save(ctx context.Context, g *model.EntryGroup) error {
	if err := checkShape(g); err != nil {
		return err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	prev, err := s.slots.LoadSlot(ctx, g.OwnerID)
	if err != nil {
		return fmt.Errorf("loading draft: %w", err)
	}
	// A resumed group was finalized before, so its type is fixed.
	if prev != nil && !prev.Date.IsZero() && prev.ID == g.ID && prev.Type != g.Type {
		return model.Invalid("type", "cannot change the type of a finalized entry")
	}

	if err := s.slots.SaveSlot(ctx, g.Clone()); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// AddItem validates in, appends it to a copy of g and stages the copy. On
// failure g and the slot are unchanged.
func (s *Session) AddItem(ctx context.Context, g *model.EntryGroup, in ItemInput) (*model.EntryGroup, error) {
	if err := checkShape(g); err != nil {
		return nil, err
	}
	if in.Quantity < 1 {
		return nil, model.Invalid("quantity", "must be at least 1")
	}
	if !in.Evidence.Present() {
		return nil, model.Invalid("evidence", "a photo is required")
	}
	if in.ProductID == "" {
		return nil, model.Invalid("productId", "required")
	}

	p, err := s.catalog.ResolveProduct(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("resolving product: %w", err)
	}
	if p == nil {
		return nil, model.Invalid("productId", fmt.Sprintf("unknown product %q", in.ProductID))
	}

	ev := *in.Evidence
	next := g.Clone()
	next.Items = append(next.Items, model.EntryItem{
		ID:          uuid.NewString(),
		ProductID:   p.ID,
		ProductName: p.Name,
		ProductCode: p.Code,
		ProductSize: p.Size,
		Quantity:    in.Quantity,
		Evidence:    &ev,
	})

	if err := s.Save(ctx, next); err != nil {
		return nil, err
	}
	s.logger.Debug("draft item added", "owner", next.OwnerID, "product", p.Code, "quantity", in.Quantity)
	return next, nil
}

// RemoveItem drops the item with itemID from a copy of g and stages it. An
// unknown id leaves the items as they were.
func (s *Session) RemoveItem(ctx context.Context, g *model.EntryGroup, itemID string) (*model.EntryGroup, error) {
	if err := checkShape(g); err != nil {
		return nil, err
	}
	next := g.Clone()
	next.Items = slices.DeleteFunc(next.Items, func(it model.EntryItem) bool { return it.ID == itemID })

	if err := s.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Discard clears the owner's slot.
func (s *Session) Discard(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return model.Invalid("ownerId", "required")
	}
	if err := s.slots.ClearSlot(ctx, ownerID); err != nil {
		return fmt.Errorf("discarding draft: %w", err)
	}
	return nil
}

func checkShape(g *model.EntryGroup) error {
	switch {
	case g == nil:
		return model.Invalid("", "draft is nil")
	case g.OwnerID == "":
		return model.Invalid("ownerId", "required")
	case g.Type != "" && !g.Type.Valid():
		return model.Invalid("type", fmt.Sprintf("unknown type %q", g.Type))
	}
	return nil
}
