// Package query serves read-only views of entry groups for submitters and
// approvers. Every call reads through the store.
package query

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vidall28/trocasequebras/internal/model"
)

// FilterAll selects every status.
const FilterAll = "all"

// Store is the read side of the entry store.
type Store interface {
	GetByID(ctx context.Context, id string) (*model.EntryGroup, error)
	GetAll(ctx context.Context) ([]model.EntryGroup, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.EntryGroup, error)
	ListByStatus(ctx context.Context, status model.EntryStatus) ([]model.EntryGroup, error)
}

// Service answers entry queries.
type Service struct {
	store Store
}

// NewService creates a query service over store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListForOwner returns the owner's groups, newest first.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]model.EntryGroup, error) {
	if ownerID == "" {
		return nil, model.Invalid("ownerId", "required")
	}
	groups, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing entries for owner: %w", err)
	}
	return sortNewest(groups), nil
}

// ListForApprover returns the groups matching filter, newest first. An empty
// filter or "all" matches every status.
func (s *Service) ListForApprover(ctx context.Context, filter string) ([]model.EntryGroup, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))

	var groups []model.EntryGroup
	var err error
	switch {
	case filter == "" || filter == FilterAll:
		groups, err = s.store.GetAll(ctx)
	case model.EntryStatus(filter).Valid():
		groups, err = s.store.ListByStatus(ctx, model.EntryStatus(filter))
	default:
		return nil, model.Invalid("status", fmt.Sprintf("unknown filter %q", filter))
	}
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return sortNewest(groups), nil
}

// Get returns one group if actor owns it or may approve it.
func (s *Service) Get(ctx context.Context, actor model.Actor, id string) (*model.EntryGroup, error) {
	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	if g == nil {
		return nil, model.ErrNotFound
	}
	if g.OwnerID != actor.ID && !actor.CanApprove() {
		return nil, model.ErrForbidden
	}
	return g, nil
}

func sortNewest(groups []model.EntryGroup) []model.EntryGroup {
	if groups == nil {
		return []model.EntryGroup{}
	}
	slices.SortStableFunc(groups, func(a, b model.EntryGroup) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return groups
}
