package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vidall28/trocasequebras/internal/model"
)

// DraftSlots keeps at most one staged, unfinished entry group per owner. It
// is separate from the durable entry store and performs no schema checks
// beyond JSON shape, since staged groups may be partial.
type DraftSlots struct {
	DB *sql.DB
}

// LoadSlot returns the staged group for ownerID, or nil if the slot is empty.
func (s *DraftSlots) LoadSlot(ctx context.Context, ownerID string) (*model.EntryGroup, error) {
	var data string
	err := s.DB.QueryRowContext(ctx,
		`SELECT data FROM draft_slots WHERE owner_id = ?`, ownerID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft slot: %w", err)
	}

	var g model.EntryGroup
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, &model.StoreCorruptedError{ID: g.ID, Reason: "decoding draft slot for owner " + ownerID, Err: err}
	}
	if g.Items == nil {
		g.Items = []model.EntryItem{}
	}
	return &g, nil
}

// SaveSlot overwrites the owner's slot with g.
func (s *DraftSlots) SaveSlot(ctx context.Context, g *model.EntryGroup) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO draft_slots (owner_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (owner_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		g.OwnerID, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving draft slot: %w", err)
	}
	return nil
}

// ClearSlot empties the owner's slot. Clearing an empty slot is not an error.
func (s *DraftSlots) ClearSlot(ctx context.Context, ownerID string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM draft_slots WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("clearing draft slot: %w", err)
	}
	return nil
}
