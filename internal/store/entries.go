package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vidall28/trocasequebras/internal/model"
)

// EntryStore is the durable mapping from entry group id to entry group.
// Every write to a given id goes through that id's lock, so at most one
// writer touches a group at a time; reads are not locked.
type EntryStore struct {
	db    *sql.DB
	locks *keyedMutex
}

// NewEntryStore creates an entry store backed by db.
func NewEntryStore(db *sql.DB) *EntryStore {
	return &EntryStore{db: db, locks: newKeyedMutex()}
}

// Upsert writes or overwrites a group by id. The group must satisfy the same
// schema the read path enforces.
func (s *EntryStore) Upsert(ctx context.Context, g *model.EntryGroup) error {
	if err := validateGroup(g); err != nil {
		return err
	}
	unlock := s.locks.Lock(g.ID)
	defer unlock()
	return s.write(ctx, g)
}

// Insert writes a group that must not be durable yet. If the id is already
// stored, nothing is written and an *model.InvalidTransitionError carrying the
// stored status is returned.
func (s *EntryStore) Insert(ctx context.Context, g *model.EntryGroup) error {
	if err := validateGroup(g); err != nil {
		return err
	}
	unlock := s.locks.Lock(g.ID)
	defer unlock()

	existing, err := s.GetByID(ctx, g.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return &model.InvalidTransitionError{GroupID: g.ID, From: existing.Status, Event: "finalize"}
	}

	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encoding entry group: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entry_groups (id, owner_id, status, data, updated_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		g.ID, g.OwnerID, string(g.Status), string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting entry group: %w", err)
	}
	return nil
}

// write stores g; callers hold the id lock.
func (s *EntryStore) write(ctx context.Context, g *model.EntryGroup) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encoding entry group: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entry_groups (id, owner_id, status, data, updated_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (id) DO UPDATE SET owner_id = excluded.owner_id, status = excluded.status,
		     data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		g.ID, g.OwnerID, string(g.Status), string(data),
	)
	if err != nil {
		return fmt.Errorf("writing entry group: %w", err)
	}
	return nil
}

// GetByID returns a group by id, or nil if it does not exist.
func (s *EntryStore) GetByID(ctx context.Context, id string) (*model.EntryGroup, error) {
	var rowID, status, data string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, data FROM entry_groups WHERE id = ?`, id,
	).Scan(&rowID, &status, &data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &model.StoreCorruptedError{ID: id, Reason: "reading row", Err: err}
	}
	return decodeGroup(rowID, status, data)
}

// GetAll returns every durable group. Any malformed row fails the whole read.
func (s *EntryStore) GetAll(ctx context.Context) ([]model.EntryGroup, error) {
	return s.list(ctx, `SELECT id, status, data FROM entry_groups ORDER BY id`)
}

// ListByOwner returns the groups submitted by ownerID.
func (s *EntryStore) ListByOwner(ctx context.Context, ownerID string) ([]model.EntryGroup, error) {
	return s.list(ctx, `SELECT id, status, data FROM entry_groups WHERE owner_id = ? ORDER BY id`, ownerID)
}

// ListByStatus returns the groups currently in status.
func (s *EntryStore) ListByStatus(ctx context.Context, status model.EntryStatus) ([]model.EntryGroup, error) {
	return s.list(ctx, `SELECT id, status, data FROM entry_groups WHERE status = ? ORDER BY id`, string(status))
}

func (s *EntryStore) list(ctx context.Context, query string, args ...any) ([]model.EntryGroup, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &model.StoreCorruptedError{Reason: "querying entry groups", Err: err}
	}
	defer rows.Close()

	var groups []model.EntryGroup
	for rows.Next() {
		var id, status, data string
		if err := rows.Scan(&id, &status, &data); err != nil {
			return nil, &model.StoreCorruptedError{Reason: "scanning entry group", Err: err}
		}
		g, err := decodeGroup(id, status, data)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreCorruptedError{Reason: "iterating entry groups", Err: err}
	}
	return groups, nil
}

// Remove deletes a group. Removing a missing id returns model.ErrNotFound.
func (s *EntryStore) Remove(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.remove(ctx, id)
}

func (s *EntryStore) remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM entry_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing entry group: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("removing entry group: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Update reads the group under its id lock, lets fn mutate a copy and writes
// the result back. If fn fails nothing is written and its error is returned.
func (s *EntryStore) Update(ctx context.Context, id string, fn func(g *model.EntryGroup) error) (*model.EntryGroup, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.ErrNotFound
	}

	if err := fn(g); err != nil {
		return nil, err
	}
	if g.ID != id {
		return nil, model.Invalid("id", "cannot be changed by an update")
	}
	if err := validateGroup(g); err != nil {
		return nil, err
	}
	if err := s.write(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Take reads the group under its id lock and hands it to fn. If fn succeeds
// the group is removed from the store before the lock is released.
func (s *EntryStore) Take(ctx context.Context, id string, fn func(g *model.EntryGroup) error) (*model.EntryGroup, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.ErrNotFound
	}

	if err := fn(g.Clone()); err != nil {
		return nil, err
	}
	if err := s.remove(ctx, id); err != nil {
		return nil, err
	}
	return g, nil
}

// groupRecord is the persisted JSON shape. Older records carry the owner as
// userId/userName; they are read but never written.
type groupRecord struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      model.EntryType   `json:"type"`
	Items     []model.EntryItem `json:"items"`
	Date      time.Time         `json:"date"`
	Status    model.EntryStatus `json:"status"`
	OwnerID   string            `json:"ownerId"`
	OwnerName string            `json:"ownerName"`
	UserID    string            `json:"userId"`
	UserName  string            `json:"userName"`
}

func decodeGroup(rowID, rowStatus, data string) (*model.EntryGroup, error) {
	var rec groupRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, &model.StoreCorruptedError{ID: rowID, Reason: "decoding entry group", Err: err}
	}

	g := &model.EntryGroup{
		ID:        rec.ID,
		Name:      rec.Name,
		Type:      rec.Type,
		Items:     rec.Items,
		Date:      rec.Date,
		Status:    rec.Status,
		OwnerID:   rec.OwnerID,
		OwnerName: rec.OwnerName,
	}
	if g.OwnerID == "" {
		g.OwnerID = rec.UserID
	}
	if g.OwnerName == "" {
		g.OwnerName = rec.UserName
	}
	if g.Items == nil {
		g.Items = []model.EntryItem{}
	}

	if g.ID != rowID {
		return nil, &model.StoreCorruptedError{ID: rowID, Reason: fmt.Sprintf("document id %q does not match key", g.ID)}
	}
	if string(g.Status) != rowStatus {
		return nil, &model.StoreCorruptedError{ID: rowID, Reason: fmt.Sprintf("document status %q does not match indexed status %q", g.Status, rowStatus)}
	}
	if err := validateGroup(g); err != nil {
		return nil, &model.StoreCorruptedError{ID: rowID, Reason: err.Error()}
	}
	return g, nil
}

// validateGroup checks the schema of a durable group.
func validateGroup(g *model.EntryGroup) error {
	switch {
	case g == nil:
		return model.Invalid("", "entry group is nil")
	case g.ID == "":
		return model.Invalid("id", "required")
	case g.Name == "":
		return model.Invalid("name", "required")
	case !g.Type.Valid():
		return model.Invalid("type", fmt.Sprintf("unknown type %q", g.Type))
	case !g.Status.Valid():
		return model.Invalid("status", fmt.Sprintf("unknown status %q", g.Status))
	case g.OwnerID == "":
		return model.Invalid("ownerId", "required")
	case g.Date.IsZero():
		return model.Invalid("date", "required")
	case len(g.Items) == 0:
		return model.Invalid("items", "at least one item required")
	}
	for i, it := range g.Items {
		switch {
		case it.ID == "":
			return model.Invalid(fmt.Sprintf("items[%d].id", i), "required")
		case it.ProductID == "":
			return model.Invalid(fmt.Sprintf("items[%d].productId", i), "required")
		case it.Quantity < 1:
			return model.Invalid(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
	}
	return nil
}
