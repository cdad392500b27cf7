package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidall28/trocasequebras/internal/db"
	"github.com/vidall28/trocasequebras/internal/model"
	"github.com/vidall28/trocasequebras/internal/store"
)

func seed(t *testing.T) *Service {
	t.Helper()
	st := store.NewEntryStore(db.NewTestDB(t))
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2026, 2, d, 8, 0, 0, 0, time.UTC) }

	groups := []model.EntryGroup{
		{ID: "a", OwnerID: "u1", Status: model.StatusDraft, Date: day(1)},
		{ID: "b", OwnerID: "u1", Status: model.StatusPending, Date: day(3)},
		{ID: "c", OwnerID: "u2", Status: model.StatusPending, Date: day(2)},
		{ID: "d", OwnerID: "u2", Status: model.StatusApproved, Date: day(3)},
		{ID: "e", OwnerID: "u3", Status: model.StatusRejected, Date: day(4)},
	}
	for _, g := range groups {
		g.Name = "Loja " + g.ID
		g.Type = model.EntryTypeExchange
		g.Items = []model.EntryItem{{ID: "i", ProductID: "1", Quantity: 1}}
		require.NoError(t, st.Upsert(ctx, &g))
	}
	return NewService(st)
}

func ids(groups []model.EntryGroup) []string {
	out := []string{}
	for _, g := range groups {
		out = append(out, g.ID)
	}
	return out
}

func TestListForOwner(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	got, err := s.ListForOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(got))

	none, err := s.ListForOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestListForApprover(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"e", "b", "d", "c", "a"}},
		{"all", []string{"e", "b", "d", "c", "a"}},
		{"pending", []string{"b", "c"}},
		{"Approved", []string{"d"}},
		{"rejected", []string{"e"}},
		{"draft", []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := s.ListForApprover(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	_, err := s.ListForApprover(ctx, "archived")
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestGetVisibility(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	g, err := s.Get(ctx, model.Actor{ID: "u1", Role: model.RoleUser}, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", g.ID)

	_, err = s.Get(ctx, model.Actor{ID: "u2", Role: model.RoleUser}, "b")
	assert.ErrorIs(t, err, model.ErrForbidden)

	g, err = s.Get(ctx, model.Actor{ID: "m", Role: model.RoleManager}, "b")
	require.NoError(t, err)
	assert.Equal(t, "u1", g.OwnerID)

	_, err = s.Get(ctx, model.Actor{ID: "u1", Role: model.RoleUser}, "zzz")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestQueriesSurfaceCorruption(t *testing.T) {
	database := db.NewTestDB(t)
	_, err := database.Exec(`INSERT INTO entry_groups (id, owner_id, status, data) VALUES ('x', 'u1', 'pending', '{}')`)
	require.NoError(t, err)
	s := NewService(store.NewEntryStore(database))

	_, err = s.ListForApprover(context.Background(), "")
	var corrupted *model.StoreCorruptedError
	assert.ErrorAs(t, err, &corrupted)
}
