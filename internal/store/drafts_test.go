package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidall28/trocasequebras/internal/db"
	"github.com/vidall28/trocasequebras/internal/model"
)

func TestDraftSlots(t *testing.T) {
	slots := &DraftSlots{DB: db.NewTestDB(t)}
	ctx := context.Background()

	empty, err := slots.LoadSlot(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, empty)

	partial := &model.EntryGroup{OwnerID: "u1", Type: model.EntryTypeExchange, Items: []model.EntryItem{}}
	require.NoError(t, slots.SaveSlot(ctx, partial))

	got, err := slots.LoadSlot(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, partial, got)

	partial.Name = "Loja Sul"
	require.NoError(t, slots.SaveSlot(ctx, partial))
	got, _ = slots.LoadSlot(ctx, "u1")
	assert.Equal(t, "Loja Sul", got.Name)

	other, _ := slots.LoadSlot(ctx, "u2")
	assert.Nil(t, other)

	require.NoError(t, slots.ClearSlot(ctx, "u1"))
	require.NoError(t, slots.ClearSlot(ctx, "u1"))
	got, _ = slots.LoadSlot(ctx, "u1")
	assert.Nil(t, got)
}

func TestEvidenceBlobs(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, PutEvidence(ctx, database, "k1", []byte{0xff, 0xd8}, "image/jpeg"))
	data, mime, err := GetEvidence(ctx, database, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data)
	assert.Equal(t, "image/jpeg", mime)

	data, _, err = GetEvidence(ctx, database, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)
}
