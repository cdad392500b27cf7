package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidall28/trocasequebras/internal/model"
)

type mapFetcher struct {
	payloads map[string][]byte
	delay    time.Duration
	calls    atomic.Int32
}

func (f *mapFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	data, ok := f.payloads[ref]
	if !ok {
		return nil, errors.New("no such evidence")
	}
	return data, nil
}

func newTestEngine(t *testing.T, f Fetcher) *Engine {
	t.Helper()
	e, err := NewEngine(f, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(e.Release)
	return e
}

func group() *model.EntryGroup {
	return &model.EntryGroup{
		ID:   "3f9a1c2e-7b41-4c55-9d0e-1a2b3c4d5e6f",
		Name: "Loja Centro",
		Type: model.EntryTypeBreakage,
		Date: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		Items: []model.EntryItem{
			{ID: "i1", ProductID: "1", ProductCode: "SKL350ML", Quantity: 2, Evidence: &model.Evidence{Ref: "db:one"}},
			{ID: "i2", ProductID: "5", ProductCode: "BRA600ML", Quantity: 4},
			{ID: "i3", ProductID: "2", ProductCode: "ITA350ML", Quantity: 1, Evidence: &model.Evidence{Ref: "db:two"}},
		},
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(b)
	}
	return out
}

func TestExportNamesByEvidenceOrdinal(t *testing.T) {
	f := &mapFetcher{payloads: map[string][]byte{"db:one": []byte("first"), "db:two": []byte("second")}}
	e := newTestEngine(t, f)

	pkg, err := e.Export(context.Background(), group())
	require.NoError(t, err)
	assert.Equal(t, "breakage_3f9a1c2e.zip", pkg.Name)
	assert.Equal(t, []string{"SKL350ML_2UN_1.jpg", "ITA350ML_1UN_2.jpg"}, pkg.Files)
	assert.Empty(t, pkg.Failures)

	files := readZip(t, pkg.Data)
	assert.Equal(t, map[string]string{
		"SKL350ML_2UN_1.jpg": "first",
		"ITA350ML_1UN_2.jpg": "second",
	}, files)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestExportOmitsFailedFetches(t *testing.T) {
	f := &mapFetcher{payloads: map[string][]byte{"db:two": []byte("second")}}
	e := newTestEngine(t, f)

	pkg, err := e.Export(context.Background(), group())
	require.NoError(t, err)
	assert.Equal(t, []string{"ITA350ML_1UN_2.jpg"}, pkg.Files)
	require.Len(t, pkg.Failures, 1)
	assert.Equal(t, "i1", pkg.Failures[0].ItemID)
	assert.Equal(t, "db:one", pkg.Failures[0].Ref)
	assert.Len(t, readZip(t, pkg.Data), 1)
}

func TestExportWithoutEvidence(t *testing.T) {
	f := &mapFetcher{}
	e := newTestEngine(t, f)
	g := group()
	for i := range g.Items {
		g.Items[i].Evidence = nil
	}

	pkg, err := e.Export(context.Background(), g)
	assert.Nil(t, pkg)
	var warn *model.EmptyExportWarning
	require.ErrorAs(t, err, &warn)
	assert.Equal(t, g.ID, warn.GroupID)
	assert.Empty(t, warn.Failures)
	assert.Zero(t, f.calls.Load())
}

func TestExportAllFetchesFail(t *testing.T) {
	e := newTestEngine(t, &mapFetcher{})

	pkg, err := e.Export(context.Background(), group())
	assert.Nil(t, pkg)
	var warn *model.EmptyExportWarning
	require.ErrorAs(t, err, &warn)
	assert.Len(t, warn.Failures, 2)
}

func TestExportCancelled(t *testing.T) {
	f := &mapFetcher{
		payloads: map[string][]byte{"db:one": []byte("a"), "db:two": []byte("b")},
		delay:    time.Second,
	}
	e := newTestEngine(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	pkg, err := e.Export(ctx, group())
	assert.Nil(t, pkg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArchiveNameShortID(t *testing.T) {
	g := &model.EntryGroup{ID: "abc", Type: model.EntryTypeExchange}
	assert.Equal(t, "exchange_abc.zip", ArchiveName(g))
}

func TestFileNameFallsBackToProductID(t *testing.T) {
	it := model.EntryItem{ProductID: "7", Quantity: 3}
	assert.Equal(t, "7_3UN_1.jpg", FileName(it, 1))
}
