// Package export bundles the evidence photos of an entry group into a zip
// archive.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/panjf2000/ants/v2"

	"github.com/vidall28/trocasequebras/internal/model"
)

// Fetcher retrieves an evidence payload by reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Package is a finished archive ready for delivery.
type Package struct {
	Name     string
	Data     []byte
	Files    []string
	Failures []model.FetchFailure
}

// Engine runs exports. Fetches of all exports share one worker pool.
type Engine struct {
	fetcher Fetcher
	pool    *ants.Pool
	logger  *slog.Logger
}

// NewEngine creates an export engine with workers concurrent fetches.
func NewEngine(fetcher Fetcher, workers int, logger *slog.Logger) (*Engine, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating export pool: %w", err)
	}
	return &Engine{fetcher: fetcher, pool: pool, logger: logger}, nil
}

// Release stops the worker pool.
func (e *Engine) Release() {
	e.logger.Info("shutting down export pool", "running_workers", e.pool.Running())
	e.pool.Release()
}

type job struct {
	item model.EntryItem
	name string
	data []byte
	err  error
}

// Export fetches the evidence of every item that has some and zips it. Items
// whose fetch fails are left out and reported in Package.Failures. When
// nothing can be bundled a *model.EmptyExportWarning is returned instead.
func (e *Engine) Export(ctx context.Context, g *model.EntryGroup) (*Package, error) {
	items := g.EvidenceItems()
	if len(items) == 0 {
		return nil, &model.EmptyExportWarning{GroupID: g.ID}
	}

	jobs := make([]*job, len(items))
	for i, it := range items {
		jobs[i] = &job{item: it, name: FileName(it, i+1)}
	}

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			j.data, j.err = e.fetcher.Fetch(ctx, j.item.Ref)
		})
		if err != nil {
			wg.Done()
			j.err = fmt.Errorf("submitting fetch: %w", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg := &Package{Name: ArchiveName(g)}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, j := range jobs {
		if j.err != nil {
			e.logger.Warn("evidence fetch failed", "group", g.ID, "item", j.item.ID, "ref", j.item.Ref, "error", j.err)
			pkg.Failures = append(pkg.Failures, model.FetchFailure{ItemID: j.item.ID, Ref: j.item.Ref, Err: j.err})
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     j.name,
			Method:   zip.Deflate,
			Modified: g.Date,
		})
		if err != nil {
			return nil, fmt.Errorf("adding %s to archive: %w", j.name, err)
		}
		if _, err := w.Write(j.data); err != nil {
			return nil, fmt.Errorf("writing %s to archive: %w", j.name, err)
		}
		pkg.Files = append(pkg.Files, j.name)
	}

	if len(pkg.Files) == 0 {
		return nil, &model.EmptyExportWarning{GroupID: g.ID, Failures: pkg.Failures}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing archive: %w", err)
	}
	pkg.Data = buf.Bytes()

	e.logger.Info("entry exported", "group", g.ID, "files", len(pkg.Files), "failures", len(pkg.Failures), "bytes", len(pkg.Data))
	return pkg, nil
}

// FileName names the archive entry of an item with evidence; ordinal counts
// only items with evidence, starting at 1.
func FileName(it model.EntryItem, ordinal int) string {
	code := it.ProductCode
	if code == "" {
		code = it.ProductID
	}
	return fmt.Sprintf("%s_%dUN_%d.jpg", code, it.Quantity, ordinal)
}

// ArchiveName is the suggested file name of a group's archive.
func ArchiveName(g *model.EntryGroup) string {
	prefix := g.ID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s_%s.zip", g.Type, prefix)
}
