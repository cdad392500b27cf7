// Package catalog loads the product catalog from YAML and seeds it into the
// database.
package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vidall28/trocasequebras/internal/model"
	"github.com/vidall28/trocasequebras/internal/store"
)

// File is the on-disk catalog layout.
type File struct {
	Products []model.Product `yaml:"products"`
}

// Parse decodes and checks a catalog document.
func Parse(data []byte) ([]model.Product, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("catalog: payload is empty")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	codes := make(map[string]bool, len(f.Products))
	for i, p := range f.Products {
		switch {
		case p.Name == "":
			return nil, fmt.Errorf("catalog: product %d: name required", i)
		case p.Code == "":
			return nil, fmt.Errorf("catalog: product %d: code required", i)
		case codes[p.Code]:
			return nil, fmt.Errorf("catalog: duplicate code %s", p.Code)
		}
		codes[p.Code] = true
	}
	return f.Products, nil
}

// Load reads a catalog from r.
func Load(r io.Reader) ([]model.Product, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a catalog from path.
func LoadFile(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	products, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return products, nil
}

// Seed upserts products by code and returns how many were written. Existing
// ids are kept, so item snapshots stay resolvable.
func Seed(ctx context.Context, db *sql.DB, products []model.Product, logger *slog.Logger) (int, error) {
	for _, p := range products {
		if _, err := store.UpsertProduct(ctx, db, p); err != nil {
			return 0, err
		}
	}
	logger.Info("catalog seeded", "products", len(products))
	return len(products), nil
}
