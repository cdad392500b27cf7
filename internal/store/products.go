package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vidall28/trocasequebras/internal/model"
)

// CreateProduct adds a product to the catalog. An empty id is generated.
func CreateProduct(ctx context.Context, db *sql.DB, p model.Product) (*model.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO products (id, name, code, size) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Code, p.Size,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return GetProduct(ctx, db, p.ID)
}

// UpsertProduct creates the product or refreshes name and size for its code.
func UpsertProduct(ctx context.Context, db *sql.DB, p model.Product) (*model.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO products (id, name, code, size) VALUES (?, ?, ?, ?)
		 ON CONFLICT (code) DO UPDATE SET name = excluded.name, size = excluded.size`,
		p.ID, p.Name, p.Code, p.Size,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting product %s: %w", p.Code, err)
	}
	return GetProductByCode(ctx, db, p.Code)
}

// GetProduct returns a product by ID, or nil if it does not exist.
func GetProduct(ctx context.Context, db *sql.DB, id string) (*model.Product, error) {
	return scanProduct(db.QueryRowContext(ctx,
		`SELECT id, name, code, size, created_at FROM products WHERE id = ?`, id,
	))
}

// GetProductByCode returns a product by its catalog code, or nil.
func GetProductByCode(ctx context.Context, db *sql.DB, code string) (*model.Product, error) {
	return scanProduct(db.QueryRowContext(ctx,
		`SELECT id, name, code, size, created_at FROM products WHERE code = ?`, code,
	))
}

func scanProduct(row *sql.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Size, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// ListProducts returns the catalog ordered by name and code.
func ListProducts(ctx context.Context, db *sql.DB) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, code, size, created_at FROM products ORDER BY name, code`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.Size, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Catalog resolves products for the draft session.
type Catalog struct {
	DB *sql.DB
}

// ResolveProduct returns the product snapshot for id, or nil when unknown.
func (c *Catalog) ResolveProduct(ctx context.Context, id string) (*model.Product, error) {
	return GetProduct(ctx, c.DB, id)
}
