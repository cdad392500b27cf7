package store

import (
	"context"
	"testing"

	"github.com/vidall28/trocasequebras/internal/db"
	"github.com/vidall28/trocasequebras/internal/model"
)

func TestCreateAndGetProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p, err := CreateProduct(ctx, database, model.Product{Name: "Skol", Code: "SKL350ML", Size: "350ML"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected generated id")
	}

	got, _ := GetProduct(ctx, database, p.ID)
	if got == nil || got.Code != "SKL350ML" {
		t.Errorf("expected SKL350ML, got %+v", got)
	}

	missing, err := GetProduct(ctx, database, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing product, got %v, %v", missing, err)
	}
}

func TestProductCodeUnique(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateProduct(ctx, database, model.Product{Name: "Skol", Code: "SKL350ML"})
	if _, err := CreateProduct(ctx, database, model.Product{Name: "Other", Code: "SKL350ML"}); err == nil {
		t.Error("expected error for duplicate code")
	}
}

func TestUpsertProductKeepsID(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, _ := UpsertProduct(ctx, database, model.Product{ID: "1", Name: "Skol", Code: "SKL350ML", Size: "350ML"})
	second, err := UpsertProduct(ctx, database, model.Product{ID: "99", Name: "Skol Pilsen", Code: "SKL350ML", Size: "350ML"})
	if err != nil {
		t.Fatalf("UpsertProduct: %v", err)
	}
	if second.ID != first.ID || second.Name != "Skol Pilsen" {
		t.Errorf("expected id %s renamed, got %+v", first.ID, second)
	}

	all, _ := ListProducts(ctx, database)
	if len(all) != 1 {
		t.Errorf("expected 1 product, got %d", len(all))
	}
}

func TestCatalogResolveProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	CreateProduct(ctx, database, model.Product{ID: "2", Name: "Itaipava", Code: "ITA350ML", Size: "350ML"})

	c := &Catalog{DB: database}
	p, err := c.ResolveProduct(ctx, "2")
	if err != nil || p == nil || p.Name != "Itaipava" {
		t.Errorf("expected Itaipava, got %+v, %v", p, err)
	}
	p, _ = c.ResolveProduct(ctx, "3")
	if p != nil {
		t.Errorf("expected unresolved product, got %+v", p)
	}
}
