package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/vidall28/trocasequebras/internal/model"
	"github.com/vidall28/trocasequebras/internal/store"
)

// ProductsHandler handles catalog endpoints.
type ProductsHandler struct {
	DB *sql.DB
}

type createProductRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Size string `json:"size"`
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := store.ListProducts(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list products", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// Get handles GET /api/products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := store.GetProduct(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get product", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Code == "" {
		jsonError(w, http.StatusBadRequest, "name and code required")
		return
	}

	p, err := store.CreateProduct(r.Context(), h.DB, model.Product{Name: req.Name, Code: req.Code, Size: req.Size})
	if err != nil {
		jsonError(w, http.StatusConflict, "product code already exists")
		return
	}

	slog.Info("product created", "user", GetClaims(r.Context()).Name, "code", p.Code)
	jsonResponse(w, http.StatusCreated, p)
}
