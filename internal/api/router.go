package api

import (
	"database/sql"
	"net/http"

	"github.com/vidall28/trocasequebras/internal/auth"
	"github.com/vidall28/trocasequebras/internal/draft"
	"github.com/vidall28/trocasequebras/internal/entry"
	"github.com/vidall28/trocasequebras/internal/evidence"
	"github.com/vidall28/trocasequebras/internal/export"
	"github.com/vidall28/trocasequebras/internal/model"
	"github.com/vidall28/trocasequebras/internal/query"
)

// Deps are the services the API exposes.
type Deps struct {
	DB               *sql.DB
	Issuer           *auth.Issuer
	Drafts           *draft.Session
	Engine           *entry.Engine
	Queries          *query.Service
	Exports          *export.Engine
	Evidence         evidence.Store
	EvidenceGetter   evidence.Getter
	EvidenceMaxBytes int64
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, Issuer: d.Issuer}
	usersHandler := &UsersHandler{DB: d.DB}
	productsHandler := &ProductsHandler{DB: d.DB}
	evidenceHandler := &EvidenceHandler{
		Store:    d.Evidence,
		Getter:   d.EvidenceGetter,
		MaxBytes: d.EvidenceMaxBytes,
		Drafts:   d.Drafts,
		Queries:  d.Queries,
	}
	draftHandler := &DraftHandler{Drafts: d.Drafts, Engine: d.Engine, Evidence: d.Evidence}
	entriesHandler := &EntriesHandler{Engine: d.Engine, Queries: d.Queries, Exports: d.Exports}

	authMW := AuthMiddleware(d.Issuer, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Session.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))

	// Catalog: read (all roles), write (admin).
	mux.Handle("GET /api/products", authMW(http.HandlerFunc(productsHandler.List)))
	mux.Handle("GET /api/products/{id}", authMW(http.HandlerFunc(productsHandler.Get)))
	mux.Handle("POST /api/products", authMW(requireAdmin(http.HandlerFunc(productsHandler.Create))))

	// Evidence.
	mux.Handle("POST /api/evidence", authMW(http.HandlerFunc(evidenceHandler.Upload)))
	mux.Handle("GET /api/evidence", authMW(http.HandlerFunc(evidenceHandler.Get)))

	// Draft of the calling user.
	mux.Handle("GET /api/draft", authMW(http.HandlerFunc(draftHandler.Get)))
	mux.Handle("PUT /api/draft", authMW(http.HandlerFunc(draftHandler.Put)))
	mux.Handle("DELETE /api/draft", authMW(http.HandlerFunc(draftHandler.Discard)))
	mux.Handle("POST /api/draft/items", authMW(http.HandlerFunc(draftHandler.AddItem)))
	mux.Handle("DELETE /api/draft/items/{itemId}", authMW(http.HandlerFunc(draftHandler.RemoveItem)))
	mux.Handle("POST /api/draft/finalize", authMW(http.HandlerFunc(draftHandler.Finalize)))

	// Entries: own entries for everyone, all entries and decisions for manager+.
	mux.Handle("GET /api/entries", authMW(http.HandlerFunc(entriesHandler.List)))
	mux.Handle("GET /api/entries/{id}", authMW(http.HandlerFunc(entriesHandler.Get)))
	mux.Handle("POST /api/entries/{id}/resume", authMW(http.HandlerFunc(entriesHandler.Resume)))
	mux.Handle("POST /api/entries/{id}/approve", authMW(requireManager(http.HandlerFunc(entriesHandler.Approve))))
	mux.Handle("POST /api/entries/{id}/reject", authMW(requireManager(http.HandlerFunc(entriesHandler.Reject))))
	mux.Handle("GET /api/entries/{id}/export", authMW(http.HandlerFunc(entriesHandler.Export)))

	return mux
}
