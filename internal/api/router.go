package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/holotome/htconv/internal/ledger"
)

// NewRouter creates a chi router with the read-only ledger routes mounted.
func NewRouter(db *ledger.DB, topRoot string) chi.Router {
	h := NewHandler(db, topRoot)

	r := chi.NewRouter()
	r.Get("/conversions", h.ListConversions)
	r.Get("/conversions/failures", h.ListFailures)
	r.Get("/conversions/document", h.GetDocument)
	return r
}
