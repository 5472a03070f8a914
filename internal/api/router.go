// Package api assembles the registry's HTTP surface.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lendingregistry/internal/catalog"
	"lendingregistry/internal/circulation"
	"lendingregistry/internal/membership"
	"lendingregistry/internal/respond"
)

// Options tunes the router middleware.
type Options struct {
	Logger            *slog.Logger
	RequestsPerSecond float64
	Burst             int
}

// NewRouter routes every registry operation to svc.
func NewRouter(svc circulation.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	items := catalog.NewHandler(svc)
	members := membership.NewHandler(svc)
	loans := circulation.NewHandler(svc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(RateLimit(opts.RequestsPerSecond, opts.Burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/items", func(r chi.Router) {
		r.Post("/", items.HandleAddItem)
		r.Get("/", items.HandleListItems)
		r.Get("/{itemID}", items.HandleGetItem)
	})

	r.Route("/members", func(r chi.Router) {
		r.Post("/", members.HandleAddMember)
		r.Get("/", members.HandleListMembers)
		r.Get("/{memberID}", members.HandleGetMember)
		r.Get("/{memberID}/items", members.HandleBorrowedItems)
		r.Post("/{memberID}/authenticate", members.HandleAuthenticate)
	})

	r.Post("/borrow", loans.HandleBorrow)
	r.Post("/return", loans.HandleReturn)
	r.Get("/summary", loans.HandleSummary)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, http.StatusNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
