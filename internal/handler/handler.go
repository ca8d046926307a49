// Package handler serves the product views over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/product-showcase/internal/domain/product"
	"github.com/xenking/product-showcase/internal/loader"
	"github.com/xenking/product-showcase/internal/view"
)

// SelectFunc is invoked when a product card is selected.
type SelectFunc func(ctx context.Context, id int)

// LogSelect is the default SelectFunc. It only logs the selection.
func LogSelect(ctx context.Context, id int) {
	zctx.From(ctx).Info("Product clicked", zap.Int("product_id", id))
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	DefaultProductID int
	DefaultLimit     int
	MaxLimit         int
	// SkeletonDelay is how long an HTML view waits for the load to settle
	// before streaming the loading skeleton. Zero streams it immediately.
	SkeletonDelay time.Duration
	// APITimeout bounds how long JSON endpoints wait for settlement. Zero
	// waits for the request context only.
	APITimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultProductID < 1 {
		c.DefaultProductID = loader.DefaultProductID
	}
	if c.DefaultLimit < 1 {
		c.DefaultLimit = loader.DefaultLimit
	}
	if c.MaxLimit < 1 {
		c.MaxLimit = 100
	}
	return c
}

// Options holds optional dependencies.
type Options struct {
	OnSelect SelectFunc
	Metrics  *loader.Metrics
}

// Handler renders detail and collection views backed by a product.Repository.
type Handler struct {
	repo     product.Repository
	view     *view.Renderer
	cfg      Config
	onSelect SelectFunc
	metrics  *loader.Metrics
}

// New constructs a Handler.
func New(repo product.Repository, renderer *view.Renderer, cfg Config, opts Options) *Handler {
	onSelect := opts.OnSelect
	if onSelect == nil {
		onSelect = LogSelect
	}
	return &Handler{
		repo:     repo,
		view:     renderer,
		cfg:      cfg.withDefaults(),
		onSelect: onSelect,
		metrics:  opts.Metrics,
	}
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.Index)
	r.Get(view.DefaultPlaceholderPath, h.Placeholder)
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)
		r.Post("/{id}/select", h.SelectProduct)
	})
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProductsState)
		r.Get("/{id}", h.GetProductState)
	})
}

func (h *Handler) newDetail(ctx context.Context) *loader.Detail {
	return loader.NewDetail(h.repo, loader.Options[*product.Record]{
		Logger:  zctx.From(ctx),
		Metrics: h.metrics,
	})
}

func (h *Handler) newCollection(ctx context.Context) *loader.Collection {
	return loader.NewCollection(h.repo, loader.Options[[]product.Record]{
		Logger:  zctx.From(ctx),
		Metrics: h.metrics,
	})
}

// Placeholder serves the fallback image for broken product images.
func (h *Handler) Placeholder(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(view.PlaceholderSVG())
}
