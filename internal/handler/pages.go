package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/product-showcase/internal/domain/loadstate"
	"github.com/xenking/product-showcase/internal/domain/product"
	"github.com/xenking/product-showcase/internal/loader"
	"github.com/xenking/product-showcase/internal/view"
)

// Index renders the landing page with the default product.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderDetail(w, r, view.Page{
		Title:      "Product Detail Demo",
		Heading:    "Product Detail Demo",
		Subheading: "Product component with live catalog data",
	}, h.cfg.DefaultProductID)
}

// GetProduct renders the detail view for the {id} path parameter.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	page := view.Page{Title: "Product"}
	id, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		h.badRequest(w, r, page, view.ErrorHeadingProduct, err)
		return
	}
	page.Title = "Product " + strconv.Itoa(id)
	h.renderDetail(w, r, page, id)
}

// ListProducts renders the collection view, sized by the limit query.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page := view.Page{Title: "Products", Heading: "Products"}
	limit, err := parseLimit(r.URL.Query().Get("limit"), h.cfg.DefaultLimit, h.cfg.MaxLimit)
	if err != nil {
		h.badRequest(w, r, page, view.ErrorHeadingProducts, err)
		return
	}

	ld := h.newCollection(r.Context())
	defer ld.Close()
	ld.Load(r.Context(), limit)

	opts := view.CollectionOptions{Limit: limit, ReturnTo: r.URL.RequestURI()}
	stream(h, w, r, page, ld,
		func(w io.Writer) error { return h.view.CollectionSkeleton(w, limit) },
		func(w io.Writer, s loadstate.State[[]product.Record]) error { return h.view.Collection(w, s, opts) },
	)
}

// SelectProduct reports a card selection and redirects back.
func (h *Handler) SelectProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.onSelect(r.Context(), id)
	http.Redirect(w, r, returnPath(r.PostFormValue("return")), http.StatusSeeOther)
}

// returnPath accepts only local absolute paths.
func returnPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/products"
	}
	return p
}

func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, page view.Page, id int) {
	ld := h.newDetail(r.Context())
	defer ld.Close()
	ld.Load(r.Context(), id)

	stream(h, w, r, page, ld, h.view.DetailSkeleton, h.view.Detail)
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, page view.Page, heading string, cause error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	if err := h.writePage(w, page, func(w io.Writer) error {
		return h.view.Error(w, heading, cause.Error())
	}); err != nil {
		zctx.From(r.Context()).Warn("Render failed", zap.Error(err))
	}
}

func (h *Handler) writePage(w io.Writer, page view.Page, body func(io.Writer) error) error {
	if err := h.view.Head(w, page); err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	return h.view.Foot(w)
}

// stream writes the page head, then the settled panel. When the loader does
// not settle within SkeletonDelay the skeleton is flushed first and hidden by
// a trailing stylesheet once the panel follows.
func stream[T any](
	h *Handler,
	w http.ResponseWriter,
	r *http.Request,
	page view.Page,
	ld *loader.Loader[int, T],
	skeleton func(io.Writer) error,
	panel func(io.Writer, loadstate.State[T]) error,
) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := h.writePage(w, page, func(out io.Writer) error {
		st, err := waitFor(ctx, ld, h.cfg.SkeletonDelay)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), "wait")
			}
			if err := h.view.Pending(out, skeleton); err != nil {
				return err
			}
			if err := http.NewResponseController(w).Flush(); err != nil {
				lg.Debug("Flush not supported", zap.Error(err))
			}
			if st, err = ld.Wait(ctx); err != nil {
				return errors.Wrap(err, "wait")
			}
			if err := h.view.Settled(out); err != nil {
				return err
			}
		}
		return panel(out, st)
	})
	if err != nil {
		lg.Warn("Render failed", zap.Error(err))
	}
}

// waitFor waits up to d for ld to settle. It returns a non-nil error when the
// load is still pending.
func waitFor[T any](ctx context.Context, ld *loader.Loader[int, T], d time.Duration) (loadstate.State[T], error) {
	if d <= 0 {
		if st := ld.State(); st.Settled() {
			return st, nil
		}
		return ld.State(), context.DeadlineExceeded
	}
	waitCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return ld.Wait(waitCtx)
}
