package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/product-showcase/internal/domain/loadstate"
	"github.com/xenking/product-showcase/internal/wire"
)

// GetProductState answers with the settled detail state as JSON.
func (h *Handler) GetProductState(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ld := h.newDetail(r.Context())
	defer ld.Close()
	ld.Load(r.Context(), id)

	ctx, cancel := h.apiContext(r.Context())
	defer cancel()
	st, err := ld.Wait(ctx)

	status := http.StatusOK
	switch {
	case err != nil:
		status = http.StatusGatewayTimeout
	case st.Kind() == loadstate.Failed:
		status = http.StatusBadGateway
	case wire.DetailStateName(st) == wire.StateNotFound:
		status = http.StatusNotFound
	}

	var e jx.Encoder
	wire.EncodeDetail(&e, st)
	writeJSON(w, r, status, &e)
}

// ListProductsState answers with the settled collection state as JSON.
func (h *Handler) ListProductsState(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), h.cfg.DefaultLimit, h.cfg.MaxLimit)
	if err != nil {
		writeFailure(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ld := h.newCollection(r.Context())
	defer ld.Close()
	ld.Load(r.Context(), limit)

	ctx, cancel := h.apiContext(r.Context())
	defer cancel()
	st, err := ld.Wait(ctx)

	status := http.StatusOK
	switch {
	case err != nil:
		status = http.StatusGatewayTimeout
	case st.Kind() == loadstate.Failed:
		status = http.StatusBadGateway
	}

	var e jx.Encoder
	wire.EncodeCollection(&e, st)
	writeJSON(w, r, status, &e)
}

func (h *Handler) apiContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.cfg.APITimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.cfg.APITimeout)
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, msg string) {
	var e jx.Encoder
	wire.EncodeFailure(&e, msg)
	writeJSON(w, r, status, &e)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(r.Context()).Debug("Write response failed", zap.Error(err))
	}
}
