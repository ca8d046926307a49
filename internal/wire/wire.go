// Package wire encodes load states as JSON for the API and the CLI.
package wire

import (
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/product-showcase/internal/domain/loadstate"
	"github.com/xenking/product-showcase/internal/domain/product"
)

// State names written to the "state" field.
const (
	StateIdle     = "idle"
	StateLoading  = "loading"
	StateLoaded   = "loaded"
	StateNotFound = "not_found"
	StateFailed   = "failed"
)

// DetailStateName returns the state name for a detail load. A loaded nil
// record is reported as StateNotFound.
func DetailStateName(s loadstate.State[*product.Record]) string {
	if v, ok := s.Value(); ok && v == nil {
		return StateNotFound
	}
	return s.Kind().String()
}

// EncodeDetail writes a detail load state.
func EncodeDetail(e *jx.Encoder, s loadstate.State[*product.Record]) {
	e.ObjStart()
	e.FieldStart("state")
	e.Str(DetailStateName(s))
	if v, ok := s.Value(); ok && v != nil {
		e.FieldStart("product")
		EncodeRecord(e, *v)
	}
	encodeMessage(e, s.Message)
	e.ObjEnd()
}

// EncodeCollection writes a collection load state.
func EncodeCollection(e *jx.Encoder, s loadstate.State[[]product.Record]) {
	e.ObjStart()
	e.FieldStart("state")
	e.Str(s.Kind().String())
	if v, ok := s.Value(); ok {
		e.FieldStart("products")
		e.ArrStart()
		for _, r := range v {
			EncodeRecord(e, r)
		}
		e.ArrEnd()
	}
	encodeMessage(e, s.Message)
	e.ObjEnd()
}

// EncodeFailure writes a failed state carrying msg.
func EncodeFailure(e *jx.Encoder, msg string) {
	EncodeDetail(e, loadstate.NewFailed[*product.Record](msg))
}

func encodeMessage(e *jx.Encoder, message func() (string, bool)) {
	if msg, ok := message(); ok {
		e.FieldStart("message")
		e.Str(msg)
	}
}

// EncodeRecord writes r using the upstream field names. The derived
// originalPrice field is present only when it can be computed.
func EncodeRecord(e *jx.Encoder, r product.Record) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(r.ID)
	e.FieldStart("title")
	e.Str(r.Title)
	e.FieldStart("description")
	e.Str(r.Description)
	e.FieldStart("category")
	e.Str(r.Category)
	if r.Brand != "" {
		e.FieldStart("brand")
		e.Str(r.Brand)
	}
	e.FieldStart("price")
	encodeDecimal(e, r.Price)
	e.FieldStart("discountPercentage")
	encodeDecimal(e, r.DiscountPercentage)
	if orig, ok := r.OriginalPrice(); ok {
		e.FieldStart("originalPrice")
		encodeDecimal(e, orig)
	}
	e.FieldStart("rating")
	encodeDecimal(e, r.Rating)
	e.FieldStart("stock")
	e.Int(r.Stock)
	e.FieldStart("thumbnail")
	e.Str(r.Thumbnail)
	e.FieldStart("images")
	e.ArrStart()
	for _, img := range r.Images {
		e.Str(img)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}
