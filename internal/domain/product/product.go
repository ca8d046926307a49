package product

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// MaxGalleryImages bounds the number of secondary images shown for a product.
const MaxGalleryImages = 4

var hundred = decimal.NewFromInt(100)

// Record represents one catalog item as returned by the upstream catalog.
type Record struct {
	ID                 int
	Title              string
	Description        string
	Category           string
	Brand              string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Rating             decimal.Decimal
	Stock              int
	Thumbnail          string
	Images             []string
}

// Page is the envelope returned by the listing endpoint. Only Products is
// consumed by views; the pagination metadata is kept for callers that want it.
type Page struct {
	Products []Record
	Total    int
	Skip     int
	Limit    int
}

// Repository fetches product records from a catalog source.
type Repository interface {
	// FetchByID returns the record with the given identifier. A nil record
	// with a nil error means the source answered but holds no such entity.
	FetchByID(ctx context.Context, id int) (*Record, error)
	// FetchPage returns up to limit records in catalog order.
	FetchPage(ctx context.Context, limit int) ([]Record, error)
}

// HasDiscount reports whether a discount badge applies.
func (r Record) HasDiscount() bool {
	return r.DiscountPercentage.IsPositive()
}

// OriginalPrice returns the undiscounted price implied by Price and
// DiscountPercentage, rounded to cents. It reports false when there is no
// discount or when the discount is 100% or more and no original price can be
// derived.
func (r Record) OriginalPrice() (decimal.Decimal, bool) {
	if !r.HasDiscount() || r.DiscountPercentage.GreaterThanOrEqual(hundred) {
		return decimal.Decimal{}, false
	}
	factor := decimal.NewFromInt(1).Sub(r.DiscountPercentage.Div(hundred))
	return r.Price.Div(factor).Round(2), true
}

// InStock reports whether at least one unit is available.
func (r Record) InStock() bool {
	return r.Stock > 0
}

// StockLabel returns the stock badge text.
func (r Record) StockLabel() string {
	if !r.InStock() {
		return "Out of stock"
	}
	return strconv.Itoa(r.Stock) + " in stock"
}

// DiscountLabel returns the discount badge text, or "" without a discount.
func (r Record) DiscountLabel() string {
	if !r.HasDiscount() {
		return ""
	}
	return fmt.Sprintf("-%s%% OFF", r.DiscountPercentage.String())
}

// Gallery returns at most MaxGalleryImages secondary images.
func (r Record) Gallery() []string {
	if len(r.Images) <= MaxGalleryImages {
		return r.Images
	}
	return r.Images[:MaxGalleryImages]
}
