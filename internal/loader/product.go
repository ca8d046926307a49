package loader

import (
	"github.com/xenking/product-showcase/internal/domain/product"
)

// Loader names used in logs and metrics.
const (
	DetailName     = "product_detail"
	CollectionName = "product_collection"
)

// DefaultProductID and DefaultLimit are the inputs used when a view is
// mounted without one.
const (
	DefaultProductID = 1
	DefaultLimit     = 10
)

// Detail loads a single product by identifier. A loaded nil record means the
// product was not found.
type Detail = Loader[int, *product.Record]

// Collection loads a bounded list of products by page-size limit.
type Collection = Loader[int, []product.Record]

// NewDetail returns a Detail loader backed by repo.
func NewDetail(repo product.Repository, opts Options[*product.Record]) *Detail {
	return New(DetailName, repo.FetchByID, opts)
}

// NewCollection returns a Collection loader backed by repo.
func NewCollection(repo product.Repository, opts Options[[]product.Record]) *Collection {
	return New(CollectionName, repo.FetchPage, opts)
}
