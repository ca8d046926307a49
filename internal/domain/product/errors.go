package product

import "fmt"

// Resource names used in fetch failure messages.
const (
	ResourceProduct  = "product"
	ResourceProducts = "products"
)

// StatusError is returned when the catalog answers with a non-2xx status.
type StatusError struct {
	Resource   string
	Code       int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Failed to fetch %s: %d %s", e.Resource, e.Code, e.StatusText)
}
