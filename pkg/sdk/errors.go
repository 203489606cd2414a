package flyerdex

import "github.com/kailas-cloud/flyerdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery      = domain.ErrInvalidRequest
	ErrCatalogNotLoaded  = domain.ErrCatalogNotLoaded
	ErrVectorDimMismatch = domain.ErrVectorDimMismatch
)
