package driven

import (
	"context"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

// ContentRepository searches the external educational content repository.
type ContentRepository interface {
	// Search executes one query. Implementations must check ctx immediately
	// before dispatching each request and return an error matching
	// domain.ErrCancelled instead of issuing a request on a cancelled context.
	// At most req.MaxItems nodes are returned.
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
}
