package driving

import (
	"context"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

// ResourceSearcher resolves a resource's filter criteria against the content repository.
type ResourceSearcher interface {
	// Search returns the raw nodes matching criteria. Empty criteria return an
	// empty result without a network call.
	Search(
		ctx context.Context,
		criteria map[string]string,
		opts domain.EnrichOptions,
		status domain.StatusFunc,
	) (*domain.SearchResult, error)
}
