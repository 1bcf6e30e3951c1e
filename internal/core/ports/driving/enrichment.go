package driving

import (
	"context"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

// ResourceEnricher runs the batched enrichment pipeline.
type ResourceEnricher interface {
	// Process enriches every filter-sourced resource and returns the list in
	// input order. On cancellation it returns the resources with all settled
	// batches applied together with an error matching domain.ErrCancelled.
	Process(
		ctx context.Context,
		resources []domain.Resource,
		kind domain.ResourceKind,
		status domain.StatusFunc,
		opts domain.EnrichOptions,
	) ([]domain.Resource, error)

	// EnrichTemplate runs Process over every environment and kind, replacing
	// only the resource arrays of the returned copy.
	EnrichTemplate(
		ctx context.Context,
		tmpl *domain.Template,
		status domain.StatusFunc,
		opts domain.EnrichOptions,
	) (*domain.Template, error)

	// GenerateCriteria fills filter_criteria for every filter-sourced resource
	// lacking them, without searching.
	GenerateCriteria(
		ctx context.Context,
		tmpl *domain.Template,
		status domain.StatusFunc,
		opts domain.EnrichOptions,
	) (*domain.Template, error)
}
