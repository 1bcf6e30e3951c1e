package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/core/ports/driving"
	"github.com/custodia-labs/didakt/internal/logger"
)

// Ensure ResourceSearchService implements the interface.
var _ driving.ResourceSearcher = (*ResourceSearchService)(nil)

// ResourceSearchService turns filter criteria into repository queries.
type ResourceSearchService struct {
	repo driven.ContentRepository
}

// NewResourceSearchService creates a new resource search service.
func NewResourceSearchService(repo driven.ContentRepository) *ResourceSearchService {
	return &ResourceSearchService{repo: repo}
}

// Search resolves criteria against the repository. Empty criteria short-circuit
// with an empty result and a status line; no request is made.
func (s *ResourceSearchService) Search(
	ctx context.Context,
	criteria map[string]string,
	opts domain.EnrichOptions,
	status domain.StatusFunc,
) (*domain.SearchResult, error) {
	req := buildSearchRequest(criteria, opts)
	if len(req.Properties) == 0 {
		status.Emit("No filter criteria defined, skipping search")
		return &domain.SearchResult{}, nil
	}
	if s.repo == nil {
		return nil, domain.ErrRepositoryUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.ContextError(err)
	}

	status.Emit(fmt.Sprintf("Searching repository with %d criteria (%s, max %d)",
		len(req.Properties), req.CombineMode, req.MaxItems))
	logger.Debug("search: properties=%v values=%v endpoint=%q", req.Properties, req.Values, req.Endpoint)

	result, err := s.repo.Search(ctx, req)
	if err != nil {
		if domain.IsCancelled(err) {
			return nil, domain.Cancelled(err)
		}
		return nil, fmt.Errorf("search repository: %w", err)
	}
	if result == nil {
		result = &domain.SearchResult{}
	}
	if len(result.Nodes) > req.MaxItems {
		result.Nodes = result.Nodes[:req.MaxItems]
	}

	status.Emit(fmt.Sprintf("Found %d result(s)", len(result.Nodes)))
	return result, nil
}

// buildSearchRequest flattens criteria into parallel property/value slices,
// ordered by property name so requests are reproducible.
func buildSearchRequest(criteria map[string]string, opts domain.EnrichOptions) domain.SearchRequest {
	props := make([]string, 0, len(criteria))
	for prop, value := range criteria {
		if value != "" {
			props = append(props, prop)
		}
	}
	sort.Strings(props)

	values := make([]string, len(props))
	for i, prop := range props {
		values[i] = criteria[prop]
	}

	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = domain.DefaultMaxItems
	}
	mode := opts.CombineMode
	if !mode.IsValid() {
		mode = domain.CombineAnd
	}

	return domain.SearchRequest{
		Endpoint:    opts.Endpoint,
		Properties:  props,
		Values:      values,
		MaxItems:    maxItems,
		CombineMode: mode,
	}
}
