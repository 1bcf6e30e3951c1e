package driving

import (
	"context"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

// CriteriaGenerator produces filter criteria for resources.
type CriteriaGenerator interface {
	// Generate returns one value per requested filter type. A filter type the
	// model could not answer is omitted, not reported as an error. Errors are
	// limited to cancellation and missing configuration.
	Generate(
		ctx context.Context,
		fc domain.FilterContext,
		types []domain.FilterType,
		status domain.StatusFunc,
	) (map[domain.FilterType]string, error)
}
