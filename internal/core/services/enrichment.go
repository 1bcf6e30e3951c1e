package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/core/ports/driving"
	"github.com/custodia-labs/didakt/internal/logger"
)

// Ensure EnrichmentService implements the interface.
var _ driving.ResourceEnricher = (*EnrichmentService)(nil)

// DefaultBatchSize is the number of resources enriched concurrently.
const DefaultBatchSize = 5

// EnrichmentService attaches repository matches to filter-sourced resources.
// Batches run strictly one after another; items within a batch run concurrently.
type EnrichmentService struct {
	criteria driving.CriteriaGenerator
	searcher driving.ResourceSearcher
	ids      driven.IDGenerator
}

// NewEnrichmentService creates a new batch orchestrator.
// criteria may be nil when criteria generation is never requested.
// ids may be nil; resources without an ID are then matched by position.
func NewEnrichmentService(
	criteria driving.CriteriaGenerator,
	searcher driving.ResourceSearcher,
	ids driven.IDGenerator,
) *EnrichmentService {
	return &EnrichmentService{
		criteria: criteria,
		searcher: searcher,
		ids:      ids,
	}
}

// Process enriches every resource whose source is filter.
// Other resources are returned untouched and in place. A filter resource
// that ends up without results, or fails, is returned exactly as given; the
// kind tag and a generated ID are only kept on resources that were enriched.
func (s *EnrichmentService) Process(
	ctx context.Context,
	resources []domain.Resource,
	kind domain.ResourceKind,
	status domain.StatusFunc,
	opts domain.EnrichOptions,
) ([]domain.Resource, error) {
	status = status.Serialised()

	out := make([]domain.Resource, len(resources))
	copy(out, resources)

	var (
		pending   []domain.Resource
		keys      []string
		positions []int
	)
	for i := range out {
		if out[i].Source != domain.SourceFilter {
			continue
		}
		item := out[i]
		if item.ID == "" && s.ids != nil {
			item.ID = s.ids.NewID()
			logger.Debug("enrich: assigned id %s to %s", item.ID, item.Label())
		}
		if item.Kind == "" {
			item.Kind = kind
		}
		pending = append(pending, item)
		keys = append(keys, identity(item, i))
		positions = append(positions, i)
	}
	if len(pending) == 0 {
		logger.Debug("enrich: no filter-sourced %s resources", kind)
		return out, nil
	}
	if s.searcher == nil {
		return out, domain.ErrRepositoryUnavailable
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	status.Emit(fmt.Sprintf("Enriching %d %s resource(s) in %d batch(es)",
		len(pending), strings.ToLower(kind.Label()), batchCount(len(pending), batchSize)))

	enriched, runErr := runBatches(ctx, pending, batchSize, status,
		func(ictx context.Context, r domain.Resource) (domain.Resource, error) {
			return s.enrichOne(ictx, ctx, r, kind, status, opts)
		})

	// Re-merge by identity. Duplicate identities are consumed in order.
	byKey := make(map[string][]domain.Resource, len(enriched))
	for i, r := range enriched {
		byKey[keys[i]] = append(byKey[keys[i]], r)
	}
	for j, pos := range positions {
		queue := byKey[keys[j]]
		if len(queue) == 0 {
			continue
		}
		byKey[keys[j]] = queue[1:]
		if queue[0].Source == domain.SourceDatabase {
			out[pos] = queue[0]
		}
	}

	if runErr != nil {
		logger.Info("Enrichment of %s resources cancelled", kind)
		return out, runErr
	}
	return out, nil
}

// EnrichTemplate runs Process for every environment and kind of a copy of tmpl.
func (s *EnrichmentService) EnrichTemplate(
	ctx context.Context,
	tmpl *domain.Template,
	status domain.StatusFunc,
	opts domain.EnrichOptions,
) (*domain.Template, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("%w: template is nil", domain.ErrInvalidInput)
	}
	out := tmpl.Clone()
	opts = seedOptions(tmpl, opts)

	for i := range out.Environments {
		env := &out.Environments[i]
		status.Emit(fmt.Sprintf("Learning environment '%s'", env.Name))
		for _, kind := range domain.AllResourceKinds() {
			updated, err := s.Process(ctx, env.Resources(kind), kind, status, opts)
			env.SetResources(kind, updated)
			if err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

// GenerateCriteria fills filter criteria for filter-sourced resources that have none.
// Sources are left as filter and nothing is searched.
func (s *EnrichmentService) GenerateCriteria(
	ctx context.Context,
	tmpl *domain.Template,
	status domain.StatusFunc,
	opts domain.EnrichOptions,
) (*domain.Template, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("%w: template is nil", domain.ErrInvalidInput)
	}
	if s.criteria == nil {
		return nil, domain.ErrLLMUnavailable
	}
	out := tmpl.Clone()
	opts = seedOptions(tmpl, opts)
	status = status.Serialised()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for i := range out.Environments {
		env := &out.Environments[i]
		for _, kind := range domain.AllResourceKinds() {
			list := env.Resources(kind)
			var idx []int
			var pending []domain.Resource
			for j, r := range list {
				if r.Source == domain.SourceFilter && !r.HasCriteria() {
					idx = append(idx, j)
					pending = append(pending, r)
				}
			}
			if len(pending) == 0 {
				continue
			}

			done, err := runBatches(ctx, pending, batchSize, status,
				func(ictx context.Context, r domain.Resource) (domain.Resource, error) {
					itemStatus := prefixed(status, r)
					filters, genErr := s.criteria.Generate(ictx, filterContextFor(r, kind, opts), opts.FilterTypes, itemStatus)
					if genErr != nil {
						return r, classify(ctx, genErr)
					}
					if len(filters) == 0 {
						itemStatus.Emit("No criteria could be generated")
						return r, nil
					}
					r = r.Clone()
					r.FilterCriteria = domain.CriteriaFromFilters(filters)
					itemStatus.Emit(fmt.Sprintf("Generated %d criteria", len(r.FilterCriteria)))
					return r, nil
				})
			for k, j := range idx {
				list[j] = done[k]
			}
			env.SetResources(kind, list)
			if err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

// enrichOne searches for one resource. parent is the run context and is
// used to tell cancellation apart from the item's own deadline.
func (s *EnrichmentService) enrichOne(
	ctx, parent context.Context,
	r domain.Resource,
	kind domain.ResourceKind,
	status domain.StatusFunc,
	opts domain.EnrichOptions,
) (domain.Resource, error) {
	if opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ItemTimeout)
		defer cancel()
	}
	itemStatus := prefixed(status, r)

	criteria := r.FilterCriteria
	generated := false
	if len(criteria) == 0 && opts.GenerateCriteria && s.criteria != nil {
		filters, err := s.criteria.Generate(ctx, filterContextFor(r, kind, opts), opts.FilterTypes, itemStatus)
		if err != nil {
			return r, classify(parent, err)
		}
		criteria = domain.CriteriaFromFilters(filters)
		generated = len(criteria) > 0
	}

	result, err := s.searcher.Search(ctx, criteria, opts, itemStatus)
	if err != nil {
		return r, classify(parent, err)
	}
	if result == nil || len(result.Nodes) == 0 {
		if len(criteria) > 0 {
			itemStatus.Emit("No matching resources found")
		}
		return r, nil
	}

	enriched := r.Clone()
	if generated {
		enriched.FilterCriteria = criteria
	}
	ids := make([]string, len(result.Nodes))
	enriched.WLOMetadata = make([]domain.Metadata, len(result.Nodes))
	for i, node := range result.Nodes {
		ids[i] = node.Ref.ID
		enriched.WLOMetadata[i] = ExtractMetadata(node)
	}
	enriched.Source = domain.SourceDatabase
	enriched.DatabaseID = strings.Join(ids, ",")

	itemStatus.Emit(fmt.Sprintf("Attached %d repository result(s)", len(result.Nodes)))
	return enriched, nil
}

// runBatches applies fn to items in consecutive batches of batchSize.
// A batch starts only after every item of the previous batch has returned.
// Item failures keep the original item; cancellation stops before the next
// batch and returns the items settled so far.
func runBatches(
	ctx context.Context,
	items []domain.Resource,
	batchSize int,
	status domain.StatusFunc,
	fn func(context.Context, domain.Resource) (domain.Resource, error),
) ([]domain.Resource, error) {
	out := make([]domain.Resource, len(items))
	copy(out, items)
	total := batchCount(len(items), batchSize)

	for b, start := 0, 0; start < len(items); b, start = b+1, start+batchSize {
		if err := ctx.Err(); err != nil {
			status.Emit(fmt.Sprintf("Cancelled before batch %d/%d", b+1, total))
			return out, domain.Cancelled(err)
		}
		end := min(start+batchSize, len(items))
		status.Emit(fmt.Sprintf("Batch %d/%d: %d resource(s)", b+1, total, end-start))

		var g errgroup.Group
		g.SetLimit(batchSize)
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := fn(ctx, items[i])
				if err != nil {
					if domain.IsCancelled(err) {
						return err
					}
					logger.Warn("enrich: %s failed: %v", items[i].Label(), err)
					status.Emit(fmt.Sprintf("%s: failed, keeping original (%v)", items[i].Label(), err))
					return nil
				}
				out[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			status.Emit(fmt.Sprintf("Cancelled during batch %d/%d", b+1, total))
			if !errors.Is(err, domain.ErrCancelled) {
				err = domain.Cancelled(err)
			}
			return out, err
		}
	}
	return out, nil
}

// classify marks an item error as cancellation when the run itself was cancelled.
func classify(parent context.Context, err error) error {
	if domain.IsCancelled(err) {
		return err
	}
	if perr := parent.Err(); perr != nil {
		return domain.Cancelled(perr)
	}
	return err
}

func batchCount(n, size int) int {
	return (n + size - 1) / size
}

// identity keys a resource for re-merging; unnamed resources fall back to position.
func identity(r domain.Resource, pos int) string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	return fmt.Sprintf("pos:%d", pos)
}

func prefixed(status domain.StatusFunc, r domain.Resource) domain.StatusFunc {
	label := r.Label()
	return func(msg string) {
		status.Emit(label + ": " + msg)
	}
}

func filterContextFor(r domain.Resource, kind domain.ResourceKind, opts domain.EnrichOptions) domain.FilterContext {
	return domain.FilterContext{
		ItemName:         r.Name,
		ItemType:         r.Type,
		Kind:             kind,
		EducationalLevel: opts.EducationalLevel,
		Subject:          opts.Subject,
		Task:             opts.Tasks[r.ID],
	}
}

// seedOptions fills subject, level and task context from the template when unset.
func seedOptions(tmpl *domain.Template, opts domain.EnrichOptions) domain.EnrichOptions {
	info := tmpl.Info()
	if opts.Subject == "" {
		opts.Subject = info.Subject
	}
	if opts.EducationalLevel == "" {
		opts.EducationalLevel = info.EducationalLevel
	}
	if opts.Tasks == nil {
		opts.Tasks = tmpl.Tasks()
	}
	return opts
}
