package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

// mockRepository is a ContentRepository for testing.
type mockRepository struct {
	mu       sync.Mutex
	requests []domain.SearchRequest
	search   func(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
}

func (m *mockRepository) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.search == nil {
		return &domain.SearchResult{}, nil
	}
	return m.search(ctx, req)
}

func (m *mockRepository) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func nodes(ids ...string) []domain.SearchNode {
	out := make([]domain.SearchNode, len(ids))
	for i, id := range ids {
		out[i] = domain.SearchNode{
			Ref:        domain.SearchNodeRef{ID: id},
			Properties: map[string][]string{"cclom:title": {"Title " + id}},
		}
	}
	return out
}

func TestResourceSearchService_EmptyCriteriaSkipsSearch(t *testing.T) {
	tests := []struct {
		name     string
		criteria map[string]string
	}{
		{"nil", nil},
		{"empty", map[string]string{}},
		{"only empty values", map[string]string{"cclom:title": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{}
			svc := NewResourceSearchService(repo)
			var log domain.StatusLog

			result, err := svc.Search(context.Background(), tt.criteria, domain.EnrichOptions{}, log.Add)

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Empty(t, result.Nodes)
			assert.Equal(t, 0, repo.calls())
			assert.Equal(t, []string{"No filter criteria defined, skipping search"}, log.Lines())
		})
	}
}

func TestResourceSearchService_BuildsRequest(t *testing.T) {
	repo := &mockRepository{search: func(_ context.Context, _ domain.SearchRequest) (*domain.SearchResult, error) {
		return &domain.SearchResult{Nodes: nodes("a")}, nil
	}}
	svc := NewResourceSearchService(repo)

	_, err := svc.Search(context.Background(), map[string]string{
		"cclom:title": "Vulkane",
		"ccm:taxonid": "Geografie",
		"ccm:oeh_lrt": "",
	}, domain.EnrichOptions{Endpoint: "https://staging.example/rest"}, nil)

	require.NoError(t, err)
	require.Len(t, repo.requests, 1)
	req := repo.requests[0]
	assert.Equal(t, []string{"cclom:title", "ccm:taxonid"}, req.Properties)
	assert.Equal(t, []string{"Vulkane", "Geografie"}, req.Values)
	assert.Equal(t, domain.DefaultMaxItems, req.MaxItems)
	assert.Equal(t, domain.CombineAnd, req.CombineMode)
	assert.Equal(t, "https://staging.example/rest", req.Endpoint)
}

func TestResourceSearchService_CapsResults(t *testing.T) {
	repo := &mockRepository{search: func(_ context.Context, _ domain.SearchRequest) (*domain.SearchResult, error) {
		return &domain.SearchResult{Nodes: nodes("1", "2", "3", "4", "5", "6", "7")}, nil
	}}
	svc := NewResourceSearchService(repo)

	result, err := svc.Search(context.Background(), map[string]string{"cclom:title": "x"},
		domain.EnrichOptions{MaxItems: 3, CombineMode: domain.CombineOr}, nil)

	require.NoError(t, err)
	assert.Len(t, result.Nodes, 3)
	assert.Equal(t, "1", result.Nodes[0].Ref.ID)
	assert.Equal(t, domain.CombineOr, repo.requests[0].CombineMode)
	assert.Equal(t, 3, repo.requests[0].MaxItems)
}

func TestResourceSearchService_CancelledBeforeDispatch(t *testing.T) {
	repo := &mockRepository{}
	svc := NewResourceSearchService(repo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, map[string]string{"cclom:title": "x"}, domain.EnrichOptions{}, nil)

	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, 0, repo.calls())
}

func TestResourceSearchService_Errors(t *testing.T) {
	tests := []struct {
		name          string
		repoErr       error
		wantCancelled bool
	}{
		{"transport failure", errors.New("connection refused"), false},
		{"cancelled in flight", context.Canceled, true},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{search: func(_ context.Context, _ domain.SearchRequest) (*domain.SearchResult, error) {
				return nil, tt.repoErr
			}}
			svc := NewResourceSearchService(repo)

			_, err := svc.Search(context.Background(), map[string]string{"cclom:title": "x"},
				domain.EnrichOptions{}, nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.repoErr)
			assert.Equal(t, tt.wantCancelled, errors.Is(err, domain.ErrCancelled))
		})
	}
}

func TestResourceSearchService_NoRepository(t *testing.T) {
	svc := NewResourceSearchService(nil)

	_, err := svc.Search(context.Background(), map[string]string{"cclom:title": "x"}, domain.EnrichOptions{}, nil)

	assert.ErrorIs(t, err, domain.ErrRepositoryUnavailable)
}

func TestResourceSearchService_StatusLines(t *testing.T) {
	repo := &mockRepository{search: func(_ context.Context, _ domain.SearchRequest) (*domain.SearchResult, error) {
		return &domain.SearchResult{Nodes: nodes("a", "b")}, nil
	}}
	svc := NewResourceSearchService(repo)
	var log domain.StatusLog

	_, err := svc.Search(context.Background(), map[string]string{"cclom:title": "x"}, domain.EnrichOptions{}, log.Add)

	require.NoError(t, err)
	lines := log.Lines()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Searching repository with 1 criteria"))
	assert.Equal(t, "Found 2 result(s)", lines[1])
}
