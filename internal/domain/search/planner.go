// Package search implements the Search Planner (C11): embed a text
// query, run a tuned-recall vector search, and page the result.
package search

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/shared"
)

const (
	// maxLimit is spec.md §4.11's hard cap on page size.
	maxLimit = 100
	// searchProbes is the ANN recall parameter the planner pins for
	// every query, trading a little latency for recall (spec.md §4.11
	// step 2): "set the vector index's probes ... to 100".
	searchProbes = 100
)

// TextEmbedder is the subset of embedder.Client the planner needs.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Result is the Search Planner's paged response contract.
type Result struct {
	Items      []photo.SearchResult
	HasMore    bool
	NextOffset int
}

// Planner wires the text embedder into the photo repository's vector
// search with spec.md §4.11's fixed recall and paging behavior.
type Planner struct {
	repo     photo.Repository
	embedder TextEmbedder
}

func NewPlanner(repo photo.Repository, embedder TextEmbedder) *Planner {
	return &Planner{repo: repo, embedder: embedder}
}

// Search embeds query, asks the repository for limit+1 results so it
// can detect a further page without a second round trip, and returns
// at most limit items.
func (p *Planner) Search(ctx context.Context, ownerID uuid.UUID, query string, limit, offset int) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, shared.NewFieldError(shared.ErrInvalidInput, "query", "query must not be empty")
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	vec, err := p.embedder.EmbedText(ctx, query)
	if err != nil {
		return Result{}, shared.NewDomainError(shared.ErrSearchUnavailable, "could not embed query text")
	}

	results, err := p.repo.Search(ctx, ownerID, vec, limit+1, offset, searchProbes)
	if err != nil {
		return Result{}, err
	}

	hasMore := len(results) > limit
	if hasMore {
		results = results[:limit]
	}

	return Result{
		Items:      results,
		HasMore:    hasMore,
		NextOffset: offset + limit,
	}, nil
}
