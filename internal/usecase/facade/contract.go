// Package facade implements the single search entry point (§4.9): it wires
// the query parser, retrieval engine, geographic re-ranker, and RAG composer
// behind one call, enforcing the response shape and concurrency limits from
// §5-§7.
package facade

import (
	"context"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/filter"
	"github.com/hoanganh/voucherd/internal/domain/search/mode"
	"github.com/hoanganh/voucherd/internal/domain/search/result"
	"github.com/hoanganh/voucherd/internal/usecase/rag"
	"github.com/hoanganh/voucherd/internal/usecase/retrieval"
)

// Parser turns a raw query into structured components.
type Parser interface {
	Parse(raw string) domain.QueryComponents
}

// Retriever runs the multi-field dense/lexical search. mode.Vector restricts
// it to a dense-only query; mode.Hybrid and mode.RAG fan dense and lexical
// search out and fuse them.
type Retriever interface {
	Search(
		ctx context.Context, q domain.QueryComponents, topK int, filters filter.Expression, m mode.Mode,
	) ([]retrieval.Candidate, retrieval.Strategy, error)
}

// Reranker applies the geographic boost cascade and truncates to top_k.
type Reranker interface {
	Rank(
		candidates []retrieval.Candidate, q domain.QueryComponents, topK int, strictLocation bool,
	) []result.Result
}

// Composer produces a grounded RAG answer from retrieved results.
type Composer interface {
	Compose(ctx context.Context, q domain.QueryComponents, results []result.Result) rag.Answer
}
