// Package retrieval runs the multi-field vector plus lexical search step of
// the pipeline: target-field selection, query embedding, dense and lexical
// fan-out, and score normalization.
package retrieval

import (
	"context"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/filter"
	"github.com/hoanganh/voucherd/internal/repository/voucher"
)

// Index is the consumer interface over the multi-field vector index (ISP).
type Index interface {
	SearchDense(ctx context.Context, field string, vector []float32, k int, filters filter.Expression) ([]voucher.ScoredVoucher, error)
	SearchLexical(ctx context.Context, query string, k int, filters filter.Expression) ([]voucher.ScoredVoucher, error)
}

// Embedder encodes a normalized query into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Candidate is a scored voucher prior to geographic re-ranking, carrying
// enough of the raw score to support the re-ranker's tie-break rule.
type Candidate struct {
	Voucher         *domain.Voucher
	Similarity      float64 // normalized to [0,1] per §4.6 Step E
	RawDenseScore   float64 // dense-only similarity, for tie-break (b) in §4.7
	HasDenseScore   bool
}
