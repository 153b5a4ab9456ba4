package facade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/filter"
	"github.com/hoanganh/voucherd/internal/domain/search/mode"
	"github.com/hoanganh/voucherd/internal/domain/search/result"
	"github.com/hoanganh/voucherd/internal/metrics"
	"github.com/hoanganh/voucherd/internal/normalizer"
	"github.com/hoanganh/voucherd/internal/usecase/retrieval"
)

// Metadata carries the fields every search response must attach per §7.
type Metadata struct {
	TotalResults       int
	ProcessingTimeMs   int64
	SearchMethod       string
	EmbeddingDimension int
}

// Response is the search façade's full response shape (§4.9, §6).
type Response struct {
	Query            string
	Mode             mode.Mode
	ParsedComponents *domain.QueryComponents
	SearchStrategy   *retrieval.Strategy
	Results          []result.Result
	Explanations     []string
	Metadata         Metadata
	Answer           string
	Confidence       float64
}

// Facade is the single entry point described by §4.9.
type Facade struct {
	parser     Parser
	retriever  Retriever
	reranker   Reranker
	composer   Composer
	ragLimiter *semaphore.Weighted
	embedDim   int
}

// Config carries the façade's tunables (§5, §6).
type Config struct {
	RAGConcurrencyLimit int
	EmbeddingDimension  int
}

func New(parser Parser, retriever Retriever, reranker Reranker, composer Composer, cfg Config) *Facade {
	limit := cfg.RAGConcurrencyLimit
	if limit <= 0 {
		limit = 8
	}
	return &Facade{
		parser:     parser,
		retriever:  retriever,
		reranker:   reranker,
		composer:   composer,
		ragLimiter: semaphore.NewWeighted(int64(limit)),
		embedDim:   cfg.EmbeddingDimension,
	}
}

// Search implements §4.9's single entry point. minScore filters results
// per §6 after boosting, before metadata.total_results is computed, so the
// returned results and count always describe the same set.
func (f *Facade) Search(
	ctx context.Context, query string, m mode.Mode, topK int, filters filter.Expression, strictLocation bool, minScore float64,
) (*Response, error) {
	start := time.Now()

	q := f.parseQuery(query, m)

	candidates, strategy, err := f.retriever.Search(ctx, q, topK, filters, m)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("retrieval deadline: %w", domain.ErrDeadlineExceeded)
		}
		return nil, err
	}

	var results []result.Result
	searchMethod := domain.SearchMethodVector

	if m == mode.Vector {
		results = rawResults(candidates)
		if len(results) > topK {
			results = results[:topK]
		}
	} else {
		results = f.reranker.Rank(candidates, q, topK, strictLocation)
		searchMethod = domain.SearchMethodHybrid
	}

	results = filterByMinScore(results, minScore)

	resp := &Response{
		Query:   query,
		Mode:    m,
		Results: results,
		Metadata: Metadata{
			TotalResults:       len(results),
			SearchMethod:       searchMethod,
			EmbeddingDimension: f.embedDim,
		},
	}

	if m != mode.Vector {
		resp.ParsedComponents = &q
		resp.SearchStrategy = &strategy
		resp.Explanations = explain(q, strategy, results)
	}

	if m == mode.RAG {
		f.compose(ctx, q, resp)
	}

	resp.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()
	return resp, nil
}

// compose runs the RAG composer under the concurrency cap, downgrading to
// hybrid (no generation) when the cap is exhausted rather than queuing.
func (f *Facade) compose(ctx context.Context, q domain.QueryComponents, resp *Response) {
	if !f.ragLimiter.TryAcquire(1) {
		metrics.RAGFallbackTotal.WithLabelValues("overloaded").Inc()
		resp.Metadata.SearchMethod = domain.SearchMethodRAGOverloaded
		return
	}
	defer f.ragLimiter.Release(1)

	answer := f.composer.Compose(ctx, q, resp.Results)
	resp.Answer = answer.Text
	resp.Confidence = answer.Confidence

	if answer.Fallback {
		metrics.RAGFallbackTotal.WithLabelValues("generator_error").Inc()
		resp.Metadata.SearchMethod = domain.SearchMethodAdvancedRAGFallback
	} else {
		resp.Metadata.SearchMethod = domain.SearchMethodRAG
	}
}

// parseQuery implements the mode=vector fast path: normalization only, no
// intent/location/service extraction.
func (f *Facade) parseQuery(query string, m mode.Mode) domain.QueryComponents {
	if m == mode.Vector {
		normalized, stripped := normalizer.Normalize(query)
		return domain.QueryComponents{
			Original:   query,
			Normalized: normalized,
			Stripped:   stripped,
			Intent:     domain.IntentGeneral,
		}
	}
	return f.parser.Parse(query)
}

// filterByMinScore drops results below minScore (§6, applied after boosting).
// A non-positive minScore is a no-op: 0 is the floor every similarity score
// already satisfies.
func filterByMinScore(results []result.Result, minScore float64) []result.Result {
	if minScore <= 0 {
		return results
	}
	out := make([]result.Result, 0, len(results))
	for _, r := range results {
		if r.SimilarityScore() >= minScore {
			out = append(out, r)
		}
	}
	return out
}

func rawResults(candidates []retrieval.Candidate) []result.Result {
	out := make([]result.Result, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, result.FromVoucher(
			c.Voucher, c.Similarity, c.RawDenseScore, domain.RankingSemanticMatch, domain.SearchMethodVector,
		))
	}
	return out
}
