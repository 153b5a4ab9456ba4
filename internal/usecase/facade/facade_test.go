package facade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/filter"
	"github.com/hoanganh/voucherd/internal/domain/search/mode"
	"github.com/hoanganh/voucherd/internal/domain/search/result"
	"github.com/hoanganh/voucherd/internal/usecase/rag"
	"github.com/hoanganh/voucherd/internal/usecase/retrieval"
)

type mockParser struct {
	fn func(raw string) domain.QueryComponents
}

func (m mockParser) Parse(raw string) domain.QueryComponents { return m.fn(raw) }

type mockRetriever struct {
	fn func(ctx context.Context, q domain.QueryComponents, topK int, filters filter.Expression, m mode.Mode) ([]retrieval.Candidate, retrieval.Strategy, error)
}

func (m mockRetriever) Search(
	ctx context.Context, q domain.QueryComponents, topK int, filters filter.Expression, md mode.Mode,
) ([]retrieval.Candidate, retrieval.Strategy, error) {
	return m.fn(ctx, q, topK, filters, md)
}

type mockReranker struct {
	fn func(candidates []retrieval.Candidate, q domain.QueryComponents, topK int, strictLocation bool) []result.Result
}

func (m mockReranker) Rank(
	candidates []retrieval.Candidate, q domain.QueryComponents, topK int, strictLocation bool,
) []result.Result {
	return m.fn(candidates, q, topK, strictLocation)
}

type mockComposer struct {
	fn func(ctx context.Context, q domain.QueryComponents, results []result.Result) rag.Answer
}

func (m mockComposer) Compose(ctx context.Context, q domain.QueryComponents, results []result.Result) rag.Answer {
	return m.fn(ctx, q, results)
}

func candidate(id string) retrieval.Candidate {
	return retrieval.Candidate{Voucher: &domain.Voucher{ID: id, Name: id}, Similarity: 0.7, HasDenseScore: true}
}

func newFacade(t *testing.T, retriever Retriever, reranker Reranker, composer Composer) *Facade {
	t.Helper()
	parser := mockParser{fn: func(raw string) domain.QueryComponents {
		return domain.QueryComponents{Original: raw, Normalized: raw, Intent: domain.IntentGeneral}
	}}
	return New(parser, retriever, reranker, composer, Config{RAGConcurrencyLimit: 2, EmbeddingDimension: 768})
}

func TestSearch_VectorModeSkipsParsingAndReranking(t *testing.T) {
	rerankerCalled := false
	retriever := mockRetriever{fn: func(_ context.Context, q domain.QueryComponents, _ int, _ filter.Expression, _ mode.Mode) ([]retrieval.Candidate, retrieval.Strategy, error) {
		assert.Equal(t, domain.IntentGeneral, q.Intent)
		assert.Empty(t, q.Location)
		return []retrieval.Candidate{candidate("v1")}, retrieval.Strategy{Field: domain.FieldCombined}, nil
	}}
	reranker := mockReranker{fn: func([]retrieval.Candidate, domain.QueryComponents, int, bool) []result.Result {
		rerankerCalled = true
		return nil
	}}
	f := newFacade(t, retriever, reranker, nil)

	resp, err := f.Search(context.Background(), "hải phòng", mode.Vector, 5, filter.Expression{}, false, 0)
	require.NoError(t, err)
	assert.False(t, rerankerCalled)
	assert.Nil(t, resp.ParsedComponents)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, domain.SearchMethodVector, resp.Metadata.SearchMethod)
}

func TestSearch_HybridModeRuns(t *testing.T) {
	retriever := mockRetriever{fn: func(context.Context, domain.QueryComponents, int, filter.Expression, mode.Mode) ([]retrieval.Candidate, retrieval.Strategy, error) {
		return []retrieval.Candidate{candidate("v1")}, retrieval.Strategy{Field: domain.FieldLocation}, nil
	}}
	reranker := mockReranker{fn: func(cands []retrieval.Candidate, _ domain.QueryComponents, _ int, _ bool) []result.Result {
		return []result.Result{result.FromVoucher(cands[0].Voucher, 0.9, 0.9, domain.RankingSemanticMatch, domain.SearchMethodHybrid)}
	}}
	f := newFacade(t, retriever, reranker, nil)

	resp, err := f.Search(context.Background(), "quán ăn hải phòng", mode.Hybrid, 5, filter.Expression{}, false, 0)
	require.NoError(t, err)
	require.NotNil(t, resp.ParsedComponents)
	require.NotNil(t, resp.SearchStrategy)
	require.Len(t, resp.Explanations, 1)
	assert.Equal(t, domain.SearchMethodHybrid, resp.Metadata.SearchMethod)
}

func TestSearch_MinScoreFiltersResultsAndTotalResultsTogether(t *testing.T) {
	retriever := mockRetriever{fn: func(context.Context, domain.QueryComponents, int, filter.Expression, mode.Mode) ([]retrieval.Candidate, retrieval.Strategy, error) {
		return []retrieval.Candidate{candidate("v1"), candidate("v2")}, retrieval.Strategy{}, nil
	}}
	reranker := mockReranker{fn: func(cands []retrieval.Candidate, _ domain.QueryComponents, _ int, _ bool) []result.Result {
		return []result.Result{
			result.FromVoucher(cands[0].Voucher, 0.9, 0.9, domain.RankingSemanticMatch, domain.SearchMethodHybrid),
			result.FromVoucher(cands[1].Voucher, 0.2, 0.2, domain.RankingSemanticMatch, domain.SearchMethodHybrid),
		}
	}}
	f := newFacade(t, retriever, reranker, nil)

	resp, err := f.Search(context.Background(), "quán ăn", mode.Hybrid, 5, filter.Expression{}, false, 0.5)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "v1", resp.Results[0].VoucherID())
	assert.Equal(t, 1, resp.Metadata.TotalResults)
	require.Len(t, resp.Explanations, 1)
}

func TestSearch_MinScoreAboveEveryCandidateReturnsEmptyConsistently(t *testing.T) {
	retriever := mockRetriever{fn: func(context.Context, domain.QueryComponents, int, filter.Expression, mode.Mode) ([]retrieval.Candidate, retrieval.Strategy, error) {
		return []retrieval.Candidate{candidate("v1")}, retrieval.Strategy{}, nil
	}}
	reranker := mockReranker{fn: func(cands []retrieval.Candidate, _ domain.QueryComponents, _ int, _ bool) []result.Result {
		return []result.Result{result.FromVoucher(cands[0].Voucher, 0.5, 0.5, domain.RankingSemanticMatch, domain.SearchMethodHybrid)}
	}}
	f := newFacade(t, retriever, reranker, nil)

	resp, err := f.Search(context.Background(), "quán ăn", mode.Hybrid, 5, filter.Expression{}, false, 0.99)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Metadata.TotalResults)
}

func TestSearch_RAGModeComposesAnswer(t *testing.T) {
	retriever := mockRetriever{fn: func(context.Context, domain.QueryComponents, int, filter.Expression, mode.Mode) ([]retrieval.Candidate, retrieval.Strategy, error) {
		return []retrieval.Candidate{candidate("v1")}, retrieval.Strategy{}, nil
	}}
	reranker := mockReranker{fn: func(cands []retrieval.Candidate, _ domain.QueryComponents, _ int, _ bool) []result.Result {
		return []result.Result{result.FromVoucher(cands[0].Voucher, 0.9, 0.9, domain.RankingSemanticMatch, domain.SearchMethodHybrid)}
	}}
	composer := mockComposer{fn: func(context.Context, domain.QueryComponents, []result.Result) rag.Answer {
		return rag.Answer{Text: "câu trả lời", Confidence: 0.8}
	}}
	f := newFacade(t, retriever, reranker, composer)

	resp, err := f.Search(context.Background(), "quán ăn", mode.RAG, 5, filter.Expression{}, false, 0)
	require.NoError(t, err)
	assert.Equal(t, "câu trả lời", resp.Answer)
	assert.Equal(t, domain.SearchMethodRAG, resp.Metadata.SearchMethod)
}

func TestSearch_RAGFallbackMarksAdvancedFallback(t *testing.T) {
	retriever := mockRetriever{fn: func(context.Context, domain.QueryComponents, int, filter.Expression, mode.Mode) ([]retrieval.Candidate, retrieval.Strategy, error) {
		return []retrieval.Candidate{candidate("v1")}, retrieval.Strategy{}, nil
	}}
	reranker := mockReranker{fn: func(cands []retrieval.Candidate, _ domain.QueryComponents, _ int, _ bool) []result.Result {
		return []result.Result{result.FromVoucher(cands[0].Voucher, 0.9, 0.9, domain.RankingSemanticMatch, domain.SearchMethodHybrid)}
	}}
	composer := mockComposer{fn: func(context.Context, domain.QueryComponents, []result.Result) rag.Answer {
		return rag.Answer{Text: "fallback answer", Confidence: 0.9, Fallback: true}
	}}
	f := newFacade(t, retriever, reranker, composer)

	resp, err := f.Search(context.Background(), "quán ăn", mode.RAG, 5, filter.Expression{}, false, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.SearchMethodAdvancedRAGFallback, resp.Metadata.SearchMethod)
	assert.Equal(t, "fallback answer", resp.Answer)
}

// TestSearch_RAGOverloadDegradesWithDistinctSearchMethod exercises spec.md's
// degradation rule: when the RAG concurrency cap is exhausted, the excess
// request is served as hybrid (no generation) but must be distinguishable
// from a genuinely requested mode=hybrid search.
func TestSearch_RAGOverloadDegradesWithDistinctSearchMethod(t *testing.T) {
	retriever := mockRetriever{fn: func(context.Context, domain.QueryComponents, int, filter.Expression, mode.Mode) ([]retrieval.Candidate, retrieval.Strategy, error) {
		return []retrieval.Candidate{candidate("v1")}, retrieval.Strategy{}, nil
	}}
	reranker := mockReranker{fn: func(cands []retrieval.Candidate, _ domain.QueryComponents, _ int, _ bool) []result.Result {
		return []result.Result{result.FromVoucher(cands[0].Voucher, 0.9, 0.9, domain.RankingSemanticMatch, domain.SearchMethodHybrid)}
	}}

	started := make(chan struct{})
	release := make(chan struct{})
	composer := mockComposer{fn: func(context.Context, domain.QueryComponents, []result.Result) rag.Answer {
		close(started)
		<-release
		return rag.Answer{Text: "câu trả lời", Confidence: 0.8}
	}}

	parser := mockParser{fn: func(raw string) domain.QueryComponents {
		return domain.QueryComponents{Original: raw, Normalized: raw, Intent: domain.IntentGeneral}
	}}
	f := New(parser, retriever, reranker, composer, Config{RAGConcurrencyLimit: 1, EmbeddingDimension: 768})

	type outcome struct {
		resp *Response
		err  error
	}
	firstDone := make(chan outcome, 1)
	go func() {
		resp, err := f.Search(context.Background(), "quán ăn", mode.RAG, 5, filter.Expression{}, false, 0)
		firstDone <- outcome{resp, err}
	}()

	<-started // first call now holds the only concurrency slot

	resp, err := f.Search(context.Background(), "quán ăn", mode.RAG, 5, filter.Expression{}, false, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.SearchMethodRAGOverloaded, resp.Metadata.SearchMethod)
	assert.Empty(t, resp.Answer)

	close(release)
	first := <-firstDone
	require.NoError(t, first.err)
	assert.Equal(t, domain.SearchMethodRAG, first.resp.Metadata.SearchMethod)
}

func TestSearch_PropagatesRetrievalError(t *testing.T) {
	retriever := mockRetriever{fn: func(context.Context, domain.QueryComponents, int, filter.Expression, mode.Mode) ([]retrieval.Candidate, retrieval.Strategy, error) {
		return nil, retrieval.Strategy{}, domain.ErrIndexUnavailable
	}}
	f := newFacade(t, retriever, mockReranker{}, nil)

	_, err := f.Search(context.Background(), "quán ăn", mode.Hybrid, 5, filter.Expression{}, false, 0)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}
