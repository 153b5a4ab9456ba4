package result

import "github.com/hoanganh/voucherd/internal/domain"

// Result is a single search hit returned by the search façade.
type Result struct {
	voucherID       string
	voucherName     string
	contentSnippet  string
	location        string
	serviceInfo     string
	priceInfo       string
	targetAudience  string
	similarityScore float64
	rawScore        float64
	rankingFactor   string
	searchMethod    string
}

// New creates a search result.
func New(
	voucherID, voucherName, contentSnippet, location, serviceInfo, priceInfo, targetAudience string,
	similarityScore, rawScore float64,
	rankingFactor, searchMethod string,
) Result {
	return Result{
		voucherID:       voucherID,
		voucherName:     voucherName,
		contentSnippet:  contentSnippet,
		location:        location,
		serviceInfo:     serviceInfo,
		priceInfo:       priceInfo,
		targetAudience:  targetAudience,
		similarityScore: similarityScore,
		rawScore:        rawScore,
		rankingFactor:   rankingFactor,
		searchMethod:    searchMethod,
	}
}

// VoucherID returns the stable voucher identifier.
func (r *Result) VoucherID() string { return r.voucherID }

// VoucherName returns the voucher's title.
func (r *Result) VoucherName() string { return r.voucherName }

// ContentSnippet returns a trimmed excerpt of the voucher's content.
func (r *Result) ContentSnippet() string { return r.contentSnippet }

// Location returns the voucher's canonical location.
func (r *Result) Location() string { return r.location }

// ServiceInfo returns a one-line summary of the voucher's service category.
func (r *Result) ServiceInfo() string { return r.serviceInfo }

// PriceInfo returns the voucher's price-range tag, or "unknown" when the
// voucher has no price.
func (r *Result) PriceInfo() string { return r.priceInfo }

// TargetAudience returns the voucher's target-audience tag.
func (r *Result) TargetAudience() string { return r.targetAudience }

// SimilarityScore returns the final score in [0,1] after all re-ranking.
func (r *Result) SimilarityScore() float64 { return r.similarityScore }

// RawScore returns the pre-boost score.
func (r *Result) RawScore() float64 { return r.rawScore }

// RankingFactor returns the tag explaining which rule set this result's final rank.
func (r *Result) RankingFactor() string { return r.rankingFactor }

// SearchMethod returns the tag recording which pipeline produced this result.
func (r *Result) SearchMethod() string { return r.searchMethod }

// WithSimilarityScore returns a copy with an updated similarity score, used by
// the geographic re-ranker after applying boosts.
func (r Result) WithSimilarityScore(score float64) Result {
	r.similarityScore = score
	return r
}

// WithRankingFactor returns a copy with an updated ranking factor.
func (r Result) WithRankingFactor(factor string) Result {
	r.rankingFactor = factor
	return r
}

const snippetMaxRunes = 240

// FromVoucher builds a search result from a voucher and its scoring, sharing
// the snippet/service/price summarization logic between the vector-mode
// fast path and the geographic re-ranker.
func FromVoucher(v *domain.Voucher, similarityScore, rawScore float64, rankingFactor, searchMethod string) Result {
	return New(
		v.ID, v.Name, snippet(v.Content), v.Location,
		serviceSummary(v.Service), priceInfo(v), v.TargetAudience,
		similarityScore, rawScore, rankingFactor, searchMethod,
	)
}

func snippet(content string) string {
	r := []rune(content)
	if len(r) <= snippetMaxRunes {
		return content
	}
	return string(r[:snippetMaxRunes]) + "…"
}

func serviceSummary(s domain.Service) string {
	if s.Category == "" {
		return ""
	}
	if s.SubType != "" {
		return s.Category + " · " + s.SubType
	}
	return s.Category
}

func priceInfo(v *domain.Voucher) string {
	if !v.HasPrice {
		return domain.PriceRangeUnknown
	}
	return v.PriceRange
}
