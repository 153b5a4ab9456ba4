// Package georank applies the geographic boosting cascade to retrieval
// candidates and produces the final ordered, top_k-truncated result set.
package georank

import (
	"sort"
	"strings"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/result"
	"github.com/hoanganh/voucherd/internal/location"
	"github.com/hoanganh/voucherd/internal/metrics"
	"github.com/hoanganh/voucherd/internal/normalizer"
	"github.com/hoanganh/voucherd/internal/usecase/retrieval"
)

const (
	boostExactLocation = 1.60
	boostContentMatch  = 1.30
	boostNeighbor      = 1.15
	boostRegional      = 1.05
)

// Ranker applies §4.7's multiplicative boosts, tie-breaks, and truncation.
type Ranker struct {
	registry *location.Registry
}

func New(registry *location.Registry) *Ranker {
	return &Ranker{registry: registry}
}

// Rank boosts every candidate, optionally drops non-matching candidates in
// strict-location mode, sorts descending with the fixed tie-break, and
// truncates to topK.
func (r *Ranker) Rank(
	candidates []retrieval.Candidate, q domain.QueryComponents, topK int, strictLocation bool,
) []result.Result {
	boosted := make([]boostedCandidate, 0, len(candidates))

	for _, c := range candidates {
		factor, multiplier := r.boostFactor(c.Voucher, q.Location)

		if strictLocation && q.HasLocation() && !r.matchesAtLeastNeighbor(c.Voucher, q.Location) {
			continue
		}

		score := clamp01(c.Similarity * multiplier)
		boosted = append(boosted, boostedCandidate{
			candidate: c,
			score:     score,
			factor:    factor,
		})
		metrics.GeoBoostAppliedTotal.WithLabelValues(factor).Inc()
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		a, b := boosted[i], boosted[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.candidate.RawDenseScore != b.candidate.RawDenseScore {
			return a.candidate.RawDenseScore > b.candidate.RawDenseScore
		}
		if a.candidate.Voucher.DataQualityScore != b.candidate.Voucher.DataQualityScore {
			return a.candidate.Voucher.DataQualityScore > b.candidate.Voucher.DataQualityScore
		}
		return a.candidate.Voucher.ID < b.candidate.Voucher.ID
	})

	if len(boosted) > topK {
		boosted = boosted[:topK]
	}

	out := make([]result.Result, 0, len(boosted))
	for _, b := range boosted {
		out = append(out, toResult(b))
	}
	return out
}

type boostedCandidate struct {
	candidate retrieval.Candidate
	score     float64
	factor    string
}

// boostFactor implements the ordered boosting cascade in §4.7.
func (r *Ranker) boostFactor(v *domain.Voucher, queryLocation string) (string, float64) {
	if queryLocation == "" {
		return domain.RankingSemanticMatch, 1.0
	}
	if v.Location == queryLocation {
		return domain.RankingExactLocationMatch, boostExactLocation
	}
	if v.Location != domain.LocationUnknown && contentMentionsLocation(v.Content, r.registry.SurfaceForms(queryLocation)) {
		return domain.RankingSemanticMatch, boostContentMatch
	}
	if r.registry.IsNeighbor(queryLocation, v.Location) {
		return domain.RankingNearbyLocationMatch, boostNeighbor
	}
	if r.registry.RegionOf(v.Location) != "" && r.registry.RegionOf(v.Location) == r.registry.RegionOf(queryLocation) {
		return domain.RankingRegionalMatch, boostRegional
	}
	return domain.RankingSemanticMatch, 1.0
}

func (r *Ranker) matchesAtLeastNeighbor(v *domain.Voucher, queryLocation string) bool {
	if v.Location == queryLocation {
		return true
	}
	return r.registry.IsNeighbor(queryLocation, v.Location)
}

func contentMentionsLocation(content string, surfaceForms []string) bool {
	if content == "" {
		return false
	}
	normalized, stripped := normalizer.Normalize(content)
	for _, sf := range surfaceForms {
		if strings.Contains(normalized, sf) || strings.Contains(stripped, sf) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toResult(b boostedCandidate) result.Result {
	return result.FromVoucher(
		b.candidate.Voucher, b.score, b.candidate.Similarity, b.factor, domain.SearchMethodHybrid,
	)
}
