package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	r := New(
		"v-1", "Bellissimo", "Nhà hàng Ý ấm cúng...", "Hải Phòng",
		"Restaurant", "mid-range", "family",
		0.92, 0.81, "exact_location_match", "hybrid",
	)

	assert.Equal(t, "v-1", r.VoucherID())
	assert.Equal(t, "Bellissimo", r.VoucherName())
	assert.Equal(t, "Hải Phòng", r.Location())
	assert.Equal(t, "Restaurant", r.ServiceInfo())
	assert.Equal(t, "mid-range", r.PriceInfo())
	assert.Equal(t, "family", r.TargetAudience())
	assert.InDelta(t, 0.92, r.SimilarityScore(), 1e-9)
	assert.InDelta(t, 0.81, r.RawScore(), 1e-9)
	assert.Equal(t, "exact_location_match", r.RankingFactor())
	assert.Equal(t, "hybrid", r.SearchMethod())
}

func TestWithSimilarityScoreAndRankingFactor(t *testing.T) {
	r := New("v-1", "n", "c", "l", "s", "p", "t", 0.5, 0.5, "semantic_match", "hybrid")

	boosted := r.WithSimilarityScore(0.9).WithRankingFactor("exact_location_match")

	assert.InDelta(t, 0.9, boosted.SimilarityScore(), 1e-9)
	assert.Equal(t, "exact_location_match", boosted.RankingFactor())
	// original is untouched (value receiver copy)
	assert.InDelta(t, 0.5, r.SimilarityScore(), 1e-9)
	assert.Equal(t, "semantic_match", r.RankingFactor())
}
