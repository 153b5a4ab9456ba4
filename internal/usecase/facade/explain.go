package facade

import (
	"fmt"
	"strings"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/result"
	"github.com/hoanganh/voucherd/internal/usecase/retrieval"
)

// explain builds one mechanically-derived explanation per result: how the
// query was understood plus why this result ranked where it did.
func explain(q domain.QueryComponents, strategy retrieval.Strategy, results []result.Result) []string {
	parseSummary := explainQuery(q)

	out := make([]string, len(results))
	for i, r := range results {
		out[i] = fmt.Sprintf("%s %s", parseSummary, explainRanking(r))
	}
	return out
}

func explainQuery(q domain.QueryComponents) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phân tích query: '%s' — ý định: %s", q.Original, q.Intent)
	if q.HasLocation() {
		fmt.Fprintf(&b, ", địa điểm: %s", q.Location)
	}
	if q.HasServiceRequirements() {
		fmt.Fprintf(&b, ", yêu cầu dịch vụ: %s", strings.Join(q.ServiceRequirements, ", "))
	}
	if q.HasTargetAudience() {
		fmt.Fprintf(&b, ", đối tượng: %s", q.TargetAudience)
	}
	fmt.Fprintf(&b, " (độ tin cậy: %.2f).", q.Confidence)
	return b.String()
}

func explainRanking(r result.Result) string {
	switch r.RankingFactor() {
	case domain.RankingExactLocationMatch:
		return fmt.Sprintf("Xếp hạng cao do khớp chính xác địa điểm '%s'.", r.Location())
	case domain.RankingNearbyLocationMatch:
		return fmt.Sprintf("Xếp hạng do '%s' là khu vực lân cận địa điểm truy vấn.", r.Location())
	case domain.RankingRegionalMatch:
		return fmt.Sprintf("Xếp hạng do '%s' cùng miền với địa điểm truy vấn.", r.Location())
	default:
		return "Xếp hạng dựa trên độ tương đồng ngữ nghĩa."
	}
}
