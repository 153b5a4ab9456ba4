package request

import (
	"fmt"
	"unicode/utf8"

	"github.com/hoanganh/voucherd/internal/domain/search/filter"
	"github.com/hoanganh/voucherd/internal/domain/search/mode"
)

// Search parameter limits and defaults.
const (
	MinQueryLength = 2
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MinTopK        = 1
	MaxTopK        = 50
)

// Request is a validated search request accepted by the search façade.
type Request struct {
	query          string
	searchMode     mode.Mode
	filters        filter.Expression
	topK           int
	strictLocation bool
	minScore       float64
}

// New validates and normalizes search parameters. query must already be
// normalized (the caller normalizes before constructing a Request) — the
// length bounds below are rune counts against that normalized form, per
// spec.md §6/§8's character-count floor, not a byte count.
// Defaults: mode=hybrid, topK=10, strictLocation=false, minScore=0.
func New(
	query string,
	m mode.Mode,
	filters filter.Expression,
	topK int,
	strictLocation bool,
	minScore float64,
) (Request, error) {
	queryLen := utf8.RuneCountInString(query)
	if queryLen < MinQueryLength {
		return Request{}, fmt.Errorf("query must be at least %d characters after normalization", MinQueryLength)
	}
	if queryLen > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK < MinTopK || topK > MaxTopK {
		return Request{}, fmt.Errorf("top_k must be between %d and %d", MinTopK, MaxTopK)
	}
	if minScore < 0 || minScore > 1 {
		return Request{}, fmt.Errorf("min_score must be between 0 and 1")
	}

	return Request{
		query:          query,
		searchMode:     m,
		filters:        filters,
		topK:           topK,
		strictLocation: strictLocation,
		minScore:       minScore,
	}, nil
}

// Query returns the normalized search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search façade's operating mode.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filters returns the pre-filter expression (location/service/price_range).
func (r *Request) Filters() filter.Expression { return r.filters }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }

// StrictLocation reports whether non-matching-location candidates must be dropped.
func (r *Request) StrictLocation() bool { return r.strictLocation }

// MinScore returns the minimum similarity threshold, applied after boosting.
func (r *Request) MinScore() float64 { return r.minScore }
