package db

import "github.com/hoanganh/voucherd/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName     string
	Field         string // vector field to score against, e.g. "combined_emb"
	Filters       filter.Expression
	Vector        []float32
	K             int
	ReturnFields  []string
	IncludeVector bool
	RawScores     bool // return __vector_score as-is (the raw distance) instead of 1-distance
}

// TextQuery is the input for BM25 text search.
type TextQuery struct {
	IndexName    string
	Query        string
	Filters      filter.Expression
	TopK         int
	ReturnFields []string
	// TextFields lists the field aliases searched as a best-fields group
	// (e.g. ["voucher_name", "content"]); their relative weight comes from
	// each field's WEIGHT at schema-definition time (§4.5(a)), not from this
	// query. Empty defaults to a single "content" field.
	TextFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
