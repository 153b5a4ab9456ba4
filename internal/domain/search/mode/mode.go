package mode

// Mode is the search façade's operating mode.
type Mode string

// Search mode constants.
const (
	// Vector skips parsing beyond normalization and scores against combined_emb only.
	Vector Mode = "vector"
	// Hybrid runs the full parser, retrieval engine and geographic re-ranker.
	Hybrid Mode = "hybrid"
	// RAG runs the full hybrid pipeline plus the RAG composer.
	RAG Mode = "rag"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Vector || m == Hybrid || m == RAG
}
