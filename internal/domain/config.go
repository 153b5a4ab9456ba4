package domain

// VectorConfig holds embedding model settings shared by every dense field
// in the multi-field index (content, voucher_name, location, service, target,
// combined).
type VectorConfig struct {
	Model               string
	Dimensions          int
	DistanceMetric      string
	Algorithm           string
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the reference configuration: 768 dimensions,
// cosine distance, HNSW indexing.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:               "text-embedding-vi-768",
		Dimensions:          768,
		DistanceMetric:      "cosine",
		Algorithm:           "hnsw",
		DocumentInstruction: "Represent this Vietnamese voucher description for retrieval:",
		QueryInstruction:    "Represent this Vietnamese search query for retrieving relevant vouchers:",
	}
}
