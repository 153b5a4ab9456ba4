// Package voucher persists Voucher documents as Redis JSON and manages the
// multi-field vector index used for retrieval.
package voucher

import "github.com/hoanganh/voucherd/internal/db"

// IndexName is the FT index over voucher documents.
const IndexName = "idx:vouchers"

// KeyPrefix namespaces voucher document keys.
const KeyPrefix = "voucherd:voucher:"

// EmbeddingDimension is the fixed vector width for every embedding field.
const EmbeddingDimension = 768

// vectorFields lists the embedding fields carried on every voucher, keyed
// by their JSON path segment and their FT.CREATE field name.
var vectorFields = []string{
	"content_emb",
	"voucher_name_emb",
	"location_emb",
	"service_emb",
	"target_emb",
	"combined_emb",
}

// Definition builds the FT index schema for voucher documents: one HNSW
// vector field per embedding, plus scalar fields used for filtering.
func Definition() *db.IndexDefinition {
	fields := make([]db.IndexField, 0, len(vectorFields)+6)

	for _, name := range vectorFields {
		fields = append(fields, db.IndexField{
			Name:              "$." + name,
			Alias:             name,
			Type:              db.IndexFieldVector,
			VectorAlgo:        db.VectorHNSW,
			VectorDim:         EmbeddingDimension,
			VectorDistance:    db.DistanceCosine,
			VectorM:           16,
			VectorEFConstruct: 200,
		})
	}

	fields = append(fields,
		// §4.5(a): best-fields lexical match across {name (boost 3), content (boost 1)}.
		// RediSearch applies per-field WEIGHT at scoring time, so a query against
		// both @voucher_name and @content naturally favors name hits 3x over
		// content hits, matching the should-clause's intended boost ratio.
		db.IndexField{Name: "$.voucher_name", Alias: "voucher_name", Type: db.IndexFieldText, TextWeight: 3.0},
		db.IndexField{Name: "$.content", Alias: "content", Type: db.IndexFieldText, TextWeight: 1.0},
		db.IndexField{Name: "$.location", Alias: "location", Type: db.IndexFieldTag, TagSeparator: "|"},
		db.IndexField{Name: "$.region", Alias: "region", Type: db.IndexFieldTag, TagSeparator: "|"},
		db.IndexField{Name: "$.price_range", Alias: "price_range", Type: db.IndexFieldTag, TagSeparator: "|"},
		db.IndexField{Name: "$.service.category", Alias: "service_category", Type: db.IndexFieldTag, TagSeparator: "|"},
		db.IndexField{Name: "$.target_audience", Alias: "target_audience", Type: db.IndexFieldTag, TagSeparator: "|"},
		db.IndexField{Name: "$.price", Alias: "price", Type: db.IndexFieldNumeric},
	)

	return &db.IndexDefinition{
		Name:        IndexName,
		StorageType: db.StorageJSON,
		Prefixes:    []string{KeyPrefix},
		Fields:      fields,
	}
}
