package voucher

import "github.com/hoanganh/voucherd/internal/domain"

// jsonDoc mirrors the JSON layout stored under KeyPrefix+id, keeping storage
// concerns (flat vector fields) separate from the domain.Voucher shape.
// voucher_name and content are each indexed as their own weighted TEXT field
// (see schema.go) rather than concatenated, so RediSearch's WEIGHT
// mechanism alone drives the name^3/content^1 best-fields boost.
type jsonDoc struct {
	ID              string    `json:"id"`
	Name            string    `json:"voucher_name"`
	Content         string    `json:"content"`
	Location        string    `json:"location"`
	District        string    `json:"district,omitempty"`
	Region          string    `json:"region"`
	Service         jsonSvc   `json:"service"`
	TargetAudience  string    `json:"target_audience"`
	Price           float64   `json:"price"`
	HasPrice        bool      `json:"has_price"`
	PriceRange      string    `json:"price_range"`
	DataQualityScore float64  `json:"data_quality_score"`

	ContentEmb     []float32 `json:"content_emb,omitempty"`
	VoucherNameEmb []float32 `json:"voucher_name_emb,omitempty"`
	LocationEmb    []float32 `json:"location_emb,omitempty"`
	ServiceEmb     []float32 `json:"service_emb,omitempty"`
	TargetEmb      []float32 `json:"target_emb,omitempty"`
	CombinedEmb    []float32 `json:"combined_emb,omitempty"`
}

type jsonSvc struct {
	Category       string   `json:"category"`
	SubType        string   `json:"sub_type,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	HasKidsArea    bool     `json:"has_kids_area"`
	RestaurantType string   `json:"restaurant_type,omitempty"`
}

func toJSONDoc(v *domain.Voucher) jsonDoc {
	return jsonDoc{
		ID:               v.ID,
		Name:             v.Name,
		Content:          v.Content,
		Location:         v.Location,
		District:         v.District,
		Region:           v.Region,
		Service: jsonSvc{
			Category:       v.Service.Category,
			SubType:        v.Service.SubType,
			Tags:           v.Service.Tags,
			HasKidsArea:    v.Service.HasKidsArea,
			RestaurantType: v.Service.RestaurantType,
		},
		TargetAudience:   v.TargetAudience,
		Price:            v.Price,
		HasPrice:         v.HasPrice,
		PriceRange:       v.PriceRange,
		DataQualityScore: v.DataQualityScore,
		ContentEmb:       v.Embeddings[domain.FieldContent],
		VoucherNameEmb:   v.Embeddings[domain.FieldName],
		LocationEmb:      v.Embeddings[domain.FieldLocation],
		ServiceEmb:       v.Embeddings[domain.FieldService],
		TargetEmb:        v.Embeddings[domain.FieldTarget],
		CombinedEmb:      v.Embeddings[domain.FieldCombined],
	}
}

func fromJSONDoc(d jsonDoc) *domain.Voucher {
	embeddings := map[string][]float32{}
	if len(d.ContentEmb) > 0 {
		embeddings[domain.FieldContent] = d.ContentEmb
	}
	if len(d.VoucherNameEmb) > 0 {
		embeddings[domain.FieldName] = d.VoucherNameEmb
	}
	if len(d.LocationEmb) > 0 {
		embeddings[domain.FieldLocation] = d.LocationEmb
	}
	if len(d.ServiceEmb) > 0 {
		embeddings[domain.FieldService] = d.ServiceEmb
	}
	if len(d.TargetEmb) > 0 {
		embeddings[domain.FieldTarget] = d.TargetEmb
	}
	if len(d.CombinedEmb) > 0 {
		embeddings[domain.FieldCombined] = d.CombinedEmb
	}

	return &domain.Voucher{
		ID:               d.ID,
		Name:             d.Name,
		Content:          d.Content,
		Location:         d.Location,
		District:         d.District,
		Region:           d.Region,
		Service: domain.Service{
			Category:       d.Service.Category,
			SubType:        d.Service.SubType,
			Tags:           d.Service.Tags,
			HasKidsArea:    d.Service.HasKidsArea,
			RestaurantType: d.Service.RestaurantType,
		},
		TargetAudience:   d.TargetAudience,
		Price:            d.Price,
		HasPrice:         d.HasPrice,
		PriceRange:       d.PriceRange,
		DataQualityScore: d.DataQualityScore,
		Embeddings:       embeddings,
	}
}

// fieldToVectorAlias maps a domain.Field* constant to its FT index alias.
func fieldToVectorAlias(field string) string {
	switch field {
	case domain.FieldContent:
		return "content_emb"
	case domain.FieldName:
		return "voucher_name_emb"
	case domain.FieldLocation:
		return "location_emb"
	case domain.FieldService:
		return "service_emb"
	case domain.FieldTarget:
		return "target_emb"
	case domain.FieldCombined:
		return "combined_emb"
	default:
		return field
	}
}
