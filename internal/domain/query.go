package domain

// Intent is the parser's guess at the user's high-level goal, drawn from a
// fixed closed set.
type Intent string

const (
	IntentFindRestaurant     Intent = "find_restaurant"
	IntentFindHotel          Intent = "find_hotel"
	IntentFindEntertainment  Intent = "find_entertainment"
	IntentFindShopping       Intent = "find_shopping"
	IntentFindBeauty         Intent = "find_beauty"
	IntentFindTravel         Intent = "find_travel"
	IntentFindKids           Intent = "find_kids"
	IntentGeneral            Intent = "general"
)

// AllIntents lists every intent (excluding general) in a fixed lexical order.
// Intent detection ties are broken by this order: the first intent in this
// slice with the maximum score wins.
var AllIntents = []Intent{
	IntentFindBeauty,
	IntentFindEntertainment,
	IntentFindHotel,
	IntentFindKids,
	IntentFindRestaurant,
	IntentFindShopping,
	IntentFindTravel,
}

// Ranking factors explaining which rule produced a result's final rank.
const (
	RankingExactLocationMatch  = "exact_location_match"
	RankingNearbyLocationMatch = "nearby_location_match"
	RankingRegionalMatch       = "regional_match"
	RankingSemanticMatch       = "semantic_match"
)

// Search method tags recording which pipeline produced a response.
const (
	SearchMethodVector              = "vector"
	SearchMethodHybrid              = "hybrid"
	SearchMethodRAG                 = "rag"
	SearchMethodAdvancedRAGFallback = "advanced_rag_fallback"
	// SearchMethodRAGOverloaded marks a caller-requested mode=rag search that
	// was served as hybrid (no generation) because the RAG concurrency cap was
	// exhausted, per spec.md's degradation rule — distinct from a genuinely
	// requested mode=hybrid search and from the generator-failure fallback.
	SearchMethodRAGOverloaded = "rag_overloaded"
)

// QueryComponents is the parser's structured interpretation of a raw query.
type QueryComponents struct {
	Original            string
	Normalized          string
	Stripped            string
	Intent              Intent
	Location            string // canonical name, or "" if unresolved
	ServiceRequirements []string
	TargetAudience      string
	PricePreference     string // one of the PriceRange* tags, or ""
	Keywords            []string
	Confidence          float64
}

// HasLocation reports whether a location was resolved.
func (q QueryComponents) HasLocation() bool { return q.Location != "" }

// HasServiceRequirements reports whether any service tag was matched.
func (q QueryComponents) HasServiceRequirements() bool { return len(q.ServiceRequirements) > 0 }

// HasTargetAudience reports whether a target-audience tag was matched.
func (q QueryComponents) HasTargetAudience() bool { return q.TargetAudience != "" }
