package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/filter"
	"github.com/hoanganh/voucherd/internal/domain/search/mode"
	"github.com/hoanganh/voucherd/internal/repository/voucher"
)

// Strategy documents the choices the engine made for a single query, echoed
// back to the caller in the search response's search_strategy field.
type Strategy struct {
	Field           string
	AppliedBoosts   map[string]float64
	OverFetchedSize int
}

// Config carries the tunables from §4.6/§6: lexical score saturation and
// the over-fetch bound the geographic re-ranker shuffles within.
type Config struct {
	LexicalSaturation   float64
	OverFetchMultiplier int
	HardCap             int
	LocationDelta       float64
	ServiceDelta        float64
	TargetDelta         float64
}

// Engine runs Steps A-E of the retrieval algorithm.
type Engine struct {
	index    Index
	embedder Embedder
	cfg      Config
}

func New(index Index, embedder Embedder, cfg Config) *Engine {
	return &Engine{index: index, embedder: embedder, cfg: cfg}
}

// Search embeds the query and, per §4.6, either scores purely against the
// dense field (mode.Vector) or fans dense and lexical search out
// concurrently and fuses them (mode.Hybrid/mode.RAG). Candidates carry
// pre-boost similarity normalized to [0,1].
func (e *Engine) Search(
	ctx context.Context, q domain.QueryComponents, topK int, filters filter.Expression, m mode.Mode,
) ([]Candidate, Strategy, error) {
	field, boosts := e.selectField(q)
	overFetch := min(topK*e.cfg.OverFetchMultiplier, e.cfg.HardCap)
	strategy := Strategy{Field: field, AppliedBoosts: boosts, OverFetchedSize: overFetch}

	if m == mode.Vector {
		vec, err := e.embedQuery(ctx, q.Normalized)
		if err != nil {
			return nil, strategy, err
		}
		hits, err := e.index.SearchDense(ctx, field, vec, overFetch, filters)
		if err != nil {
			return nil, strategy, err
		}
		denseHits := toScoredHits(hits, true)
		return mergeHits(denseHits, nil, e.cfg.LexicalSaturation), strategy, nil
	}

	var denseHits, lexicalHits []scoredHit
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		vec, err := e.embedQuery(gctx, q.Normalized)
		if err != nil {
			return err
		}
		hits, err := e.index.SearchDense(gctx, field, vec, overFetch, filters)
		if err != nil {
			return err
		}
		denseHits = toScoredHits(hits, true)
		return nil
	})

	group.Go(func() error {
		hits, err := e.index.SearchLexical(gctx, q.Normalized, overFetch, filters)
		if err != nil {
			return err
		}
		lexicalHits = toScoredHits(hits, false)
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, strategy, err
	}

	return mergeHits(denseHits, lexicalHits, e.cfg.LexicalSaturation), strategy, nil
}

func (e *Engine) embedQuery(ctx context.Context, normalized string) ([]float32, error) {
	res, err := e.embedder.Embed(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, err)
	}
	return res.Embedding, nil
}

// selectField implements Step A: choose the dense field to score against.
// It also records the Step B delta of every query component present.
func (e *Engine) selectField(q domain.QueryComponents) (string, map[string]float64) {
	boosts := map[string]float64{}

	strongServiceCue := q.HasServiceRequirements()
	if q.HasLocation() {
		boosts["location"] = e.cfg.LocationDelta
	}
	if strongServiceCue {
		boosts["service"] = e.cfg.ServiceDelta
	}
	if q.HasTargetAudience() {
		boosts["target"] = e.cfg.TargetDelta
	}

	switch {
	case q.Intent == domain.IntentFindKids || q.Intent == domain.IntentGeneral:
		return domain.FieldCombined, boosts
	case q.HasLocation() && !strongServiceCue:
		return domain.FieldLocation, boosts
	case strongServiceCue:
		return domain.FieldService, boosts
	default:
		return domain.FieldCombined, boosts
	}
}

type scoredHit struct {
	voucher  *domain.Voucher
	score    float64
	hasDense bool
}

func toScoredHits(hits []voucher.ScoredVoucher, hasDense bool) []scoredHit {
	out := make([]scoredHit, len(hits))
	for i, h := range hits {
		out[i] = scoredHit{voucher: h.Voucher, score: h.Score, hasDense: h.HasDense}
	}
	return out
}

// mergeHits combines dense and lexical hits keyed by voucher ID, normalizing
// each per §4.6 Step E and taking the maximum of the two as the pre-boost
// similarity.
func mergeHits(dense, lexical []scoredHit, lexicalSaturation float64) []Candidate {
	byID := make(map[string]*Candidate, len(dense)+len(lexical))
	order := make([]string, 0, len(dense)+len(lexical))

	for _, h := range dense {
		denseSim := normalizeDense(h.score) // h.score is raw cosine distance in [0,2]
		c := &Candidate{Voucher: h.voucher, Similarity: denseSim, RawDenseScore: denseSim, HasDenseScore: true}
		byID[h.voucher.ID] = c
		order = append(order, h.voucher.ID)
	}

	for _, h := range lexical {
		lexSim := normalizeLexical(h.score, lexicalSaturation)
		if existing, ok := byID[h.voucher.ID]; ok {
			if lexSim > existing.Similarity {
				existing.Similarity = lexSim
			}
			continue
		}
		byID[h.voucher.ID] = &Candidate{Voucher: h.voucher, Similarity: lexSim}
		order = append(order, h.voucher.ID)
	}

	out := make([]Candidate, 0, len(order))
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, *byID[id])
	}
	return out
}

// normalizeDense turns a raw cosine distance (RediSearch COSINE metric,
// range [0,2]) into cosine similarity and rescales to [0,1] per §4.6 Step E:
// (cosine+1)/2, since cosine = 1 - distance.
func normalizeDense(distance float64) float64 {
	cosine := 1 - distance
	norm := (cosine + 1) / 2
	if norm < 0 {
		return 0
	}
	if norm > 1 {
		return 1
	}
	return norm
}

func normalizeLexical(score, saturation float64) float64 {
	if saturation <= 0 {
		saturation = 20
	}
	norm := score / saturation
	if norm > 1 {
		return 1
	}
	if norm < 0 {
		return 0
	}
	return norm
}
