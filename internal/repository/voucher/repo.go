package voucher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hoanganh/voucherd/internal/db"
	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/filter"
)

// store is the consumer interface for voucher persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// ScoredVoucher pairs a decoded voucher with its raw index score.
type ScoredVoucher struct {
	Voucher  *domain.Voucher
	Score    float64
	HasDense bool
}

// Repo implements voucher CRUD against a JSON document store.
type Repo struct {
	store store
}

func New(s store) *Repo {
	return &Repo{store: s}
}

func key(id string) string {
	return KeyPrefix + id
}

// Upsert writes a validated voucher, replacing any prior version whole.
// Vouchers are never partially updated: a changed field always carries
// a fresh combined embedding, so partial writes would violate the
// combined-embedding invariant.
func (r *Repo) Upsert(ctx context.Context, v *domain.Voucher) (created bool, err error) {
	if err := v.Validate(); err != nil {
		return false, err
	}

	data, err := json.Marshal(toJSONDoc(v))
	if err != nil {
		return false, fmt.Errorf("marshal voucher %s: %w", v.ID, err)
	}

	exists, err := r.store.Exists(ctx, key(v.ID))
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", v.ID, err)
	}

	if err := r.store.JSONSet(ctx, key(v.ID), "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", v.ID, err)
	}
	return !exists, nil
}

// Get returns a voucher by ID.
func (r *Repo) Get(ctx context.Context, id string) (*domain.Voucher, error) {
	raw, err := r.store.JSONGet(ctx, key(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("json.get %s: %w", id, err)
	}

	var wrapped []jsonDoc
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		var single jsonDoc
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("unmarshal voucher %s: %w", id, err)
		}
		return fromJSONDoc(single), nil
	}
	if len(wrapped) == 0 {
		return nil, domain.ErrNotFound
	}
	return fromJSONDoc(wrapped[0]), nil
}

// Delete removes a voucher. Returns domain.ErrNotFound if it doesn't exist.
func (r *Repo) Delete(ctx context.Context, id string) error {
	exists, err := r.store.Exists(ctx, key(id))
	if err != nil {
		return fmt.Errorf("check exists %s: %w", id, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, key(id)); err != nil {
		return fmt.Errorf("del %s: %w", id, err)
	}
	return nil
}

// List returns vouchers with offset-based pagination.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]*domain.Voucher, int, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := r.store.SearchList(ctx, IndexName, "*", offset, limit, []string{"$"})
	if err != nil {
		return nil, 0, fmt.Errorf("search list vouchers: %w", err)
	}
	if result == nil || result.Total == 0 {
		return nil, 0, nil
	}

	out := make([]*domain.Voucher, 0, len(result.Entries))
	for _, entry := range result.Entries {
		raw, ok := entry.Fields["$"]
		if !ok {
			continue
		}
		var d jsonDoc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			continue
		}
		out = append(out, fromJSONDoc(d))
	}
	return out, result.Total, nil
}

// SearchDense runs a KNN vector search against the named embedding field
// (a domain.Field* constant) and decodes each hit back into a Voucher.
func (r *Repo) SearchDense(
	ctx context.Context, field string, vector []float32, k int, filters filter.Expression,
) ([]ScoredVoucher, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Field:        fieldToVectorAlias(field),
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"$"},
		RawScores:    true, // raw cosine distance, so the retrieval engine can derive (cosine+1)/2 itself
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexUnavailable, err)
	}
	return decodeHits(result, true), nil
}

// SearchLexical runs a BM25 best-fields text search over name/content.
func (r *Repo) SearchLexical(
	ctx context.Context, query string, k int, filters filter.Expression,
) ([]ScoredVoucher, error) {
	result, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    IndexName,
		Query:        query,
		Filters:      filters,
		TopK:         k,
		ReturnFields: []string{"$"},
		TextFields:   []string{"voucher_name", "content"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexUnavailable, err)
	}
	return decodeHits(result, false), nil
}

func decodeHits(result *db.SearchResult, hasDense bool) []ScoredVoucher {
	if result == nil {
		return nil
	}
	out := make([]ScoredVoucher, 0, len(result.Entries))
	for _, entry := range result.Entries {
		raw, ok := entry.Fields["$"]
		if !ok {
			continue
		}
		var d jsonDoc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			continue
		}
		out = append(out, ScoredVoucher{Voucher: fromJSONDoc(d), Score: entry.Score, HasDense: hasDense})
	}
	return out
}
