package voucher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanganh/voucherd/internal/db"
	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/filter"
)

func TestUpsert_Create(t *testing.T) {
	repo, ms := newTestRepo(t)
	v := testVoucher(t)

	ms.existsFn = func(_ context.Context, k string) (bool, error) {
		assert.Equal(t, "voucherd:voucher:v-1", k)
		return false, nil
	}
	ms.jsonSetFn = func(_ context.Context, k, path string, _ []byte) error {
		assert.Equal(t, "voucherd:voucher:v-1", k)
		assert.Equal(t, "$", path)
		return nil
	}

	created, err := repo.Upsert(context.Background(), v)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestUpsert_RejectsInvalidVoucher(t *testing.T) {
	repo, _ := newTestRepo(t)
	v := testVoucher(t)
	v.Location = ""

	_, err := repo.Upsert(context.Background(), v)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestUpsert_Update(t *testing.T) {
	repo, ms := newTestRepo(t)
	v := testVoucher(t)

	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	created, err := repo.Upsert(context.Background(), v)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_ParsesWrappedArray(t *testing.T) {
	repo, ms := newTestRepo(t)
	doc := toJSONDoc(testVoucher(t))
	raw, err := json.Marshal([]jsonDoc{doc})
	require.NoError(t, err)

	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return raw, nil
	}

	got, err := repo.Get(context.Background(), "v-1")
	require.NoError(t, err)
	assert.Equal(t, "v-1", got.ID)
	assert.Equal(t, "Hải Phòng", got.Location)
}

func TestDelete_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_Success(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	called := false
	ms.delFn = func(_ context.Context, _ string) error {
		called = true
		return nil
	}

	err := repo.Delete(context.Background(), "v-1")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestList_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchListFn = func(
		_ context.Context, _, _ string, _, _ int, _ []string,
	) (*db.SearchResult, error) {
		return &db.SearchResult{}, nil
	}

	got, total, err := repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, got)
}

func TestSearchDense_DecodesHits(t *testing.T) {
	repo, ms := newTestRepo(t)
	doc := toJSONDoc(testVoucher(t))
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		assert.Equal(t, "combined_emb", q.Field)
		return &db.SearchResult{
			Total:   1,
			Entries: []db.SearchEntry{{Key: "voucherd:voucher:v-1", Score: 0.9, Fields: map[string]string{"$": string(raw)}}},
		}, nil
	}

	got, err := repo.SearchDense(context.Background(), domain.FieldCombined, unitVector(8, 1), 10, filter.Expression{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v-1", got[0].Voucher.ID)
	assert.True(t, got[0].HasDense)
}

func TestSearchDense_WrapsIndexError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("connection refused")
	}

	_, err := repo.SearchDense(context.Background(), domain.FieldCombined, unitVector(8, 1), 10, filter.Expression{})
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestList_PropagatesSearchError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchListFn = func(
		_ context.Context, _, _ string, _, _ int, _ []string,
	) (*db.SearchResult, error) {
		return nil, errors.New("boom")
	}

	_, _, err := repo.List(context.Background(), 0, 10)
	assert.Error(t, err)
}
