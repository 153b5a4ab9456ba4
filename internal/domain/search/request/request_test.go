package request

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanganh/voucherd/internal/domain/search/filter"
	"github.com/hoanganh/voucherd/internal/domain/search/mode"
)

func emptyFilters() filter.Expression {
	e, _ := filter.NewExpression(nil, nil, nil)
	return e
}

func TestNew_Defaults(t *testing.T) {
	r, err := New("hai phong", "", emptyFilters(), 0, false, 0)
	require.NoError(t, err)

	assert.Equal(t, "hai phong", r.Query())
	assert.Equal(t, mode.Hybrid, r.Mode())
	assert.Equal(t, DefaultTopK, r.TopK())
	assert.False(t, r.StrictLocation())
	assert.Zero(t, r.MinScore())
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New("query", mode.Vector, emptyFilters(), 25, true, 0.5)
	require.NoError(t, err)

	assert.Equal(t, mode.Vector, r.Mode())
	assert.Equal(t, 25, r.TopK())
	assert.True(t, r.StrictLocation())
	assert.InDelta(t, 0.5, r.MinScore(), 1e-9)
}

func TestNew_QueryTooShort(t *testing.T) {
	for _, q := range []string{"", "a"} {
		_, err := New(q, mode.Hybrid, emptyFilters(), 10, false, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least")
	}
}

func TestNew_QueryExactlyMinLength(t *testing.T) {
	_, err := New("ok", mode.Hybrid, emptyFilters(), 10, false, 0)
	require.NoError(t, err)
}

// A single precomposed Vietnamese character is 2+ bytes in UTF-8 (e.g. "á"
// U+00E1, "đ" U+0111) but must still fail the ≥2 *character* floor — a byte
// count would wrongly accept it.
func TestNew_QueryTooShort_MultiByteRune(t *testing.T) {
	for _, q := range []string{"á", "đ"} {
		_, err := New(q, mode.Hybrid, emptyFilters(), 10, false, 0)
		require.Errorf(t, err, "query %q (rune count 1, byte length %d) must be rejected", q, len(q))
		assert.Contains(t, err.Error(), "at least")
	}
}

// Two Vietnamese characters clear the same floor a byte count would put at 4.
func TestNew_QueryExactlyMinLength_MultiByteRunes(t *testing.T) {
	_, err := New("đá", mode.Hybrid, emptyFilters(), 10, false, 0)
	require.NoError(t, err)
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(strings.Repeat("x", MaxQueryLength+1), mode.Hybrid, emptyFilters(), 10, false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too long")
}

func TestNew_InvalidMode(t *testing.T) {
	_, err := New("query", "semantic", emptyFilters(), 10, false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search mode")
}

func TestNew_AllValidModes(t *testing.T) {
	for _, m := range []mode.Mode{mode.Vector, mode.Hybrid, mode.RAG} {
		_, err := New("query", m, emptyFilters(), 10, false, 0)
		assert.NoErrorf(t, err, "mode %q", m)
	}
}

func TestNew_TopKBounds(t *testing.T) {
	tests := []struct {
		name    string
		topK    int
		wantErr bool
		want    int
	}{
		{"zero uses default", 0, false, DefaultTopK},
		{"minimum", 1, false, 1},
		{"maximum", 50, false, 50},
		{"over max", 51, true, 0},
		{"negative", -1, false, DefaultTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New("query", mode.Hybrid, emptyFilters(), tt.topK, false, 0)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.TopK())
		})
	}
}

func TestNew_MinScoreValidation(t *testing.T) {
	for _, s := range []float64{0, 0.5, 1} {
		_, err := New("query", mode.Hybrid, emptyFilters(), 10, false, s)
		assert.NoErrorf(t, err, "min_score=%f", s)
	}
	for _, s := range []float64{-0.1, 1.1} {
		_, err := New("query", mode.Hybrid, emptyFilters(), 10, false, s)
		assert.Errorf(t, err, "min_score=%f", s)
	}
}

func TestNew_WithFilters(t *testing.T) {
	m, _ := filter.NewMatch("location", "Hai Phong")
	expr, _ := filter.NewExpression([]filter.Condition{m}, nil, nil)

	r, err := New("query", mode.Hybrid, expr, 10, false, 0)
	require.NoError(t, err)
	assert.False(t, r.Filters().IsEmpty())
}
