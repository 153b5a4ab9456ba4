package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	for _, m := range []Mode{Vector, Hybrid, RAG} {
		assert.Truef(t, m.IsValid(), "%q.IsValid()", m)
	}

	for _, m := range []Mode{"", "semantic", "keyword", "HYBRID"} {
		assert.Falsef(t, m.IsValid(), "%q.IsValid()", m)
	}
}

func TestConstants(t *testing.T) {
	assert.Equal(t, Mode("vector"), Vector)
	assert.Equal(t, Mode("hybrid"), Hybrid)
	assert.Equal(t, Mode("rag"), RAG)
}
