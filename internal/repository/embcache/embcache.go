// Package embcache decorates an embedder with a persistent cache keyed by
// the hash of the (instruction-prefixed) input text, so repeated queries and
// re-indexed documents skip the provider round trip entirely.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hoanganh/voucherd/internal/db"
	"github.com/hoanganh/voucherd/internal/domain"
)

// kvStore is the consumer interface for cache persistence (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedEmbedder decorates an embedder with a cache-aside layer.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   kvStore
	cacheMx *prometheus.CounterVec
	logger  *zap.Logger
}

// New creates a cache-aside decorator. cacheMx may be nil (metrics disabled).
func New(inner domain.Embedder, store kvStore, cacheMx *prometheus.CounterVec, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: store, cacheMx: cacheMx, logger: logger}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return domain.KeyPrefix + "embcache:" + hex.EncodeToString(sum[:])
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func cacheBytesToVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	return v
}

func (c *CachedEmbedder) record(result string) {
	if c.cacheMx != nil {
		c.cacheMx.WithLabelValues(result).Inc()
	}
}

// Embed returns the cached vector for text if present, otherwise embeds via
// the inner provider and populates the cache.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := cacheKey(text)

	cached, err := c.store.Get(ctx, key)
	if err == nil {
		c.record("hit")
		return domain.EmbeddingResult{Embedding: cacheBytesToVector(cached)}, nil
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		c.logger.Warn("embedding cache get failed", zap.Error(err))
	}
	c.record("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	if err := c.store.Set(ctx, key, vectorToCacheBytes(result.Embedding)); err != nil {
		c.logger.Warn("embedding cache set failed", zap.Error(err))
	}
	return result, nil
}

// BatchEmbed resolves cache hits directly and sends only the misses to the
// inner batch embedder, splicing results back into their original positions.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	embeddings := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		key := cacheKey(text)
		cached, err := c.store.Get(ctx, key)
		if err == nil {
			embeddings[i] = cacheBytesToVector(cached)
			c.record("hit")
			continue
		}
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("embedding cache get failed", zap.Error(err))
		}
		c.record("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
	}

	be, ok := c.inner.(domain.BatchEmbedder)
	var res domain.BatchEmbeddingResult
	var err error
	if ok {
		res, err = be.BatchEmbed(ctx, missTexts)
	} else {
		res, err = domain.BatchFallback(ctx, c.inner, missTexts)
	}
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed misses: %w", err)
	}
	if len(res.Embeddings) != len(missTexts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed returned %d results, want %d", len(res.Embeddings), len(missTexts))
	}

	for i, idx := range missIdx {
		embeddings[idx] = res.Embeddings[i]
		if err := c.store.Set(ctx, cacheKey(texts[idx]), vectorToCacheBytes(res.Embeddings[i])); err != nil {
			c.logger.Warn("embedding cache set failed", zap.Error(err))
		}
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// HealthCheck delegates to the inner embedder if it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
