// Package rag assembles retrieved vouchers into a grounded chat prompt and
// composes the final answer, falling back to a deterministic template when
// the generator is unavailable.
package rag

import (
	"context"
)

// Generator produces a chat completion from a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Answer is the composed RAG response.
type Answer struct {
	Text       string
	Confidence float64
	Fallback   bool
}

// responseStyle biases prompt formatting without changing factual rules.
type responseStyle string

const (
	styleLocation responseStyle = "location"
	styleService  responseStyle = "service"
	styleTarget   responseStyle = "target"
	styleGeneral  responseStyle = "general"
)
