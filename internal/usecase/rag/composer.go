package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jdkato/prose/v2"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/result"
)

const systemPromptTemplate = `Bạn là trợ lý tìm kiếm ưu đãi (voucher) tại Việt Nam.
Chỉ trả lời dựa trên thông tin ưu đãi được cung cấp trong phần ngữ cảnh bên dưới.
Không được bịa ra bất kỳ ưu đãi nào không có trong ngữ cảnh.
Nếu ngữ cảnh không đủ để trả lời, hãy nói rõ điều đó.
Luôn đề xuất tối đa một câu hỏi làm rõ nếu cần thiết.
Phong cách trả lời: %s.`

// Composer implements §4.8: context assembly, prompting, confidence scoring,
// and the deterministic fallback path.
type Composer struct {
	generator        Generator
	maxContextTokens int
}

func New(generator Generator, maxContextTokens int) *Composer {
	if maxContextTokens <= 0 {
		maxContextTokens = 4000
	}
	return &Composer{generator: generator, maxContextTokens: maxContextTokens}
}

// Compose builds the grounded answer for a query against its retrieved
// results. On generator failure or timeout it returns a templated fallback
// with Answer.Fallback = true; the caller is responsible for setting
// search_method = advanced_rag_fallback on that path.
func (c *Composer) Compose(ctx context.Context, q domain.QueryComponents, results []result.Result) Answer {
	if len(results) == 0 {
		return Answer{Text: "Không tìm thấy ưu đãi phù hợp. Vui lòng thử một truy vấn khác.", Confidence: 0}
	}

	confidence := computeConfidence(results)
	style := selectStyle(q)
	contextBlock, used := assembleContext(results, c.maxContextTokens)

	systemPrompt := fmt.Sprintf(systemPromptTemplate, style)
	userPrompt := fmt.Sprintf("Câu hỏi: %s\n\nNgữ cảnh ưu đãi:\n%s", q.Original, contextBlock)

	text, err := c.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return Answer{Text: fallbackTemplate(results[:used]), Confidence: confidence, Fallback: true}
	}
	return Answer{Text: text, Confidence: confidence}
}

// computeConfidence implements §4.8's formula exactly.
func computeConfidence(results []result.Result) float64 {
	var sum float64
	for _, r := range results {
		sum += r.SimilarityScore()
	}
	mean := sum / float64(len(results))
	if mean < 0 {
		mean = 0
	}
	if mean > 1 {
		mean = 1
	}
	confidence := mean
	if len(results) >= 3 {
		confidence *= 1.1
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func selectStyle(q domain.QueryComponents) responseStyle {
	switch {
	case q.HasLocation():
		return styleLocation
	case q.HasServiceRequirements():
		return styleService
	case q.HasTargetAudience():
		return styleTarget
	default:
		return styleGeneral
	}
}

// assembleContext concatenates one templated block per voucher, in
// retrieval order, until the token budget is exhausted. Returns the joined
// blocks and the number of vouchers actually included.
func assembleContext(results []result.Result, maxTokens int) (string, int) {
	var b strings.Builder
	var tokensSoFar int
	included := 0

	for _, r := range results {
		block := formatBlock(r)
		blockTokens := estimateTokens(block)
		if included > 0 && tokensSoFar+blockTokens > maxTokens {
			break
		}
		b.WriteString(block)
		b.WriteString("\n\n")
		tokensSoFar += blockTokens
		included++
	}
	return b.String(), included
}

func formatBlock(r result.Result) string {
	return fmt.Sprintf(
		"- Tên: %s\n  Khu vực: %s\n  Dịch vụ: %s\n  Giá: %s\n  Nội dung: %s\n  Độ liên quan: %.2f",
		r.VoucherName(), r.Location(), r.ServiceInfo(), r.PriceInfo(), r.ContentSnippet(), r.SimilarityScore(),
	)
}

// estimateTokens counts words as a rough proxy for LLM tokens. prose is an
// English-oriented tokenizer, but its whitespace/punctuation splitting works
// well enough on space-delimited Vietnamese text for a budget estimate; no
// other tokenizer is available in the dependency pack.
func estimateTokens(text string) int {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false), prose.WithTagging(false))
	if err != nil {
		return len(strings.Fields(text))
	}
	return len(doc.Tokens())
}

// fallbackTemplate implements the deterministic Markdown answer used when
// the generator is unavailable or times out. Each bullet carries a short
// random citation marker; the marker is not stored on the result, so it
// only tells the bullets of one answer apart.
func fallbackTemplate(results []result.Result) string {
	var b strings.Builder
	b.WriteString("Không thể tạo câu trả lời tự động lúc này. Dưới đây là các ưu đãi phù hợp nhất:\n\n")
	for _, r := range results {
		b.WriteString(fmt.Sprintf("- **%s** (%s) [ref:%s]: %s\n", r.VoucherName(), r.Location(), citationID(), oneLineTip(r)))
	}
	return b.String()
}

// citationID mints a short, unique citation marker for a fallback bullet.
func citationID() string {
	return uuid.New().String()[:8]
}

func oneLineTip(r result.Result) string {
	if r.ServiceInfo() != "" {
		return r.ServiceInfo()
	}
	return "Xem chi tiết ưu đãi để biết thêm thông tin."
}
