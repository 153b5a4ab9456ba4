// Package parser turns a raw Vietnamese search query into structured
// components: intent, location, service/target requirements, price
// preference, keywords, and a confidence score.
package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/location"
	"github.com/hoanganh/voucherd/internal/normalizer"
)

const (
	patternHit   = 0.30
	exactHit     = 0.20
	scoreIntent  = 0.5
	scoreLoc     = 0.3
	scoreKeyword = 0.2

	minKeywordRunes = 2
)

// Parser resolves free-text Vietnamese queries into domain.QueryComponents.
type Parser struct {
	registry *location.Registry
}

func New(registry *location.Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse implements the query-understanding pipeline: normalize, detect
// intent, extract location, match service/target/price lexicons, pull
// keywords from what's left, then score overall confidence.
func (p *Parser) Parse(raw string) domain.QueryComponents {
	normalized, stripped := normalizer.Normalize(raw)

	intent, intentScore := detectIntent(normalized, stripped)
	loc, consumedSpan := p.extractLocation(normalized)
	services := matchLexicon(normalized, stripped, serviceLexicon)
	target := matchTarget(normalized, stripped)
	price := matchPrice(normalized, stripped)
	keywords := extractKeywords(normalized, consumedSpan)

	confidence := scoreIntent * intentScore
	if loc != "" {
		confidence += scoreLoc
	}
	if len(keywords) > 0 {
		confidence += scoreKeyword
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return domain.QueryComponents{
		Original:            raw,
		Normalized:          normalized,
		Stripped:            stripped,
		Intent:              intent,
		Location:            loc,
		ServiceRequirements: services,
		TargetAudience:      target,
		PricePreference:     price,
		Keywords:            keywords,
		Confidence:          confidence,
	}
}

// detectIntent scores every intent independently: +0.30 per pattern match
// against its own form (diacritic-bearing patterns against normalized text,
// stripped patterns against the stripped text), plus +0.20 for a pattern
// flagged exact. Scores are capped at 1.0. The winner is the highest score;
// ties break on domain.AllIntents' fixed lexical order. A max of 0 yields
// domain.IntentGeneral with a score of 0.
func detectIntent(normalized, stripped string) (domain.Intent, float64) {
	bestIntent := domain.IntentGeneral
	bestScore := 0.0

	for _, intent := range domain.AllIntents {
		set, ok := intentPatterns[string(intent)]
		if !ok {
			continue
		}
		score := scorePatterns(normalized, set.diacritic) + scorePatterns(stripped, set.stripped)
		if score > 1.0 {
			score = 1.0
		}
		if score > bestScore {
			bestScore = score
			bestIntent = intent
		}
	}

	if bestScore == 0 {
		return domain.IntentGeneral, 0
	}
	return bestIntent, bestScore
}

func scorePatterns(text string, patterns []pattern) float64 {
	var score float64
	for _, p := range patterns {
		if !p.re.MatchString(text) {
			continue
		}
		score += patternHit
		if p.exact {
			score += exactHit
		}
	}
	return score
}

// locationSpan marks the byte range of normalized text consumed by the
// resolved location mention, so keyword extraction can skip it.
type locationSpan struct {
	start, end int
}

// extractLocation applies the ordered cue-phrase regexes and resolves each
// capture against the registry, then adds every direct surface-form hit
// from the registry scan as a further candidate. Among all candidates, the
// earliest match in the string wins; ties prefer the longer span.
func (p *Parser) extractLocation(normalized string) (string, locationSpan) {
	type candidate struct {
		pos, length int
		canonical   string
	}
	var candidates []candidate

	for _, re := range locationCuePatterns {
		for _, m := range re.FindAllStringSubmatchIndex(normalized, -1) {
			if len(m) < 4 {
				continue
			}
			capStart, capEnd := m[2], m[3]
			captured := strings.TrimSpace(normalized[capStart:capEnd])
			if captured == "" {
				continue
			}
			if canonical := p.registry.Resolve(captured); canonical != "" {
				candidates = append(candidates, candidate{pos: capStart, length: capEnd - capStart, canonical: canonical})
			}
		}
	}

	for _, sf := range p.registry.SurfaceOccurrences(normalized) {
		candidates = append(candidates, candidate{pos: sf.Pos, length: sf.Length, canonical: sf.Canonical})
	}

	if len(candidates) == 0 {
		return "", locationSpan{}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].pos != candidates[j].pos {
			return candidates[i].pos < candidates[j].pos
		}
		return candidates[i].length > candidates[j].length
	})

	best := candidates[0]
	return best.canonical, locationSpan{start: best.pos, end: best.pos + best.length}
}

func matchLexicon(normalized, stripped string, lexicon map[string][]pattern) []string {
	var out []string
	for _, tag := range sortedKeys(lexicon) {
		if matchesAny(normalized, stripped, lexicon[tag]) {
			out = append(out, tag)
		}
	}
	return out
}

func matchTarget(normalized, stripped string) string {
	for _, tag := range sortedKeys(targetLexicon) {
		if matchesAny(normalized, stripped, targetLexicon[tag]) {
			return tag
		}
	}
	return ""
}

func matchPrice(normalized, stripped string) string {
	for _, tag := range priceRangeOrder {
		if matchesAny(normalized, stripped, priceCues[tag]) {
			return tag
		}
	}
	return ""
}

func matchesAny(normalized, stripped string, patterns []pattern) bool {
	for _, p := range patterns {
		if p.re.MatchString(normalized) || p.re.MatchString(stripped) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]pattern) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var wordRe = regexp.MustCompile(`[\p{L}0-9]+`)

// extractKeywords tokenizes normalized text, drops the span consumed by the
// resolved location, filters stopwords and short tokens, and preserves
// input order without duplicates.
func extractKeywords(normalized string, consumed locationSpan) []string {
	seen := make(map[string]struct{})
	var out []string

	for _, idx := range wordRe.FindAllStringIndex(normalized, -1) {
		start, end := idx[0], idx[1]
		if consumed.end > consumed.start && start >= consumed.start && end <= consumed.end {
			continue
		}
		token := normalized[start:end]
		if utf8.RuneCountInString(token) < minKeywordRunes {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
