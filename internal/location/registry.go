// Package location resolves surface forms of Vietnamese administrative
// areas to canonical names and exposes region/neighbor metadata.
package location

import (
	"strings"

	"github.com/hoanganh/voucherd/internal/normalizer"
)

// Region names partition the recognized cities into North/Central/South,
// matching the source system's Vietnamese region labels.
const (
	RegionNorth   = "Miền Bắc"
	RegionCentral = "Miền Trung"
	RegionSouth   = "Miền Nam"
)

type entry struct {
	canonical    string
	region       string
	surfaceForms []string // normalized and diacritic-stripped forms
	neighbors    []string // canonical names of geographically adjacent cities
}

// Registry is an immutable table of Vietnamese locations, safe for
// concurrent read access after construction.
type Registry struct {
	entries      []entry
	byCanonical  map[string]*entry
	surfaceIndex []surfaceMatch // sorted by descending surface-form length
}

type surfaceMatch struct {
	surface   string
	canonical string
}

// New builds the default registry: the reference canonical set from the
// external interface plus the wider city list the source system recognized.
func New() *Registry {
	raw := []entry{
		{
			canonical: "Hà Nội", region: RegionNorth,
			surfaceForms: []string{"hà nội", "ha noi", "hanoi"},
			neighbors:    []string{"Hải Phòng"},
		},
		{
			canonical: "Hải Phòng", region: RegionNorth,
			surfaceForms: []string{"hải phòng", "hai phong"},
			neighbors:    []string{"Hà Nội"},
		},
		{
			canonical: "Đà Nẵng", region: RegionCentral,
			surfaceForms: []string{"đà nẵng", "da nang"},
			neighbors:    []string{"Huế"},
		},
		{
			canonical: "Huế", region: RegionCentral,
			surfaceForms: []string{"huế", "hue"},
			neighbors:    []string{"Đà Nẵng"},
		},
		{
			canonical: "Nha Trang", region: RegionCentral,
			surfaceForms: []string{"nha trang"},
			neighbors:    []string{"Đà Lạt"},
		},
		{
			canonical: "Hồ Chí Minh", region: RegionSouth,
			surfaceForms: []string{"hồ chí minh", "ho chi minh", "hcm", "sài gòn", "sai gon", "saigon"},
			neighbors:    []string{"Vũng Tàu", "Cần Thơ"},
		},
		{
			canonical: "Cần Thơ", region: RegionSouth,
			surfaceForms: []string{"cần thơ", "can tho"},
			neighbors:    []string{"Hồ Chí Minh"},
		},
		{
			canonical: "Vũng Tàu", region: RegionSouth,
			surfaceForms: []string{"vũng tàu", "vung tau"},
			neighbors:    []string{"Hồ Chí Minh"},
		},
		{
			canonical: "Đà Lạt", region: RegionSouth,
			surfaceForms: []string{"đà lạt", "da lat"},
			neighbors:    []string{"Nha Trang"},
		},
	}

	r := &Registry{entries: raw, byCanonical: make(map[string]*entry, len(raw))}
	for i := range r.entries {
		e := &r.entries[i]
		r.byCanonical[e.canonical] = e
		for _, sf := range e.surfaceForms {
			r.surfaceIndex = append(r.surfaceIndex, surfaceMatch{surface: sf, canonical: e.canonical})
		}
	}
	sortSurfaceIndexByLengthDesc(r.surfaceIndex)
	return r
}

func sortSurfaceIndexByLengthDesc(m []surfaceMatch) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && len(m[j].surface) > len(m[j-1].surface); j-- {
			m[j], m[j-1] = m[j-1], m[j]
		}
	}
}

// Resolve performs a longest-match, case- and diacritic-insensitive lookup
// of text against every known surface form (each registered in both its
// diacritic-bearing and diacritic-stripped spellings). Returns "" if nothing
// matches.
func (r *Registry) Resolve(text string) string {
	if text == "" {
		return ""
	}
	normalized, stripped := normalizer.Normalize(text)

	for _, m := range r.surfaceIndex {
		if strings.Contains(normalized, m.surface) || strings.Contains(stripped, m.surface) {
			return m.canonical
		}
	}
	return ""
}

// SurfaceOccurrence is a single surface-form hit within scanned text.
type SurfaceOccurrence struct {
	Pos, Length int
	Canonical   string
}

// SurfaceOccurrences scans normalized text for every known surface form and
// returns each hit's position, byte length, and canonical name. Unlike
// Resolve (longest-match, single winner), this returns every match so a
// caller can combine them with other candidates and pick its own winner —
// the query parser uses it to merge surface-form hits with cue-pattern
// matches before choosing the earliest span.
func (r *Registry) SurfaceOccurrences(normalized string) []SurfaceOccurrence {
	if normalized == "" {
		return nil
	}

	var hits []SurfaceOccurrence
	for _, m := range r.surfaceIndex {
		idx := strings.Index(normalized, m.surface)
		if idx == -1 {
			continue
		}
		hits = append(hits, SurfaceOccurrence{Pos: idx, Length: len(m.surface), Canonical: m.canonical})
	}
	return hits
}

// RegionOf returns the region for a canonical location, or "" if unknown.
func (r *Registry) RegionOf(canonical string) string {
	if e, ok := r.byCanonical[canonical]; ok {
		return e.region
	}
	return ""
}

// NeighborsOf returns the canonical neighbors of a canonical location.
func (r *Registry) NeighborsOf(canonical string) []string {
	if e, ok := r.byCanonical[canonical]; ok {
		return e.neighbors
	}
	return nil
}

// IsNeighbor reports whether b is a registered neighbor of a.
func (r *Registry) IsNeighbor(a, b string) bool {
	for _, n := range r.NeighborsOf(a) {
		if n == b {
			return true
		}
	}
	return false
}

// SurfaceForms returns every known surface form for a canonical location,
// used by the geographic re-ranker to test for surface-form mentions in
// voucher content.
func (r *Registry) SurfaceForms(canonical string) []string {
	if e, ok := r.byCanonical[canonical]; ok {
		return e.surfaceForms
	}
	return nil
}

// Canonicals returns every canonical location name in the registry.
func (r *Registry) Canonicals() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.canonical
	}
	return out
}
