package mods

import (
	"slices"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/dc-export/internal/models"
)

// Ranker picks one value out of the candidates found in a document. The
// candidates are in document order; ok is false when nothing was chosen.
type Ranker func(candidates []string) (best string, ok bool)

// LongestFirst chooses the candidate with the most characters. Ties go to the
// candidate that appears first.
func LongestFirst(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})
	return sorted[0], true
}

// Extractor turns MODS documents into cacheable metadata.
type Extractor struct {
	Rank Ranker
}

// NewExtractor returns an extractor using rank, or LongestFirst when rank is nil.
func NewExtractor(rank Ranker) *Extractor {
	if rank == nil {
		rank = LongestFirst
	}
	return &Extractor{Rank: rank}
}

// Extract pulls location and date out of doc. A nil document yields empty
// metadata.
func (e *Extractor) Extract(doc *Document) models.Metadata {
	if doc == nil {
		return models.Metadata{}
	}
	var meta models.Metadata
	if location, ok := e.Rank(Locations(doc)); ok {
		meta.Location = location
	}
	if date, ok := e.Rank(KeyDates(doc)); ok {
		meta.Date = date
	}
	return meta
}

// Locations returns the non-empty geographic subject terms in document order.
func Locations(doc *Document) []string {
	var out []string
	for _, s := range doc.Subject {
		if v := s.Geographic.String(); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// KeyDates returns, in document order, the value of the preferred date of
// every originInfo entry whose date is flagged as the key date.
func KeyDates(doc *Document) []string {
	var out []string
	for _, o := range doc.OriginInfo {
		d, ok := o.Date()
		if !ok || !d.KeyDate || d.Value == "" {
			continue
		}
		out = append(out, d.Value)
	}
	return out
}
