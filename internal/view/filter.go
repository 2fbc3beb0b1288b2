package view

import (
	"strings"

	"github.com/wesm/rosterview/internal/records"
)

// Filter returns the records whose name, email or status label contains term,
// case-insensitively. A blank term matches everything and returns recs
// itself, so the store order is preserved exactly.
func Filter(recs []records.Record, term string) []records.Record {
	q := normalizeTerm(term)
	if q == "" {
		return recs
	}
	out := make([]records.Record, 0, len(recs)/4)
	for _, r := range recs {
		if matchesSearch(r, q) {
			out = append(out, r)
		}
	}
	return out
}

// normalizeTerm lower-cases a search term; whitespace-only terms become "".
func normalizeTerm(term string) string {
	if strings.TrimSpace(term) == "" {
		return ""
	}
	return strings.ToLower(term)
}

// matchesSearch expects q to be lower-cased already.
func matchesSearch(r records.Record, q string) bool {
	return strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.Email), q) ||
		strings.Contains(strings.ToLower(r.Status.String()), q)
}

// filterMemo caches the last filter result keyed by the record set and the
// normalized term, so repeated recomputes on the same inputs are free. The
// generation alone does not identify the records: a load cycle keeps its
// generation from Begin, while the store is empty, through Complete.
type filterMemo struct {
	valid      bool
	generation uint64
	src        []records.Record
	term       string
	out        []records.Record
}

func (m *filterMemo) get(generation uint64, recs []records.Record, term string) []records.Record {
	q := normalizeTerm(term)
	if m.valid && m.generation == generation && sameSlice(m.src, recs) && m.term == q {
		return m.out
	}
	m.out = Filter(recs, q)
	m.generation = generation
	m.src = recs
	m.term = q
	m.valid = true
	return m.out
}
