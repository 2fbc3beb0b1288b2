package view

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/wesm/rosterview/internal/records"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is the sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// ParseDirection parses "asc" or "desc"; anything else is ascending.
func ParseDirection(s string) Direction {
	if s == "desc" || s == "DESC" {
		return Desc
	}
	return Asc
}

// sortLocale is the collation locale for string columns. The collator orders
// letters before case, so "amy" sorts ahead of "Bob".
var sortLocale = language.English

// Sort returns a new slice holding recs ordered by key. Equal keys keep
// their relative order. FieldNone returns recs unchanged.
func Sort(recs []records.Record, key records.Field, dir Direction) []records.Record {
	if key == records.FieldNone || len(recs) < 2 {
		return recs
	}
	sign := 1
	if dir == Desc {
		sign = -1
	}

	if key.Numeric() {
		out := slices.Clone(recs)
		slices.SortStableFunc(out, func(a, b records.Record) int {
			return sign * cmp.Compare(numericValue(a, key), numericValue(b, key))
		})
		return out
	}

	// Collation keys are computed once per record; comparing them with
	// bytes.Compare is equivalent to Collator.CompareString.
	type keyed struct {
		rec records.Record
		key []byte
	}
	c := collate.New(sortLocale)
	buf := &collate.Buffer{}
	items := make([]keyed, len(recs))
	for i, r := range recs {
		k := c.KeyFromString(buf, stringValue(r, key))
		items[i] = keyed{rec: r, key: bytes.Clone(k)}
		buf.Reset()
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		return sign * bytes.Compare(a.key, b.key)
	})
	out := make([]records.Record, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

func numericValue(r records.Record, key records.Field) int64 {
	switch key {
	case records.FieldID:
		return r.ID
	case records.FieldBalance:
		return r.Balance
	case records.FieldRegisteredAt:
		return r.RegisteredAt.UnixNano()
	}
	return 0
}

func stringValue(r records.Record, key records.Field) string {
	switch key {
	case records.FieldName:
		return r.Name
	case records.FieldEmail:
		return r.Email
	case records.FieldStatus:
		return r.Status.String()
	}
	return ""
}
