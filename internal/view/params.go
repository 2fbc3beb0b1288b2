package view

import (
	"strings"

	"github.com/wesm/rosterview/internal/records"
)

// Mode selects how the visible slice is cut from the sorted records.
type Mode int

const (
	// ModePaged shows one page at a time.
	ModePaged Mode = iota
	// ModeCumulative shows every page loaded so far, starting at the top.
	ModeCumulative
)

func (m Mode) String() string {
	if m == ModeCumulative {
		return "cumulative"
	}
	return "paged"
}

// ParseMode parses "paged" or "cumulative" ("infinite" is accepted as an
// alias for the latter).
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paged", "page", "":
		return ModePaged, true
	case "cumulative", "infinite", "scroll":
		return ModeCumulative, true
	}
	return ModePaged, false
}

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 10

// Params are the user-controlled view parameters.
type Params struct {
	SearchTerm string
	SortKey    records.Field
	Direction  Direction
	PageSize   int
	Mode       Mode
	// Cursor is the current page in ModePaged and the number of pages
	// revealed so far in ModeCumulative. It is always >= 1.
	Cursor int
}
