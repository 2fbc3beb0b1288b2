// Package rosterfile reads and writes rosters as CSV or Excel workbooks.
//
// Files carry a header row naming the columns (id, name, balance, email,
// registered_at, status) in any order. Balances may be written in display
// form ("$1,234") and dates as RFC 3339, YYYY-MM-DD or MM-DD-YYYY.
package rosterfile

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wesm/rosterview/internal/records"
)

// Columns is the header written by Write.
var Columns = []records.Field{
	records.FieldID,
	records.FieldName,
	records.FieldBalance,
	records.FieldEmail,
	records.FieldRegisteredAt,
	records.FieldStatus,
}

// RowError reports a malformed data row. Line is 1-based and counts the
// header.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Read loads a roster file, choosing the format from its extension.
func Read(path string) ([]records.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVFile(path)
	case ".xlsx":
		return ReadXLSX(path)
	}
	return nil, fmt.Errorf("unsupported roster file %q (want .csv or .xlsx)", path)
}

// Write saves recs to path, choosing the format from its extension.
func Write(path string, recs []records.Record) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return WriteCSVFile(path, recs)
	case ".xlsx":
		return WriteXLSX(path, recs)
	}
	return fmt.Errorf("unsupported roster file %q (want .csv or .xlsx)", path)
}

// header maps column positions to fields.
type header []records.Field

func parseHeader(cells []string) (header, error) {
	h := make(header, len(cells))
	seen := make(map[records.Field]bool)
	for i, c := range cells {
		f, err := records.ParseField(strings.TrimPrefix(c, "\ufeff"))
		if err != nil || f == records.FieldNone {
			// Unknown columns are ignored.
			h[i] = records.FieldNone
			continue
		}
		if seen[f] {
			return nil, fmt.Errorf("column %q appears twice", c)
		}
		seen[f] = true
		h[i] = f
	}
	for _, f := range []records.Field{records.FieldID, records.FieldName, records.FieldEmail} {
		if !seen[f] {
			return nil, fmt.Errorf("missing required column %q", f)
		}
	}
	return h, nil
}

func (h header) record(cells []string) (records.Record, error) {
	r := records.Record{Status: records.StatusActive}
	for i, f := range h {
		if i >= len(cells) || f == records.FieldNone {
			continue
		}
		v := strings.TrimSpace(cells[i])
		var err error
		switch f {
		case records.FieldID:
			r.ID, err = strconv.ParseInt(v, 10, 64)
		case records.FieldName:
			r.Name = v
		case records.FieldEmail:
			r.Email = v
		case records.FieldBalance:
			r.Balance, err = parseBalance(v)
		case records.FieldRegisteredAt:
			r.RegisteredAt, err = parseDate(v)
		case records.FieldStatus:
			if v != "" {
				r.Status, err = records.ParseStatus(v)
			}
		}
		if err != nil {
			return records.Record{}, fmt.Errorf("%s: %w", f, err)
		}
	}
	return r, nil
}

func parseBalance(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	return strconv.ParseInt(s, 10, 64)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "01-02-2006"}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// cells renders r in Columns order.
func cells(r records.Record) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Name,
		strconv.FormatInt(r.Balance, 10),
		r.Email,
		r.RegisteredAt.UTC().Format(time.RFC3339),
		r.Status.String(),
	}
}

func headerCells() []string {
	out := make([]string, len(Columns))
	for i, f := range Columns {
		out[i] = f.String()
	}
	return out
}
