package rosterfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wesm/rosterview/internal/fileutil"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/textutil"
)

// ReadCSVFile reads a CSV roster from path.
func ReadCSVFile(path string) ([]records.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a CSV roster. Cells that are not valid UTF-8 are decoded
// from their detected legacy code page.
func ReadCSV(r io.Reader) ([]records.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty roster file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h, err := parseHeader(utf8Cells(first))
	if err != nil {
		return nil, &RowError{Line: 1, Err: err}
	}

	var out []records.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		rec, err := h.record(utf8Cells(row))
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

func utf8Cells(row []string) []string {
	for i, c := range row {
		row[i] = textutil.EnsureUTF8(c)
	}
	return row
}

// WriteCSVFile writes recs as CSV to path. The file is owner-only.
func WriteCSVFile(path string, recs []records.Record) error {
	f, err := fileutil.CreatePrivate(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes recs with a header row.
func WriteCSV(w io.Writer, recs []records.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headerCells()); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(cells(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
