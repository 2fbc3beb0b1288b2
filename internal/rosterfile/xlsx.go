package rosterfile

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wesm/rosterview/internal/fileutil"
	"github.com/wesm/rosterview/internal/records"
)

// SheetName is the worksheet WriteXLSX creates.
const SheetName = "Roster"

// ReadXLSX reads the first worksheet of an Excel workbook.
func ReadXLSX(path string) ([]records.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	h, err := parseHeader(rows[0])
	if err != nil {
		return nil, &RowError{Line: 1, Err: err}
	}
	out := make([]records.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		rec, err := h.record(row)
		if err != nil {
			return nil, &RowError{Line: i + 2, Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteXLSX saves recs to a new workbook with a single Roster sheet.
func WriteXLSX(path string, recs []records.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, name := range headerCells() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, name); err != nil {
			return err
		}
	}
	for i, r := range recs {
		row := i + 2
		values := []any{r.ID, r.Name, r.Balance, r.Email, cells(r)[4], r.Status.String()}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return fileutil.RestrictFile(path)
}
