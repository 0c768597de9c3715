package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"retail-analytics/models"
)

// XLSXSource reads transactions from one sheet of an Excel workbook.
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource returns a source for the workbook at path. An empty sheet
// name selects the first sheet.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

// Load reads the sheet with raw cell values so dates arrive as serial numbers
// or text, never in the workbook's display format.
func (s *XLSXSource) Load(ctx context.Context) (*models.Table, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.NotFoundError{Path: s.path}
		}
		return nil, &models.UnexpectedIOError{Op: "stat " + s.path, Err: err}
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, &models.ParseError{Path: s.path, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &models.ParseError{Path: s.path, Err: fmt.Errorf("sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return nil, &models.ParseError{Path: s.path, Line: 1, Err: fmt.Errorf("sheet %q is empty", sheet)}
	}

	header := rows[0]
	dec, err := newRowDecoder(s.path, header)
	if err != nil {
		return nil, err
	}
	dec.parseDate = parseSheetDate

	out := make([]models.Transaction, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		// GetRows drops trailing empty cells.
		for len(row) < len(header) {
			row = append(row, "")
		}
		tx, err := dec.decode(i+2, row)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}

	return dec.finish(s.path, out), nil
}

// parseSheetDate accepts an Excel serial date or a date string. Numeric
// cells are always serials; text goes through ParseDate.
func parseSheetDate(raw string) (time.Time, bool) {
	if serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return ParseDate(raw)
}

// Close is a no-op; Load closes the workbook itself.
func (s *XLSXSource) Close() error { return nil }
