package storage

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"retail-analytics/models"
)

// nullTokens are the cell values read as null, matching the pandas defaults.
var nullTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "#NA": {}, "<NA>": {},
}

// dateLayouts are tried in order when parsing the Date column, before the
// free-form fallback.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// IsNull reports whether a raw cell represents a missing value.
func IsNull(raw string) bool {
	_, ok := nullTokens[strings.TrimSpace(raw)]
	return ok
}

// ParseDate parses s with the first matching layout, falling back to
// free-form parsing (month names, partial times, slashes or dots). Values
// without a zone are read as UTC; ambiguous numeric dates are month first.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// headerIndex maps each schema column to its position in header.
func headerIndex(header []string) (map[models.Column]int, error) {
	idx := make(map[models.Column]int, len(models.SchemaColumns))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if c, ok := models.ColumnByName(name); ok && !c.IsFeature() {
			if _, dup := idx[c]; !dup {
				idx[c] = i
			}
		}
	}

	var missing []string
	for _, c := range models.SchemaColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c.String())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

var errNotInteger = errors.New("not an integer")

// rowDecoder coerces raw cells into typed transactions. Dates that fail to
// parse are kept as raw text and flip dateTyped off for the whole table.
type rowDecoder struct {
	path      string
	index     map[models.Column]int
	dateTyped bool
	parseDate func(string) (time.Time, bool)
}

func newRowDecoder(path string, header []string) (*rowDecoder, error) {
	idx, err := headerIndex(header)
	if err != nil {
		return nil, &models.ParseError{Path: path, Line: 1, Err: err}
	}
	return &rowDecoder{path: path, index: idx, dateTyped: true, parseDate: ParseDate}, nil
}

func (d *rowDecoder) decode(line int, row []string) (models.Transaction, error) {
	var tx models.Transaction
	for _, c := range models.SchemaColumns {
		var raw string
		if i := d.index[c]; i < len(row) {
			raw = strings.TrimSpace(row[i])
		}
		if IsNull(raw) {
			tx.Missing = tx.Missing.With(c)
			continue
		}

		switch c.Kind() {
		case models.KindNumeric:
			v, err := parseNumber(c, raw)
			if err != nil {
				return tx, &models.ParseError{Path: d.path, Line: line, Column: c.String(), Value: raw, Err: err}
			}
			tx.SetNumber(c, v)
		case models.KindTimestamp:
			if t, ok := d.parseDate(raw); ok {
				tx.Date = t
			} else {
				d.dateTyped = false
			}
			tx.RawDate = raw
		default:
			tx.SetText(c, raw)
		}
	}
	return tx, nil
}

func parseNumber(c models.Column, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	if c == models.ColQuantity && v != math.Trunc(v) {
		return 0, errNotInteger
	}
	return v, nil
}

// finish builds the table once every row is decoded. When the date column is
// untyped the parsed timestamps are discarded so features come from raw text.
func (d *rowDecoder) finish(source string, rows []models.Transaction) *models.Table {
	if !d.dateTyped {
		for i := range rows {
			rows[i].Date = time.Time{}
		}
	} else {
		for i := range rows {
			rows[i].RawDate = ""
		}
	}
	t := models.NewTable(rows)
	t.Source = source
	t.DateTyped = d.dateTyped
	return t
}
