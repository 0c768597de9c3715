package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"retail-analytics/models"
)

// CSVSource reads transactions from a delimited text file. Files ending in
// .tsv are read tab separated, everything else comma separated.
type CSVSource struct {
	path  string
	comma rune
}

// NewCSVSource returns a source for the file at path. The file is not opened
// until Load is called.
func NewCSVSource(path string) *CSVSource {
	comma := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		comma = '\t'
	}
	return &CSVSource{path: path, comma: comma}
}

// Load reads and type-coerces every row. No partial table is returned on error.
func (s *CSVSource) Load(ctx context.Context) (*models.Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.NotFoundError{Path: s.path}
		}
		return nil, &models.UnexpectedIOError{Op: "open " + s.path, Err: err}
	}
	defer f.Close()

	return s.read(ctx, f)
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) (*models.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = s.comma
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &models.ParseError{Path: s.path, Line: 1, Err: fmt.Errorf("empty file")}
	}
	if err != nil {
		return nil, s.wrapReadErr(err)
	}

	dec, err := newRowDecoder(s.path, header)
	if err != nil {
		return nil, err
	}

	var rows []models.Transaction
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, s.wrapReadErr(err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != len(header) {
			return nil, &models.ParseError{
				Path: s.path, Line: line,
				Err: fmt.Errorf("expected %d fields, got %d", len(header), len(rec)),
			}
		}
		tx, err := dec.decode(line, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, tx)
	}

	return dec.finish(s.path, rows), nil
}

func (s *CSVSource) wrapReadErr(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &models.ParseError{Path: s.path, Line: pe.Line, Err: pe.Err}
	}
	return &models.UnexpectedIOError{Op: "read " + s.path, Err: err}
}

// Close is a no-op; Load closes the file itself.
func (s *CSVSource) Close() error { return nil }
