// Package tsv reads and writes the tab separated files exchanged with the
// model: predictions, variant differences and high-attention regions.
package tsv

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/jjtimmons/music/internal/errs"
)

// NewWriter returns a tab separated gocsv writer on w
func NewWriter(w io.Writer) *gocsv.SafeCSVWriter {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return gocsv.NewSafeCSVWriter(cw)
}

// NewReader returns a tab separated reader on r that tolerates stray quotes
// and ragged rows
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

// Fixed is a float written with six decimal places
type Fixed float64

// MarshalCSV formats f as "%f" would
func (f Fixed) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(f), 'f', 6, 64), nil
}

// UnmarshalCSV parses any float
func (f *Fixed) UnmarshalCSV(s string) error {
	v, err := parseFloat(s)
	*f = Fixed(v)
	return err
}

// Exact is a float written with the fewest digits that read back to the
// same value
type Exact float64

// MarshalCSV formats e at full precision
func (e Exact) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(e), 'g', -1, 64), nil
}

// UnmarshalCSV parses any float
func (e *Exact) UnmarshalCSV(s string) error {
	v, err := parseFloat(s)
	*e = Exact(v)
	return err
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errs.Newf(errs.InputFormat, "tsv", "%q is not a number", s)
	}
	return v, nil
}

// Write marshals the slice pointed to by rows onto w, with a header row when
// header is set
func Write(w io.Writer, rows interface{}, header bool) error {
	out := NewWriter(w)
	var err error
	if header {
		err = gocsv.MarshalCSV(rows, out)
	} else {
		err = gocsv.MarshalCSVWithoutHeaders(rows, out)
	}
	if err != nil {
		return errs.E(errs.IO, "tsv.Write", err)
	}
	return nil
}

// Read unmarshals headerless rows from r into the slice pointed to by rows,
// mapping the first cols columns to struct fields by position. Blank lines
// are skipped and extra columns ignored; a row with fewer than cols columns
// is an error.
func Read(r io.Reader, rows interface{}, cols int) error {
	all, err := NewReader(r).ReadAll()
	if err != nil {
		return errs.E(errs.InputFormat, "tsv.Read", err)
	}
	for i, rec := range all {
		if len(rec) < cols {
			return errs.Newf(errs.InputFormat, "tsv.Read", "row %d: expected %d tab separated columns, got %d", i+1, cols, len(rec))
		}
		all[i] = rec[:cols]
	}
	if len(all) == 0 {
		return nil
	}

	if err := gocsv.UnmarshalCSVWithoutHeaders(&records{rows: all}, rows); err != nil {
		if errs.KindOf(err) != errs.Other {
			return err
		}
		return errs.E(errs.InputFormat, "tsv.Read", err)
	}
	return nil
}

// records replays parsed rows to gocsv
type records struct {
	rows [][]string
	next int
}

func (r *records) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	r.next++
	return r.rows[r.next-1], nil
}

func (r *records) ReadAll() ([][]string, error) {
	rest := r.rows[r.next:]
	r.next = len(r.rows)
	return rest, nil
}
