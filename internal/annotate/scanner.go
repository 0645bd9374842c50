package annotate

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jjtimmons/music/internal/errs"
	"github.com/jjtimmons/music/internal/fold"
)

// Record is one folded RNA read out of a fold result.
type Record struct {
	// Header line as written, leading '>' included
	Header string

	// Sequence as written by the folding executable
	Sequence string

	// Structure in dot-bracket notation, free energy removed
	Structure string
}

// TruncatedError is returned for a fold result that ends partway through a
// record.
type TruncatedError struct {
	// Line is the first line of the partial record (1-based)
	Line int

	// Lines is how many of the record's lines are present
	Lines int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("fold result ends with a partial record at line %d (%d of %d lines)", e.Line, e.Lines, fold.StrideLines)
}

// Scanner reads Records out of a fold result, one fixed stride at a time.
type Scanner struct {
	lines  *bufio.Scanner
	strict bool

	// OnTruncated, if set, is told about a partial trailing record that is
	// tolerated because the Scanner isn't strict
	OnTruncated func(*TruncatedError, bool)

	line int
	rec  Record
	err  error
}

// NewScanner returns a Scanner over r. A strict Scanner fails on a partial
// trailing record; otherwise a trailing record with at least its header,
// sequence and structure lines is kept and a shorter one is dropped.
func NewScanner(r io.Reader, strict bool) *Scanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 64<<10), 16<<20)
	return &Scanner{lines: lines, strict: strict}
}

// Scan advances to the next record, returning false at the end of input or
// on the first error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	start := s.line + 1
	block := make([]string, 0, fold.StrideLines)
	for len(block) < fold.StrideLines && s.lines.Scan() {
		s.line++
		block = append(block, strings.TrimSpace(s.lines.Text()))
	}
	if err := s.lines.Err(); err != nil {
		s.err = errs.E(errs.IO, "read fold result", err)
		return false
	}

	switch {
	case len(block) == 0:
		return false
	case len(block) < fold.StrideLines:
		trunc := &TruncatedError{Line: start, Lines: len(block)}
		if s.strict {
			s.err = errs.E(errs.InputFormat, "read fold result", trunc)
			return false
		}
		kept := len(block) >= 3
		if s.OnTruncated != nil {
			s.OnTruncated(trunc, kept)
		}
		if !kept {
			return false
		}
	}

	rec, err := parse(block, start)
	if err != nil {
		s.err = err
		return false
	}
	s.rec = rec
	return true
}

// Record is the record read by the last successful Scan.
func (s *Scanner) Record() Record { return s.rec }

// Err is the first error met, nil at a clean end of input.
func (s *Scanner) Err() error { return s.err }

func parse(block []string, line int) (Record, error) {
	header := block[0]
	if !strings.HasPrefix(header, ">") {
		return Record{}, errs.Newf(errs.InputFormat, "read fold result", "line %d: expected a '>' header, got %q", line, clip(header))
	}

	if strings.ContainsRune(header, '\t') {
		return Record{}, errs.Newf(errs.InputFormat, "read fold result", "line %d: header holds a tab, normalize the FASTA headers first", line)
	}

	fields := strings.Fields(block[2])
	if len(fields) == 0 {
		return Record{}, errs.Newf(errs.InputFormat, "read fold result", "line %d: empty structure line", line+2)
	}

	rec := Record{
		Header:    header,
		Sequence:  block[1],
		Structure: fields[0],
	}
	if len(rec.Sequence) != len(rec.Structure) {
		return Record{}, errs.Newf(errs.InputFormat, "read fold result",
			"record %q: sequence has %d positions, structure has %d", rec.Header, len(rec.Sequence), len(rec.Structure))
	}
	return rec, nil
}

func clip(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
