package dataset

import (
	"bufio"
	"io"
	"strings"

	"github.com/jjtimmons/music/internal/errs"
)

// Row is one line of an annotation table
type Row struct {
	ID        string
	Sequence  string
	Structure string
}

// ReadTable parses an annotation table: one record per line, tab separated,
// with the identifier, sequence and two letter structure in the first three
// columns. Extra columns are ignored, blank lines skipped.
func ReadTable(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 16<<20)

	var rows []Row
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		cols := strings.Split(text, "\t")
		if len(cols) < 3 {
			return nil, errs.Newf(errs.InputFormat, "read table", "line %d: expected 3 tab separated columns, got %d", line, len(cols))
		}
		rows = append(rows, Row{ID: cols[0], Sequence: cols[1], Structure: cols[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, errs.E(errs.IO, "read table", err)
	}
	return rows, nil
}
