package fold

import (
	"bufio"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/pkg/errors"
)

// NormalizeHeaders copies the FASTA records in r to w with every run of
// whitespace in a header replaced by '|' and each sequence on one line.
//
// Headers become the identifier column of the tab separated annotation
// table, so they must not hold tabs or spaces.
func NormalizeHeaders(r io.Reader, w io.Writer) (int, error) {
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.RNAredundant)))
	bw := bufio.NewWriter(w)

	n := 0
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok {
			return n, errs.Newf(errs.InputFormat, "normalize headers", "unexpected sequence type %T", sc.Seq())
		}

		header := strings.Join(strings.Fields(s.Name()+" "+s.Description()), "|")
		if header == "" {
			return n, errs.Newf(errs.InputFormat, "normalize headers", "record %d has an empty header", n+1)
		}

		letters := make([]byte, len(s.Seq))
		for i, l := range s.Seq {
			letters[i] = byte(l)
		}

		bw.WriteByte('>')
		bw.WriteString(header)
		bw.WriteByte('\n')
		bw.Write(letters)
		if err := bw.WriteByte('\n'); err != nil {
			return n, errors.Wrap(err, "writing normalized FASTA")
		}
		n++
	}
	if err := sc.Error(); err != nil {
		return n, errs.E(errs.InputFormat, "normalize headers", err)
	}
	if err := bw.Flush(); err != nil {
		return n, errors.Wrap(err, "writing normalized FASTA")
	}
	return n, nil
}
