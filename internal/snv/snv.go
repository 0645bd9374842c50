// Package snv measures the impact of single nucleotide variants by joining
// the inference results of variant and wild-type sequences row by row.
package snv

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/jjtimmons/music/internal/errs"
	"github.com/jjtimmons/music/internal/tsv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Row is one line of a variant or wild-type inference file
type Row struct {
	ID       string    `csv:"id"`
	Position string    `csv:"position"`
	Value    tsv.Exact `csv:"value"`
}

// Diff is one line of the merged output
type Diff struct {
	ID            string    `csv:"ID"`
	VariantsValue tsv.Exact `csv:"Variants_Value"`
	WTValue       tsv.Exact `csv:"WT_Value"`
	Difference    tsv.Exact `csv:"Difference"`
}

// Read parses an inference file of id, position and value columns
func Read(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := tsv.Read(r, &rows, 3); err != nil {
		return nil, err
	}
	return rows, nil
}

// Merge pairs variant and wild-type rows. Both must hold the same number of
// rows with the same id and position in the same order.
func Merge(variants, wt []Row) ([]Diff, error) {
	if len(variants) != len(wt) {
		return nil, errs.Newf(errs.ShapeMismatch, "snv.Merge", "%d variant rows, %d wild-type rows", len(variants), len(wt))
	}

	diffs := make([]Diff, len(variants))
	for i, v := range variants {
		w := wt[i]
		if v.ID != w.ID || v.Position != w.Position {
			return nil, errs.Newf(errs.ShapeMismatch, "snv.Merge",
				"row %d: variant (%s, %s) does not match wild-type (%s, %s)", i+1, v.ID, v.Position, w.ID, w.Position)
		}
		diffs[i] = Diff{
			ID:            v.ID,
			VariantsValue: v.Value,
			WTValue:       w.Value,
			Difference:    v.Value - w.Value,
		}
	}
	return diffs, nil
}

// Write writes diffs under an "ID\tVariants_Value\tWT_Value\tDifference"
// header
func Write(w io.Writer, diffs []Diff) error {
	return tsv.Write(w, &diffs, true)
}

// DefaultOutput is where MergeFiles writes when no output path is given:
// beside the variants file with "_variants.inference" replaced by
// "_diff.inference".
func DefaultOutput(variantsPath string) string {
	base := strings.Replace(filepath.Base(variantsPath), "_variants.inference", "_diff.inference", 1)
	return filepath.Join(filepath.Dir(variantsPath), base)
}

// MergeFiles merges the files at variantsPath and wtPath into out. Both
// inputs are fully validated first, and the output is written beside out and
// renamed into place, so a failed merge leaves out as it was. Returns the
// number of rows written.
func MergeFiles(fs afero.Fs, variantsPath, wtPath, out string) (int, error) {
	variants, err := readFile(fs, variantsPath)
	if err != nil {
		return 0, err
	}
	wt, err := readFile(fs, wtPath)
	if err != nil {
		return 0, err
	}
	diffs, err := Merge(variants, wt)
	if err != nil {
		return 0, err
	}

	partial := out + ".partial"
	f, err := fs.Create(partial)
	if err != nil {
		return 0, errs.P(errs.IO, "snv.Merge", out, err)
	}
	err = Write(f, diffs)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errs.P(errs.IO, "snv.Merge", out, cerr)
	}
	if err == nil {
		if rerr := fs.Rename(partial, out); rerr != nil {
			err = errs.P(errs.IO, "snv.Merge", out, rerr)
		}
	}
	if err != nil {
		fs.Remove(partial)
		return 0, err
	}
	return len(diffs), nil
}

func readFile(fs afero.Fs, path string) ([]Row, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errs.P(errs.IO, "snv.Merge", path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	return rows, errors.WithMessage(err, path)
}
