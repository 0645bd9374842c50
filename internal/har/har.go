// Package har finds high-attention regions: for every record, the fixed
// length window whose summed attribution score is highest.
package har

import (
	"io"

	"github.com/jjtimmons/music/internal/errs"
	"github.com/jjtimmons/music/internal/tsv"
)

// DefaultWindow is the region length used by the model's interpretation
// step
const DefaultWindow = 20

// Region is the highest scoring window of one record
type Region struct {
	Index       int       `csv:"index"`
	Probability tsv.Fixed `csv:"probability"`

	// Start is inclusive, End exclusive
	Start int `csv:"start"`
	End   int `csv:"end"`

	Score float64 `csv:"-"`
}

// Find returns one Region per record of an N × C × L attribution tensor.
// Per-position scores are summed over channels, then every window of the
// given length is scored; the first highest window wins. probs holds each
// record's predicted probability.
func Find(data []float32, dims []int, probs []float64, window int) ([]Region, error) {
	if len(dims) != 3 {
		return nil, errs.Newf(errs.ShapeMismatch, "har.Find", "attribution tensor has %d dimensions, expected 3", len(dims))
	}
	n, c, l := dims[0], dims[1], dims[2]
	if len(data) != n*c*l {
		return nil, errs.Newf(errs.ShapeMismatch, "har.Find", "%d values for a %d×%d×%d tensor", len(data), n, c, l)
	}
	if len(probs) != n {
		return nil, errs.Newf(errs.ShapeMismatch, "har.Find", "%d probabilities for %d records", len(probs), n)
	}
	if window < 1 || window > l {
		return nil, errs.Newf(errs.InputFormat, "har.Find", "window of %d doesn't fit records of length %d", window, l)
	}

	regions := make([]Region, n)
	scores := make([]float64, l)
	for i := 0; i < n; i++ {
		record := data[i*c*l : (i+1)*c*l]
		for j := range scores {
			scores[j] = 0
		}
		for ch := 0; ch < c; ch++ {
			for j, v := range record[ch*l : (ch+1)*l] {
				scores[j] += float64(v)
			}
		}

		start, score := bestWindow(scores, window)
		regions[i] = Region{
			Index:       i,
			Probability: tsv.Fixed(probs[i]),
			Start:       start,
			End:         start + window,
			Score:       score,
		}
	}
	return regions, nil
}

// bestWindow returns the start and sum of the first maximal sum window of
// length w over scores
func bestWindow(scores []float64, w int) (int, float64) {
	sum := 0.0
	for _, s := range scores[:w] {
		sum += s
	}
	best, bestStart := sum, 0
	for j := w; j < len(scores); j++ {
		sum += scores[j] - scores[j-w]
		if sum > best {
			best, bestStart = sum, j-w+1
		}
	}
	return bestStart, best
}

// Write writes regions as "index\tprobability\tstart\tend" rows, without a
// header.
func Write(w io.Writer, regions []Region) error {
	return tsv.Write(w, &regions, false)
}
