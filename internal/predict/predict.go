// Package predict reads and writes the model's inference files: one row per
// record with its identifier, label and predicted probability.
package predict

import (
	"io"

	"github.com/jjtimmons/music/internal/tsv"
)

// Prediction is one row of an inference file
type Prediction struct {
	ID          string    `csv:"id"`
	Label       tsv.Fixed `csv:"label"`
	Probability tsv.Fixed `csv:"probability"`
}

// Write writes predictions as "id\tlabel\tprobability" rows, both numbers
// with six decimal places and no header.
func Write(w io.Writer, preds []Prediction) error {
	return tsv.Write(w, &preds, false)
}

// Read parses an inference file.
func Read(r io.Reader) ([]Prediction, error) {
	var preds []Prediction
	if err := tsv.Read(r, &preds, 3); err != nil {
		return nil, err
	}
	return preds, nil
}

// Probabilities returns the probability column in row order
func Probabilities(preds []Prediction) []float64 {
	out := make([]float64, len(preds))
	for i, p := range preds {
		out[i] = float64(p.Probability)
	}
	return out
}
