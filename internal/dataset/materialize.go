// Package dataset turns annotation tables into tensor stores: every row is
// one-hot encoded (nucleotides over the structure channels) at a fixed width
// and the matrices are saved, in table order, to an HDF5 file.
package dataset

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jjtimmons/music/config"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Summary describes a materialized store
type Summary struct {
	Records   int
	Channels  int
	MaxLength int

	// Truncated is the number of records longer than MaxLength
	Truncated int

	// sequence length statistics, before truncation
	MinLength    float64
	LongestInput float64
	MeanLength   float64
	MedianLength float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%s records of %d×%d, lengths %.0f-%.0f (mean %.1f, median %.0f), %s truncated",
		humanize.Comma(int64(s.Records)), s.Channels, s.MaxLength,
		s.MinLength, s.LongestInput, s.MeanLength, s.MedianLength,
		humanize.Comma(int64(s.Truncated)))
}

// Materializer builds tensor stores from annotation tables
type Materializer struct {
	maxLen int
	fs     afero.Fs
	log    *zap.Logger
}

// NewMaterializer creates a Materializer whose matrices are conf.MaxLength
// columns wide.
func NewMaterializer(conf config.DatasetConfig, fs afero.Fs, log *zap.Logger) *Materializer {
	return &Materializer{maxLen: conf.MaxLength, fs: fs, log: log}
}

// Materialize encodes every row of the table at tablePath and writes the
// store to storePath.
func (m *Materializer) Materialize(ctx context.Context, tablePath, storePath string) (Summary, error) {
	f, err := m.fs.Open(tablePath)
	if err != nil {
		return Summary{}, errs.P(errs.IO, "materialize", tablePath, err)
	}
	rows, err := ReadTable(f)
	f.Close()
	if err != nil {
		return Summary{}, errors.WithMessage(err, tablePath)
	}

	t, sum, err := m.encode(ctx, rows)
	if err != nil {
		return Summary{}, errors.WithMessage(err, tablePath)
	}

	if err := m.fs.MkdirAll(filepath.Dir(storePath), 0755); err != nil {
		return Summary{}, errs.P(errs.IO, "materialize", filepath.Dir(storePath), err)
	}
	if err := WriteStore(storePath, t); err != nil {
		return Summary{}, err
	}

	m.log.Info("tensor store written",
		zap.String("store", storePath),
		zap.Int("records", sum.Records),
		zap.Int("truncated", sum.Truncated),
		zap.Stringer("summary", sum))
	return sum, nil
}

// encode returns the tensor of rows, in order, and its summary.
func (m *Materializer) encode(ctx context.Context, rows []Row) (*Tensor, Summary, error) {
	if len(rows) == 0 {
		return nil, Summary{}, errs.Newf(errs.InputFormat, "materialize", "annotation table holds no records")
	}

	t := NewTensor(Channels, m.maxLen, len(rows))
	lengths := make(stats.Float64Data, 0, len(rows))
	truncated := 0
	for i, row := range rows {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, Summary{}, errors.Wrap(ctx.Err(), "materialize")
		}

		features, err := Encode(row, m.maxLen)
		if err != nil {
			return nil, Summary{}, errors.WithMessagef(err, "record %s", row.ID)
		}
		if err := t.Append(row.ID, features); err != nil {
			return nil, Summary{}, err
		}

		lengths = append(lengths, float64(len(row.Sequence)))
		if len(row.Sequence) > m.maxLen {
			truncated++
		}
	}

	sum := Summary{
		Records:   t.N(),
		Channels:  t.C,
		MaxLength: t.L,
		Truncated: truncated,
	}
	sum.MinLength, _ = stats.Min(lengths)
	sum.LongestInput, _ = stats.Max(lengths)
	sum.MeanLength, _ = stats.Mean(lengths)
	sum.MedianLength, _ = stats.Median(lengths)
	return t, sum, nil
}
