// Package annotate turns a fold result into the tabular intermediate:
// one tab separated row per record with its identifier, sequence and two
// letter structure.
package annotate

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/jjtimmons/music/config"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/jjtimmons/music/internal/structure"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Builder writes the tabular intermediate for a fold result.
type Builder struct {
	annotator Annotator
	workers   int
	strict    bool
	fs        afero.Fs
	log       *zap.Logger
}

// NewBuilder creates a Builder that classifies structures with a.
func NewBuilder(conf config.AnnotateConfig, a Annotator, fs afero.Fs, log *zap.Logger) *Builder {
	workers := conf.Workers
	if workers < 1 {
		workers = 1
	}
	return &Builder{annotator: a, workers: workers, strict: conf.Strict, fs: fs, log: log}
}

// Build reads the fold result at foldResult, annotates and reduces each
// record's structure and writes "id\tsequence\tstructure" rows, in input
// order, to out. The fold result is scratch and is removed once out is in
// place. Returns the number of rows written.
func (b *Builder) Build(ctx context.Context, foldResult, out string) (int, error) {
	in, err := b.fs.Open(foldResult)
	if err != nil {
		return 0, errs.P(errs.IO, "annotate", foldResult, err)
	}
	defer in.Close()

	if err := b.fs.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return 0, errs.P(errs.IO, "annotate", filepath.Dir(out), err)
	}

	partial := out + ".partial"
	f, err := b.fs.Create(partial)
	if err != nil {
		return 0, errs.P(errs.IO, "annotate", partial, err)
	}
	done := false
	defer func() {
		if !done {
			f.Close()
			b.fs.Remove(partial)
		}
	}()
	w := bufio.NewWriter(f)

	sc := NewScanner(in, b.strict)
	sc.OnTruncated = func(e *TruncatedError, kept bool) {
		b.log.Warn("fold result is truncated", zap.String("result", foldResult), zap.Error(e), zap.Bool("kept", kept))
	}

	rows := 0
	batch := make([]Record, 0, b.workers*64)
	flush := func() error {
		reduced, err := b.annotateAll(ctx, batch)
		if err != nil {
			return err
		}
		for i, rec := range batch {
			w.WriteString(rec.Header)
			w.WriteByte('\t')
			w.WriteString(rec.Sequence)
			w.WriteByte('\t')
			w.WriteString(reduced[i])
			if err := w.WriteByte('\n'); err != nil {
				return errs.P(errs.IO, "annotate", partial, err)
			}
		}
		rows += len(batch)
		b.log.Debug("annotated records", zap.Int("rows", rows))
		batch = batch[:0]
		return nil
	}

	for sc.Scan() {
		batch = append(batch, sc.Record())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return 0, errors.WithMessage(err, foldResult)
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return 0, err
		}
	}
	if rows == 0 {
		return 0, errs.P(errs.InputFormat, "annotate", foldResult, errors.New("fold result holds no records"))
	}

	if err := w.Flush(); err != nil {
		return 0, errs.P(errs.IO, "annotate", partial, err)
	}
	if err := f.Close(); err != nil {
		return 0, errs.P(errs.IO, "annotate", partial, err)
	}
	done = true
	if err := b.fs.Rename(partial, out); err != nil {
		b.fs.Remove(partial)
		return 0, errs.P(errs.IO, "annotate", out, err)
	}

	if err := b.fs.Remove(foldResult); err != nil && !os.IsNotExist(err) {
		b.log.Warn("removing fold result", zap.String("result", foldResult), zap.Error(err))
	}
	b.log.Info("annotation table written", zap.String("table", out), zap.Int("rows", rows))
	return rows, nil
}

// annotateAll returns the two letter structure of every record, running up
// to b.workers annotations at once. Results keep the order of recs.
func (b *Builder) annotateAll(ctx context.Context, recs []Record) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]string, len(recs))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for n := 0; n < b.workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				reduced, err := b.annotateOne(ctx, recs[i])
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				out[i] = reduced
			}
		}()
	}

feed:
	for i := range recs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "annotate")
	}
	return out, nil
}

func (b *Builder) annotateOne(ctx context.Context, rec Record) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	seven, err := b.annotator.Annotate(ctx, rec.Structure)
	if err != nil {
		return "", errors.WithMessagef(err, "record %s", rec.Header)
	}
	two, err := structure.Reduce(seven)
	if err != nil {
		return "", errors.WithMessagef(err, "record %s", rec.Header)
	}
	return two, nil
}
