// Package pipeline runs dataset generation: a FASTA file is folded,
// annotated and materialized into a tensor store at a deterministic path.
// Artifacts already on disk are reused rather than rebuilt.
package pipeline

import (
	"context"
	"os"

	"github.com/jjtimmons/music/config"
	"github.com/jjtimmons/music/internal/annotate"
	"github.com/jjtimmons/music/internal/catalog"
	"github.com/jjtimmons/music/internal/dataset"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/jjtimmons/music/internal/fold"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Result of one generation run
type Result struct {
	Layout Layout

	// Reused is set when the store already existed and nothing was run
	Reused bool

	// Summary of the materialized store, zero when Reused and the store
	// isn't in the catalog
	Summary dataset.Summary

	// Entry is the store's catalog entry, zero without a catalog
	Entry catalog.Entry
}

// Runner generates tensor stores
type Runner struct {
	Folder       *fold.Folder
	Builder      *annotate.Builder
	Materializer *dataset.Materializer

	// Catalog, if set, records every store generated or reused
	Catalog *catalog.Catalog

	fs  afero.Fs
	log *zap.Logger
}

// New creates a Runner that calls the executables named in conf.
func New(conf *config.Config, cat *catalog.Catalog, fs afero.Fs, log *zap.Logger) *Runner {
	annotator := &annotate.ExecAnnotator{Binary: conf.Annotate.Binary, TempDir: conf.Annotate.TempDir}
	return &Runner{
		Folder:       fold.New(conf.Fold, fs, log),
		Builder:      annotate.NewBuilder(conf.Annotate, annotator, fs, log),
		Materializer: dataset.NewMaterializer(conf.Dataset, fs, log),
		Catalog:      cat,
		fs:           fs,
		log:          log,
	}
}

// Generate produces the store of l. An existing store is reused as is, and
// recorded in the catalog if it isn't already; an existing annotation table
// skips folding and annotation.
func (r *Runner) Generate(ctx context.Context, l Layout) (Result, error) {
	log := r.log.With(zap.String("dataset", l.Dataset), zap.String("split", string(l.Split)))
	res := Result{Layout: l}

	if ok, _ := afero.Exists(r.fs, l.Store); ok {
		log.Info("reusing tensor store", zap.String("store", l.Store))
		res.Reused = true
		if r.Catalog != nil {
			e, found, err := r.Catalog.Get(ctx, l.Store)
			if err != nil {
				return res, err
			}
			if !found {
				e, err = r.record(ctx, l)
				if err != nil {
					return res, err
				}
			}
			res.Entry = e
			res.Summary = dataset.Summary{Records: e.Records, Channels: e.Channels, MaxLength: e.MaxLength, Truncated: e.Truncated}
		}
		return res, nil
	}

	if ok, _ := afero.Exists(r.fs, l.Table); ok {
		log.Info("reusing annotation table", zap.String("table", l.Table))
	} else {
		if err := r.annotate(ctx, l, log); err != nil {
			return res, err
		}
	}

	sum, err := r.Materializer.Materialize(ctx, l.Table, l.Store)
	if err != nil {
		return res, err
	}
	res.Summary = sum

	if r.Catalog != nil {
		e, err := r.Catalog.Put(ctx, catalog.Entry{
			Dataset:   l.Dataset,
			Split:     string(l.Split),
			Store:     l.Store,
			Records:   sum.Records,
			Channels:  sum.Channels,
			MaxLength: sum.MaxLength,
			Truncated: sum.Truncated,
		})
		if err != nil {
			return res, err
		}
		res.Entry = e
	}
	return res, nil
}

// record catalogs a store built outside this catalog. The truncated count
// isn't stored in the file and is left at zero.
func (r *Runner) record(ctx context.Context, l Layout) (catalog.Entry, error) {
	t, err := dataset.ReadStore(l.Store)
	if err != nil {
		return catalog.Entry{}, err
	}
	return r.Catalog.Put(ctx, catalog.Entry{
		Dataset:   l.Dataset,
		Split:     string(l.Split),
		Store:     l.Store,
		Records:   t.N(),
		Channels:  t.C,
		MaxLength: t.L,
	})
}

// GenerateAll runs Generate over layouts in order, stopping at the first
// failure.
func (r *Runner) GenerateAll(ctx context.Context, layouts []Layout) ([]Result, error) {
	results := make([]Result, 0, len(layouts))
	for _, l := range layouts {
		res, err := r.Generate(ctx, l)
		if err != nil {
			return results, errors.WithMessagef(err, "generating %s %s", l.Dataset, l.Split)
		}
		results = append(results, res)
	}
	return results, nil
}

// annotate folds the FASTA of l and writes its annotation table
func (r *Runner) annotate(ctx context.Context, l Layout, log *zap.Logger) error {
	if ok, _ := afero.Exists(r.fs, l.Fasta); !ok {
		return errs.P(errs.IO, "generate", l.Fasta, os.ErrNotExist)
	}

	if l.NormalizeHeaders {
		n, err := normalizeInPlace(r.fs, l.Fasta)
		if err != nil {
			return err
		}
		log.Debug("normalized FASTA headers", zap.String("fasta", l.Fasta), zap.Int("records", n))
	}

	if _, err := r.Folder.Fold(ctx, l.Fasta, l.WorkDir, l.FoldResult); err != nil {
		return err
	}
	_, err := r.Builder.Build(ctx, l.FoldResult, l.Table)
	return err
}

// normalizeInPlace rewrites the headers of the FASTA file at path
func normalizeInPlace(fs afero.Fs, path string) (int, error) {
	in, err := fs.Open(path)
	if err != nil {
		return 0, errs.P(errs.IO, "normalize headers", path, err)
	}
	defer in.Close()

	tmp := path + ".partial"
	out, err := fs.Create(tmp)
	if err != nil {
		return 0, errs.P(errs.IO, "normalize headers", tmp, err)
	}

	n, err := fold.NormalizeHeaders(in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = errs.P(errs.IO, "normalize headers", tmp, cerr)
	}
	if err != nil {
		fs.Remove(tmp)
		return 0, errors.WithMessage(err, path)
	}

	in.Close()
	if err := fs.Rename(tmp, path); err != nil {
		fs.Remove(tmp)
		return 0, errs.P(errs.IO, "normalize headers", path, err)
	}
	return n, nil
}

// Labeled loads the positive and negative stores of a split, generated with
// TrainingSet, as one labelled set.
func Labeled(root, rbp string, split Split) (*dataset.LabeledSet, error) {
	pos, err := dataset.ReadStore(Training(root, rbp, Positive, split).Store)
	if err != nil {
		return nil, err
	}
	neg, err := dataset.ReadStore(Training(root, rbp, Negative, split).Store)
	if err != nil {
		return nil, err
	}
	return dataset.Labeled(pos, neg)
}
