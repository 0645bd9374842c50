// Package fold runs the external RNA folding executable over a multi-record
// FASTA file.
//
// The executable blocks until every record is folded, so two goroutines run
// beside it: a poller that counts the records written to the result file so
// far, and a sweeper that deletes the plot files the tool leaves in its
// working directory even when told not to draw them. The working directory
// belongs to one Fold call for its lifetime.
package fold

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/jjtimmons/music/config"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// StrideLines is the number of lines the folding executable writes per
// record in probability mode: header, sequence, structure with free energy,
// and three pairing probability lines
const StrideLines = 6

// Folder drives the folding executable.
type Folder struct {
	conf config.FoldConfig
	fs   afero.Fs
	log  *zap.Logger

	// OnProgress, if set, is called every time the number of folded records
	// grows. It runs on the poller goroutine or, for the final count, on the
	// goroutine that called Fold
	OnProgress func(done, total int)
}

// New creates a Folder. fs is used for everything the orchestrator itself
// touches (counting, polling, sweeping); the executable always runs against
// the real filesystem.
func New(conf config.FoldConfig, fs afero.Fs, log *zap.Logger) *Folder {
	return &Folder{conf: conf, fs: fs, log: log}
}

// Fold runs the executable with input on stdin, workDir as its working
// directory and stdout written to resultPath, which is returned.
//
// If ctx is cancelled the executable is killed, both background goroutines
// stop, the working directory is swept one last time and the partial result
// file is removed.
func (f *Folder) Fold(ctx context.Context, input, workDir, resultPath string) (string, error) {
	for _, p := range f.conf.SweepPatterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return "", errs.E(errs.InputFormat, "fold", errors.Wrapf(err, "sweep pattern %q", p))
		}
	}

	total, err := CountRecords(f.fs, input)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return "", errs.P(errs.InputFormat, "fold", input, errors.New("no FASTA records"))
	}

	if err := f.fs.MkdirAll(workDir, 0755); err != nil {
		return "", errs.P(errs.IO, "fold", workDir, err)
	}
	if dir := filepath.Dir(resultPath); dir != "" {
		if err := f.fs.MkdirAll(dir, 0755); err != nil {
			return "", errs.P(errs.IO, "fold", dir, err)
		}
	}

	in, err := f.fs.Open(input)
	if err != nil {
		return "", errs.P(errs.IO, "fold", input, err)
	}
	defer in.Close()

	out, err := f.fs.Create(resultPath)
	if err != nil {
		return "", errs.P(errs.IO, "fold", resultPath, err)
	}

	f.log.Info("folding",
		zap.String("input", input),
		zap.Int("records", total),
		zap.String("workdir", workDir),
		zap.String("result", resultPath))

	stderr := &tail{max: 4 << 10}
	cmd := exec.CommandContext(ctx, f.conf.Binary, f.conf.Args...)
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = stderr
	cmd.Dir = workDir
	cmd.WaitDelay = time.Second

	bg, stop := context.WithCancel(ctx)
	defer stop()

	progress := NewProgress(total, f.report)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.poll(bg, resultPath, progress)
	}()
	go func() {
		defer wg.Done()
		f.sweepEvery(bg, workDir)
	}()

	start := time.Now()
	runErr := cmd.Run()
	closeErr := out.Close()

	if ctx.Err() == nil && f.conf.Grace > 0 {
		// let the sweeper catch files the tool wrote just before exiting
		t := time.NewTimer(f.conf.Grace)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	stop()
	wg.Wait()
	swept := sweep(f.fs, workDir, f.conf.SweepPatterns)

	if ctx.Err() != nil {
		if err := f.fs.Remove(resultPath); err != nil && !os.IsNotExist(err) {
			f.log.Warn("removing partial fold result", zap.String("result", resultPath), zap.Error(err))
		}
		return "", errors.Wrapf(ctx.Err(), "folding %s", input)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return "", errs.P(errs.ExternalTool, "fold", input, &FailedError{
				Binary:   f.conf.Binary,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			})
		}
		return "", errs.P(errs.ExternalTool, "fold", input, errors.Wrapf(runErr, "running %s", f.conf.Binary))
	}
	if closeErr != nil {
		return "", errs.P(errs.IO, "fold", resultPath, closeErr)
	}

	folded, err := CountRecords(f.fs, resultPath)
	if err != nil {
		return "", err
	}
	progress.Observe(folded)
	if folded != total {
		return "", errs.P(errs.ExternalTool, "fold", resultPath,
			errors.Errorf("%s wrote %d of %d records", f.conf.Binary, folded, total))
	}

	f.log.Info("folding complete",
		zap.String("result", resultPath),
		zap.Int("records", folded),
		zap.Int("swept", swept),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	return resultPath, nil
}

// poll re-reads the growing result file every PollInterval until ctx ends.
func (f *Folder) poll(ctx context.Context, path string, p *Progress) {
	counter := &headerCounter{fs: f.fs, path: path, lineStart: true}
	ticker := time.NewTicker(f.conf.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// a record may be half written; the count is advisory only
		n, err := counter.update()
		if err != nil {
			f.log.Debug("polling fold result", zap.String("result", path), zap.Error(err))
			continue
		}
		p.Observe(n)
	}
}

// sweepEvery deletes plot byproducts every SweepInterval until ctx ends.
func (f *Folder) sweepEvery(ctx context.Context, dir string) {
	ticker := time.NewTicker(f.conf.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n := sweep(f.fs, dir, f.conf.SweepPatterns); n > 0 {
			f.log.Debug("swept fold byproducts", zap.String("workdir", dir), zap.Int("removed", n))
		}
	}
}

func (f *Folder) report(done, total int) {
	f.log.Info("folding progress", zap.String("folded", progressLabel(done, total)))
	if f.OnProgress != nil {
		f.OnProgress(done, total)
	}
}
