package fold

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jjtimmons/music/config"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRNAfold prints a six line stride per record and, like the real tool,
// drops a plot file in its working directory for each one
const fakeRNAfold = `#!/bin/sh
while IFS= read -r line; do
	case "$line" in
	'>'*)
		name=${line#>}
		read -r seq
		echo "$line"
		echo "$seq"
		echo "$(echo "$seq" | tr 'ACGU' '....') ( -1.20)"
		echo "$(echo "$seq" | tr 'ACGU' ',,,,') [ -1.50]"
		echo "$(echo "$seq" | tr 'ACGU' '....') { -1.10 d=0.50}"
		echo " frequency of mfe structure in ensemble 0.5; ensemble diversity 0.70"
		: > "${name}_ss.ps"
		: > "${name}_dp.ps"
		sleep 0.02
		;;
	esac
done
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake executables are shell scripts")
	}
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func writeFasta(t *testing.T, dir string, n int) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(">rna")
		b.WriteByte(byte('a' + i))
		b.WriteString("\nACGUACGUAC\n")
	}
	path := filepath.Join(dir, "train.fa")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func testConf(binary string) config.FoldConfig {
	return config.FoldConfig{
		Binary:        binary,
		Args:          []string{"-p", "--noPS"},
		PollInterval:  5 * time.Millisecond,
		SweepInterval: 5 * time.Millisecond,
		Grace:         20 * time.Millisecond,
		SweepPatterns: []string{"*.ps"},
	}
}

func TestFold(t *testing.T) {
	bin := writeScript(t, fakeRNAfold)
	dir := t.TempDir()
	input := writeFasta(t, dir, 5)
	workDir := filepath.Join(dir, "RNAfold_results", "AGO2")
	result := filepath.Join(workDir, "train_fold.result")

	f := New(testConf(bin), afero.NewOsFs(), zap.NewNop())

	var mu sync.Mutex
	var seen []int
	f.OnProgress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 5, total)
		seen = append(seen, done)
	}

	got, err := f.Fold(context.Background(), input, workDir, result)
	require.NoError(t, err)
	assert.Equal(t, result, got)

	out, err := os.ReadFile(result)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	assert.Len(t, lines, 5*StrideLines)

	plots, err := filepath.Glob(filepath.Join(workDir, "*.ps"))
	require.NoError(t, err)
	assert.Empty(t, plots, "plot byproducts should be swept")

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1], "progress must grow")
	}
	assert.Equal(t, 5, seen[len(seen)-1])
}

func TestFold_exitStatus(t *testing.T) {
	bin := writeScript(t, "#!/bin/sh\ncat > /dev/null\necho 'ERROR: unknown option' >&2\nexit 3\n")
	dir := t.TempDir()
	input := writeFasta(t, dir, 2)

	f := New(testConf(bin), afero.NewOsFs(), zap.NewNop())
	_, err := f.Fold(context.Background(), input, dir, filepath.Join(dir, "out.result"))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ExternalTool))

	var failed *FailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 3, failed.ExitCode)
	assert.Contains(t, failed.Stderr, "unknown option")
}

func TestFold_shortOutput(t *testing.T) {
	// exits cleanly having folded nothing
	bin := writeScript(t, "#!/bin/sh\ncat > /dev/null\n")
	dir := t.TempDir()
	input := writeFasta(t, dir, 2)

	f := New(testConf(bin), afero.NewOsFs(), zap.NewNop())
	_, err := f.Fold(context.Background(), input, dir, filepath.Join(dir, "out.result"))
	assert.True(t, errs.Is(err, errs.ExternalTool))
}

func TestFold_missingBinary(t *testing.T) {
	dir := t.TempDir()
	input := writeFasta(t, dir, 1)

	f := New(testConf(filepath.Join(dir, "no-such-RNAfold")), afero.NewOsFs(), zap.NewNop())
	_, err := f.Fold(context.Background(), input, dir, filepath.Join(dir, "out.result"))
	assert.True(t, errs.Is(err, errs.ExternalTool))
}

func TestFold_noRecords(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "empty.fa")
	require.NoError(t, os.WriteFile(input, []byte("ACGU\n"), 0644))

	f := New(testConf("RNAfold"), afero.NewOsFs(), zap.NewNop())
	_, err := f.Fold(context.Background(), input, dir, filepath.Join(dir, "out.result"))
	assert.True(t, errs.Is(err, errs.InputFormat))

	_, err = f.Fold(context.Background(), filepath.Join(dir, "missing.fa"), dir, filepath.Join(dir, "out.result"))
	assert.True(t, errs.Is(err, errs.IO))
}

func TestFold_cancel(t *testing.T) {
	bin := writeScript(t, "#!/bin/sh\n: > stray_ss.ps\necho '>partial'\nexec sleep 30\n")
	dir := t.TempDir()
	input := writeFasta(t, dir, 3)
	workDir := filepath.Join(dir, "work")
	result := filepath.Join(workDir, "out.result")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	f := New(testConf(bin), afero.NewOsFs(), zap.NewNop())
	start := time.Now()
	_, err := f.Fold(ctx, input, workDir, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 10*time.Second)

	_, err = os.Stat(result)
	assert.True(t, os.IsNotExist(err), "partial result should be removed")
	plots, _ := filepath.Glob(filepath.Join(workDir, "*.ps"))
	assert.Empty(t, plots)
}

func TestFold_badPattern(t *testing.T) {
	conf := testConf("RNAfold")
	conf.SweepPatterns = []string{"[.ps"}
	f := New(conf, afero.NewOsFs(), zap.NewNop())
	_, err := f.Fold(context.Background(), "x.fa", t.TempDir(), "x.result")
	assert.True(t, errs.Is(err, errs.InputFormat))
}

func TestProgress(t *testing.T) {
	var reports []int
	p := NewProgress(4, func(done, total int) { reports = append(reports, done) })

	for _, n := range []int{0, 1, 1, 3, 2, 9, 4} {
		p.Observe(n)
		assert.LessOrEqual(t, p.Done(), p.Total())
	}
	assert.Equal(t, 4, p.Done())
	assert.Equal(t, []int{1, 3, 4}, reports)
}

func TestHeaderCounter(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := &headerCounter{fs: fs, path: "/w/out.result", lineStart: true}

	n, err := c.update()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "a missing file counts as empty")

	f, err := fs.Create("/w/out.result")
	require.NoError(t, err)

	// a header split across two writes is counted once
	_, _ = f.WriteString(">a\nACGU\n....\n>")
	n, err = c.update()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, _ = f.WriteString("b\nAC>GU\n>c\n")
	n, err = c.update()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, f.Close())

	total, err := CountRecords(fs, "/w/out.result")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestSweep(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"/w/a_ss.ps", "/w/b_dp.ps", "/w/train_fold.result", "/other/c.ps"} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("x"), 0644))
	}

	assert.Equal(t, 2, sweep(fs, "/w", []string{"*.ps"}))
	assert.Equal(t, 0, sweep(fs, "/w", []string{"*.ps"}))

	left, err := afero.Glob(fs, "/w/*")
	require.NoError(t, err)
	assert.Equal(t, []string{"/w/train_fold.result"}, left)
	ok, _ := afero.Exists(fs, "/other/c.ps")
	assert.True(t, ok)
}

func TestNormalizeHeaders(t *testing.T) {
	in := ">chr1:100-300 strand=+\tgene X\nACGU\nACGU\n>rna2\nGGCC\n"
	var out bytes.Buffer
	n, err := NormalizeHeaders(strings.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, ">chr1:100-300|strand=+|gene|X\nACGUACGU\n>rna2\nGGCC\n", out.String())
}

func TestFailedError(t *testing.T) {
	err := &FailedError{Binary: "RNAfold", ExitCode: 1, Stderr: "  out of memory\n"}
	assert.Equal(t, "RNAfold exited with status 1: out of memory", err.Error())

	tl := &tail{max: 4}
	_, _ = tl.Write([]byte("abcdef"))
	_, _ = tl.Write([]byte("gh"))
	assert.Equal(t, "efgh", tl.String())
}
