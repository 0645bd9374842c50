package snv

import (
	"os"
	"strings"
	"testing"

	"github.com/jjtimmons/music/internal/errs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/infer/gene_variants.inference", []byte(
		"rs1\t12\t0.75\nrs2\t40\t0.1\n\nrs3\t7\t0.3\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/out/infer/gene_wt.inference", []byte(
		"rs1\t12\t0.5\nrs2\t40\t0.2\nrs3\t7\t0.3\n"), 0644))

	out := DefaultOutput("/out/infer/gene_variants.inference")
	assert.Equal(t, "/out/infer/gene_diff.inference", out)

	n, err := MergeFiles(fs, "/out/infer/gene_variants.inference", "/out/infer/gene_wt.inference", out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := afero.ReadFile(fs, out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(got), "\n"), "\n")
	require.Len(t, lines, 1+3)
	assert.Equal(t, "ID\tVariants_Value\tWT_Value\tDifference", lines[0])
	assert.Equal(t, "rs1\t0.75\t0.5\t0.25", lines[1])
	// full precision, as float subtraction gives it
	assert.Equal(t, "rs2\t0.1\t0.2\t-0.1", lines[2])
	assert.Equal(t, "rs3\t0.3\t0.3\t0", lines[3])

	exists, _ := afero.Exists(fs, out+".partial")
	assert.False(t, exists)
}

func TestMergeFiles_failures(t *testing.T) {
	tests := []struct {
		name     string
		variants string
		wt       string
		wantKind errs.Kind
	}{
		{"row counts differ", "a\t1\t0.5\nb\t2\t0.5\n", "a\t1\t0.5\n", errs.ShapeMismatch},
		{"ids differ", "a\t1\t0.5\n", "b\t1\t0.5\n", errs.ShapeMismatch},
		{"positions differ", "a\t1\t0.5\n", "a\t2\t0.5\n", errs.ShapeMismatch},
		{"non-numeric variant value", "a\t1\tNA?\n", "a\t1\t0.5\n", errs.InputFormat},
		{"non-numeric wild-type value", "a\t1\t0.5\n", "a\t1\t\n", errs.InputFormat},
		{"missing value column", "a\t1\n", "a\t1\t0.5\n", errs.InputFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/v.inference", []byte(tt.variants), 0644))
			require.NoError(t, afero.WriteFile(fs, "/w.inference", []byte(tt.wt), 0644))

			_, err := MergeFiles(fs, "/v.inference", "/w.inference", "/d.inference")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errs.KindOf(err))

			for _, p := range []string{"/d.inference", "/d.inference.partial"} {
				exists, _ := afero.Exists(fs, p)
				assert.False(t, exists, "no output on failure: %s", p)
			}
		})
	}
}

// noRenameFs fails every rename
type noRenameFs struct{ afero.Fs }

func (noRenameFs) Rename(string, string) error { return os.ErrPermission }

func TestMergeFiles_writesBesideOutput(t *testing.T) {
	fs := noRenameFs{afero.NewMemMapFs()}
	require.NoError(t, afero.WriteFile(fs, "/v.inference", []byte("rs1\t1\t0.75\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/w.inference", []byte("rs1\t1\t0.5\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/d.inference", []byte("previous\n"), 0644))

	_, err := MergeFiles(fs, "/v.inference", "/w.inference", "/d.inference")
	assert.True(t, errs.Is(err, errs.IO))

	got, err := afero.ReadFile(fs, "/d.inference")
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(got), "output is replaced only by a complete merge")
	exists, _ := afero.Exists(fs, "/d.inference.partial")
	assert.False(t, exists)
}

func TestMergeFiles_missingInput(t *testing.T) {
	_, err := MergeFiles(afero.NewMemMapFs(), "/v.inference", "/w.inference", "/d.inference")
	assert.True(t, errs.Is(err, errs.IO))
}
