package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jjtimmons/music/config"
	"github.com/jjtimmons/music/internal/codec"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

func TestReadTable(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []Row
		wantErr bool
	}{
		{
			"rows",
			"rna1\tACGU\tUPPU\nrna2\tGG\tPP\textra\n\n",
			[]Row{{"rna1", "ACGU", "UPPU"}, {"rna2", "GG", "PP"}},
			false,
		},
		{
			"crlf",
			"rna1\tAC\tUP\r\n",
			[]Row{{"rna1", "AC", "UP"}},
			false,
		},
		{
			"too few columns",
			"rna1\tACGU\n",
			nil,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTable(strings.NewReader(tt.in))
			if tt.wantErr {
				assert.True(t, errs.Is(err, errs.InputFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	m, err := Encode(Row{ID: "x", Sequence: "ACG", Structure: "UPU"}, 5)
	require.NoError(t, err)

	r, c := m.Dims()
	assert.Equal(t, Channels, r)
	assert.Equal(t, 5, c)

	// one column of padding on the left, one on the right
	want := mat.NewDense(6, 5, []float64{
		0, 1, 0, 0, 0, // A
		0, 0, 1, 0, 0, // C
		0, 0, 0, 1, 0, // G
		0, 0, 0, 0, 0, // U
		0, 1, 0, 1, 0, // unpaired
		0, 0, 1, 0, 0, // paired
	})
	assert.True(t, mat.Equal(want, m))

	seq, err := codec.Seq4.Decode(m.Slice(0, 4, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, "ACG", seq)
}

func TestCombine_shapeMismatch(t *testing.T) {
	_, err := Combine(mat.NewDense(4, 10, nil), mat.NewDense(2, 9, nil))
	assert.True(t, errs.Is(err, errs.ShapeMismatch))
}

func TestTensor(t *testing.T) {
	tn := NewTensor(2, 3, 2)
	require.NoError(t, tn.Append("a", mat.NewDense(2, 3, []float64{1, 0, 0, 0, 1, 1})))
	require.NoError(t, tn.Append("b", mat.NewDense(2, 3, []float64{0, 0, 1, 1, 1, 0})))
	assert.True(t, errs.Is(tn.Append("c", mat.NewDense(3, 3, nil)), errs.ShapeMismatch))

	assert.Equal(t, 2, tn.N())
	assert.Equal(t, []float32{1, 0, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0}, tn.Data)
	assert.True(t, mat.Equal(mat.NewDense(2, 3, []float64{0, 0, 1, 1, 1, 0}), tn.Matrix(1)))
}

func TestLabeled(t *testing.T) {
	pos := &Tensor{IDs: []string{"p1", "p2"}, Data: []float32{1, 2}, C: 1, L: 1}
	neg := &Tensor{IDs: []string{"n1"}, Data: []float32{3}, C: 1, L: 1}

	set, err := Labeled(pos, neg)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "n1"}, set.IDs)
	assert.Equal(t, []float32{1, 2, 3}, set.Data)
	assert.Equal(t, []float32{1, 1, 0}, set.Labels)

	_, err = Labeled(pos, &Tensor{C: 1, L: 2})
	assert.True(t, errs.Is(err, errs.ShapeMismatch))
}

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.h5")
	in := &Tensor{
		IDs:  []string{"chr1|100-300", "b", "a-much-longer-identifier"},
		Data: []float32{0, 1, 1, 0, 0.5, 0.25, 1, 1, 0, 0, 0, 1},
		C:    2,
		L:    2,
	}
	require.NoError(t, WriteStore(path, in))

	_, err := os.Stat(path + ".partial")
	assert.True(t, os.IsNotExist(err))

	out, err := ReadStore(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	data, dims, err := ReadTensor(path, MatricesDataset)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 2}, dims)
	assert.Equal(t, in.Data, data)

	_, _, err = ReadTensor(path, "missing")
	assert.True(t, errs.Is(err, errs.InputFormat))

	_, err = ReadStore(filepath.Join(t.TempDir(), "missing.h5"))
	assert.True(t, errs.Is(err, errs.IO))

	bad := &Tensor{IDs: []string{"a"}, Data: []float32{1}, C: 2, L: 2}
	assert.True(t, errs.Is(WriteStore(path, bad), errs.ShapeMismatch))
}

func TestMaterialize(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "train_annotation.tsv")
	rows := "rna3\tACGUACGU\tUUPPPPUU\nrna1\tAC\tPU\nrna2\tGGGGGGGGGGGG\tPPPPPPPPPPPP\n"
	require.NoError(t, os.WriteFile(table, []byte(rows), 0644))

	m := NewMaterializer(config.DatasetConfig{MaxLength: 10}, afero.NewOsFs(), zap.NewNop())
	store := filepath.Join(dir, "AGO2", "positive_data", "train.h5")
	sum, err := m.Materialize(context.Background(), table, store)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Records)
	assert.Equal(t, 6, sum.Channels)
	assert.Equal(t, 10, sum.MaxLength)
	assert.Equal(t, 1, sum.Truncated)
	assert.Equal(t, 2.0, sum.MinLength)
	assert.Equal(t, 12.0, sum.LongestInput)
	assert.InDelta(t, 22.0/3, sum.MeanLength, 1e-9)
	assert.Equal(t, 8.0, sum.MedianLength)
	assert.Contains(t, sum.String(), "3 records of 6×10")

	got, err := ReadStore(store)
	require.NoError(t, err)
	assert.Equal(t, []string{"rna3", "rna1", "rna2"}, got.IDs)
	assert.Equal(t, 6, got.C)
	assert.Equal(t, 10, got.L)

	seq, err := codec.Seq4.Decode(got.Matrix(0).Slice(0, 4, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, "ACGUACGU", seq)

	seq, err = codec.Seq4.Decode(got.Matrix(2).Slice(0, 4, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, "GGGGGGGGGG", seq, "long records keep their first max-length symbols")

	str, err := codec.Str2.Decode(got.Matrix(1).Slice(4, 6, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, "PU", str)
}

func TestMaterialize_failures(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/empty.tsv", nil, 0644))
	require.NoError(t, afero.WriteFile(fs, "/bad.tsv", []byte("rna1 ACGU UUUU\n"), 0644))
	m := NewMaterializer(config.DatasetConfig{MaxLength: 10}, fs, zap.NewNop())

	_, err := m.Materialize(context.Background(), "/empty.tsv", "/out.h5")
	assert.True(t, errs.Is(err, errs.InputFormat))

	_, err = m.Materialize(context.Background(), "/bad.tsv", "/out.h5")
	assert.True(t, errs.Is(err, errs.InputFormat))

	_, err = m.Materialize(context.Background(), "/missing.tsv", "/out.h5")
	assert.True(t, errs.Is(err, errs.IO))
}
