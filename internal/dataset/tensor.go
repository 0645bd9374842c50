package dataset

import (
	"github.com/jjtimmons/music/internal/codec"
	"github.com/jjtimmons/music/internal/errs"
	"gonum.org/v1/gonum/mat"
)

// Channels is the number of rows in a combined feature matrix: the
// nucleotide channels followed by the paired/unpaired channels
var Channels = codec.Seq4.Size() + codec.Str2.Size()

// Tensor is an ordered set of equally shaped feature matrices, stored
// record-major as N × C × L float32 values.
type Tensor struct {
	IDs  []string
	Data []float32

	// C is channels, L the max length
	C, L int
}

// NewTensor returns an empty Tensor of C × L matrices with room for n
// records.
func NewTensor(c, l, n int) *Tensor {
	return &Tensor{
		IDs:  make([]string, 0, n),
		Data: make([]float32, 0, n*c*l),
		C:    c,
		L:    l,
	}
}

// N is the number of records
func (t *Tensor) N() int { return len(t.IDs) }

// Append adds a C × L matrix under id.
func (t *Tensor) Append(id string, m mat.Matrix) error {
	r, c := m.Dims()
	if r != t.C || c != t.L {
		return errs.Newf(errs.ShapeMismatch, "tensor.Append", "record %s is %d×%d, tensor holds %d×%d", id, r, c, t.C, t.L)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			t.Data = append(t.Data, float32(m.At(i, j)))
		}
	}
	t.IDs = append(t.IDs, id)
	return nil
}

// Matrix returns record i as a C × L matrix.
func (t *Tensor) Matrix(i int) *mat.Dense {
	size := t.C * t.L
	vals := make([]float64, size)
	for k, v := range t.Data[i*size : (i+1)*size] {
		vals[k] = float64(v)
	}
	return mat.NewDense(t.C, t.L, vals)
}

// Combine stacks a sequence matrix on top of a structure matrix of the same
// width.
func Combine(seq, str mat.Matrix) (*mat.Dense, error) {
	sr, sc := seq.Dims()
	tr, tc := str.Dims()
	if sc != tc {
		return nil, errs.Newf(errs.ShapeMismatch, "dataset.Combine", "sequence matrix has %d columns, structure matrix %d", sc, tc)
	}

	m := mat.NewDense(sr+tr, sc, nil)
	m.Slice(0, sr, 0, sc).(*mat.Dense).Copy(seq)
	m.Slice(sr, sr+tr, 0, sc).(*mat.Dense).Copy(str)
	return m, nil
}

// Encode returns the combined feature matrix of one annotation row.
func Encode(row Row, maxLen int) (*mat.Dense, error) {
	seq, err := codec.Seq4.Encode(row.Sequence, maxLen)
	if err != nil {
		return nil, err
	}
	str, err := codec.Str2.Encode(row.Structure, maxLen)
	if err != nil {
		return nil, err
	}
	return Combine(seq, str)
}

// LabeledSet is a positive and a negative tensor joined for training:
// positives first, labelled 1, then negatives labelled 0.
type LabeledSet struct {
	*Tensor
	Labels []float32
}

// Labeled joins pos and neg. Both must have the same matrix shape.
func Labeled(pos, neg *Tensor) (*LabeledSet, error) {
	if pos.C != neg.C || pos.L != neg.L {
		return nil, errs.Newf(errs.ShapeMismatch, "dataset.Labeled",
			"positive records are %d×%d, negative records %d×%d", pos.C, pos.L, neg.C, neg.L)
	}

	t := NewTensor(pos.C, pos.L, pos.N()+neg.N())
	t.IDs = append(append(t.IDs, pos.IDs...), neg.IDs...)
	t.Data = append(append(t.Data, pos.Data...), neg.Data...)

	labels := make([]float32, 0, t.N())
	for range pos.IDs {
		labels = append(labels, 1)
	}
	for range neg.IDs {
		labels = append(labels, 0)
	}
	return &LabeledSet{Tensor: t, Labels: labels}, nil
}
