package dataset

import (
	"bytes"
	"os"

	"github.com/jjtimmons/music/internal/errs"
	"github.com/pkg/errors"
	"gonum.org/v1/hdf5"
)

const (
	// NamesDataset holds the record identifiers as fixed width byte strings
	NamesDataset = "rna_names"

	// MatricesDataset holds the N × C × L float32 feature matrices
	MatricesDataset = "one_hot_matrices"
)

// WriteStore writes t to a new HDF5 file at path, replacing any file there.
// The store is written beside path and renamed into place, so a reader never
// sees a half written store.
func WriteStore(path string, t *Tensor) error {
	if len(t.Data) != t.N()*t.C*t.L {
		return errs.Newf(errs.ShapeMismatch, "write store", "%d values for %d records of %d×%d", len(t.Data), t.N(), t.C, t.L)
	}

	partial := path + ".partial"
	if err := writeStore(partial, t); err != nil {
		os.Remove(partial)
		return errs.P(errs.IO, "write store", path, err)
	}
	if err := os.Rename(partial, path); err != nil {
		os.Remove(partial)
		return errs.P(errs.IO, "write store", path, err)
	}
	return nil
}

func writeStore(path string, t *Tensor) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return errors.Wrap(err, "create file")
	}
	defer f.Close()

	// one byte past the longest id so every name is nul terminated
	width := 1
	for _, id := range t.IDs {
		if len(id)+1 > width {
			width = len(id) + 1
		}
	}
	names := make([]byte, t.N()*width)
	for i, id := range t.IDs {
		copy(names[i*width:], id)
	}

	strType, err := hdf5.T_C_S1.Copy()
	if err != nil {
		return errors.Wrap(err, "string type")
	}
	defer strType.Close()
	if err := strType.SetSize(uint(width)); err != nil {
		return errors.Wrap(err, "string type")
	}

	if err := writeDataset(f, NamesDataset, strType, []uint{uint(t.N())}, &names); err != nil {
		return err
	}
	return writeDataset(f, MatricesDataset, hdf5.T_NATIVE_FLOAT, []uint{uint(t.N()), uint(t.C), uint(t.L)}, &t.Data)
}

func writeDataset(f *hdf5.File, name string, dtype *hdf5.Datatype, dims []uint, data interface{}) error {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return errors.Wrapf(err, "dataspace for %s", name)
	}
	defer space.Close()

	dset, err := f.CreateDataset(name, dtype, space)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}
	defer dset.Close()

	if len(dims) > 0 && dims[0] == 0 {
		return nil
	}
	return errors.Wrapf(dset.Write(data), "write %s", name)
}

// ReadStore reads back a store written by WriteStore.
func ReadStore(path string) (*Tensor, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errs.P(errs.IO, "read store", path, err)
	}
	defer f.Close()

	ids, err := readNames(f)
	if err != nil {
		return nil, errs.P(errs.InputFormat, "read store", path, err)
	}
	data, dims, err := readFloats(f, MatricesDataset)
	if err != nil {
		return nil, errs.P(errs.InputFormat, "read store", path, err)
	}
	if len(dims) != 3 {
		return nil, errs.Newf(errs.ShapeMismatch, "read store", "%s: %s has %d dimensions, expected 3", path, MatricesDataset, len(dims))
	}
	if dims[0] != len(ids) {
		return nil, errs.Newf(errs.ShapeMismatch, "read store", "%s: %d names for %d matrices", path, len(ids), dims[0])
	}
	return &Tensor{IDs: ids, Data: data, C: dims[1], L: dims[2]}, nil
}

// ReadTensor reads any float32 dataset out of an HDF5 file, returning its
// values in row-major order and its dimensions.
func ReadTensor(path, name string) ([]float32, []int, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, nil, errs.P(errs.IO, "read tensor", path, err)
	}
	defer f.Close()

	data, dims, err := readFloats(f, name)
	if err != nil {
		return nil, nil, errs.P(errs.InputFormat, "read tensor", path, err)
	}
	return data, dims, nil
}

func readNames(f *hdf5.File) ([]string, error) {
	dset, err := f.OpenDataset(NamesDataset)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", NamesDataset)
	}
	defer dset.Close()

	dims, err := extent(dset)
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, errors.Errorf("%s has %d dimensions, expected 1", NamesDataset, len(dims))
	}

	dtype, err := dset.Datatype()
	if err != nil {
		return nil, errors.Wrapf(err, "type of %s", NamesDataset)
	}
	defer dtype.Close()
	if dtype.Class() != hdf5.T_STRING {
		return nil, errors.Errorf("%s does not hold strings", NamesDataset)
	}
	width := int(dtype.Size())

	n := dims[0]
	if n == 0 {
		return []string{}, nil
	}
	buf := make([]byte, n*width)
	if err := dset.Read(&buf); err != nil {
		return nil, errors.Wrapf(err, "read %s", NamesDataset)
	}

	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(bytes.TrimRight(buf[i*width:(i+1)*width], "\x00 "))
	}
	return ids, nil
}

func readFloats(f *hdf5.File, name string) ([]float32, []int, error) {
	dset, err := f.OpenDataset(name)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", name)
	}
	defer dset.Close()

	dims, err := extent(dset)
	if err != nil {
		return nil, nil, err
	}

	dtype, err := dset.Datatype()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "type of %s", name)
	}
	defer dtype.Close()
	if dtype.Class() != hdf5.T_FLOAT || dtype.Size() != 4 {
		return nil, nil, errors.Errorf("%s is not float32", name)
	}

	total := 1
	for _, d := range dims {
		total *= d
	}
	data := make([]float32, total)
	if total == 0 {
		return data, dims, nil
	}
	if err := dset.Read(&data); err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", name)
	}
	return data, dims, nil
}

func extent(dset *hdf5.Dataset) ([]int, error) {
	space := dset.Space()
	defer space.Close()

	raw, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrap(err, "dataset extent")
	}
	dims := make([]int, len(raw))
	for i, d := range raw {
		dims[i] = int(d)
	}
	return dims, nil
}
