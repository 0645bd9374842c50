package structure

import (
	"testing"

	"github.com/jjtimmons/music/internal/errs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceAll(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantFour string
		wantTwo  string
	}{
		{"mixed", "BHTLM", "MLMPM", "UUUPU"},
		{"every symbol", "BEHLMRT", "MULPMPM", "UUUPUPU"},
		{"stem", "LLLL", "PPPP", "PPPP"},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReduceAll(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFour, got.Four)
			assert.Equal(t, tt.wantTwo, got.Two)

			two, err := Reduce(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTwo, two)
		})
	}
}

func TestReduce_singleSymbols(t *testing.T) {
	four, err := ToFour("B")
	require.NoError(t, err)
	assert.Equal(t, "M", four)
	two, err := ToTwo(four)
	require.NoError(t, err)
	assert.Equal(t, "U", two)

	four, err = ToFour("L")
	require.NoError(t, err)
	assert.Equal(t, "P", four)
	two, err = ToTwo(four)
	require.NoError(t, err)
	assert.Equal(t, "P", two)
}

func TestReduce_unmapped(t *testing.T) {
	tests := []struct {
		name    string
		reduce  func(string) (string, error)
		in      string
		wantSym byte
		wantPos int
	}{
		{"dot bracket is not annotated", Reduce, "LL.", '.', 2},
		{"lower case", Reduce, "bH", 'b', 0},
		{"seven letter symbol given to ToTwo", ToTwo, "PPB", 'B', 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.reduce(tt.in)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.InputFormat))

			var unmapped *UnmappedSymbolError
			require.True(t, errors.As(err, &unmapped))
			assert.Equal(t, tt.wantSym, unmapped.Symbol)
			assert.Equal(t, tt.wantPos, unmapped.Position)
		})
	}
}
