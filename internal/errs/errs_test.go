package errs

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Other},
		{"plain", errors.New("boom"), Other},
		{"direct", Newf(InputFormat, "parse", "bad header %q", "x"), InputFormat},
		{"wrapped with pkg/errors", errors.Wrap(E(ExternalTool, "fold", errors.New("exit 1")), "generate"), ExternalTool},
		{"wrapped with fmt", fmt.Errorf("outer: %w", P(IO, "open", "/tmp/x", errors.New("missing"))), IO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestE_nil(t *testing.T) {
	assert.Nil(t, E(IO, "write", nil))
	assert.Nil(t, P(IO, "write", "/x", nil))
	assert.False(t, Is(nil, IO))
}

func TestError_message(t *testing.T) {
	err := P(ShapeMismatch, "merge", "a.tsv", errors.New("row 3 differs"))
	assert.Equal(t, "merge a.tsv: shape mismatch: row 3 differs", err.Error())
	assert.True(t, Is(err, ShapeMismatch))
}
