// Package codec converts symbol sequences to and from one-hot matrices.
//
// Every alphabet shares one contract: a K×N matrix with one channel per
// symbol and one column per position. Sequences shorter than N are centered
// with zero columns (the extra column, if any, goes on the right); longer
// sequences are cut to their first N symbols. A column is all zero for
// padding and for symbols outside the alphabet.
package codec

import (
	"unicode"

	"github.com/jjtimmons/music/internal/errs"
	"gonum.org/v1/gonum/mat"
)

// Alphabet is an injective symbol to channel table plus the normalization
// applied to a sequence before lookup.
type Alphabet struct {
	name    string
	symbols []byte
	index   [256]int

	// keepCase skips upper-casing before lookup
	keepCase bool

	// lettersOnly drops non-alphabetic characters before indexing
	lettersOnly bool
}

// Option adjusts how an Alphabet normalizes sequences.
type Option func(*Alphabet)

// CasePreserving looks symbols up as written rather than upper-cased.
func CasePreserving() Option {
	return func(a *Alphabet) { a.keepCase = true }
}

// LettersOnly drops every non-alphabetic character before the sequence is
// measured, padded and indexed.
func LettersOnly() Option {
	return func(a *Alphabet) { a.lettersOnly = true }
}

// New creates an alphabet whose channel order is the order of symbols.
func New(name, symbols string, opts ...Option) (*Alphabet, error) {
	if symbols == "" {
		return nil, errs.Newf(errs.InputFormat, "codec.New", "alphabet %s has no symbols", name)
	}

	a := &Alphabet{name: name, symbols: []byte(symbols)}
	for i := range a.index {
		a.index[i] = -1
	}
	for _, opt := range opts {
		opt(a)
	}

	for i, s := range a.symbols {
		if s > unicode.MaxASCII {
			return nil, errs.Newf(errs.InputFormat, "codec.New", "alphabet %s has non-ASCII symbol %q", name, s)
		}
		if a.index[s] >= 0 {
			return nil, errs.Newf(errs.InputFormat, "codec.New", "alphabet %s repeats symbol %q", name, s)
		}
		a.index[s] = i
	}
	return a, nil
}

// Must is New that panics, for alphabets declared as package variables.
func Must(name, symbols string, opts ...Option) *Alphabet {
	a, err := New(name, symbols, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// Name of the alphabet, ex: "seq_4"
func (a *Alphabet) Name() string { return a.name }

// Size is the number of channels, K.
func (a *Alphabet) Size() int { return len(a.symbols) }

// Symbols in channel order.
func (a *Alphabet) Symbols() string { return string(a.symbols) }

// Channel returns the channel of symbol s as written (no normalization) or
// false if s isn't in the alphabet.
func (a *Alphabet) Channel(s byte) (int, bool) {
	i := a.index[s]
	return i, i >= 0
}

// normalize applies the alphabet's case and filtering policy. The result
// has one entry per character of seq.
func (a *Alphabet) normalize(seq string) []rune {
	out := make([]rune, 0, len(seq))
	for _, c := range seq {
		if a.lettersOnly && !unicode.IsLetter(c) {
			continue
		}
		if !a.keepCase && 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return out
}

// channel of character c, -1 outside the alphabet. Symbols are ASCII.
func (a *Alphabet) channel(c rune) int {
	if c < 0 || c > unicode.MaxASCII {
		return -1
	}
	return a.index[c]
}

// Encode returns the K×maxLen one-hot matrix of seq.
func (a *Alphabet) Encode(seq string, maxLen int) (*mat.Dense, error) {
	if maxLen < 1 {
		return nil, errs.Newf(errs.InputFormat, "codec.Encode", "max length must be positive, got %d", maxLen)
	}

	s := a.normalize(seq)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	left := (maxLen - len(s)) / 2

	m := mat.NewDense(a.Size(), maxLen, nil)
	for i, c := range s {
		if ch := a.channel(c); ch >= 0 {
			m.Set(ch, left+i, 1)
		}
	}
	return m, nil
}

// Decode is the left inverse of Encode. A column with exactly one channel
// set to 1 yields that channel's symbol; columns with none or several set
// are skipped rather than treated as errors, so padding vanishes.
func (a *Alphabet) Decode(m mat.Matrix) (string, error) {
	rows, cols := m.Dims()
	if rows != a.Size() {
		return "", errs.Newf(errs.ShapeMismatch, "codec.Decode", "alphabet %s has %d channels, matrix has %d rows", a.name, a.Size(), rows)
	}

	out := make([]byte, 0, cols)
	for j := 0; j < cols; j++ {
		hit := -1
		for i := 0; i < rows; i++ {
			if m.At(i, j) != 1 {
				continue
			}
			if hit >= 0 {
				hit = -2
				break
			}
			hit = i
		}
		if hit >= 0 {
			out = append(out, a.symbols[hit])
		}
	}
	return string(out), nil
}

// Padding returns the number of zero columns Encode puts before and after a
// sequence of length n in a matrix of width maxLen.
func Padding(n, maxLen int) (left, right int) {
	if n >= maxLen {
		return 0, 0
	}
	left = (maxLen - n) / 2
	return left, maxLen - n - left
}

