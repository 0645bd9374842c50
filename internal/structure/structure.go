// Package structure reduces the annotation tool's seven letter structural
// classification to the four and two letter schemes used as model features.
//
//	seven  B E H L M R T
//	four   M U L P M P M
//	two    U U U P U P U
package structure

import (
	"fmt"

	"github.com/jjtimmons/music/internal/errs"
)

var (
	sevenToFour = table(map[byte]byte{
		'B': 'M',
		'E': 'U',
		'H': 'L',
		'L': 'P',
		'M': 'M',
		'R': 'P',
		'T': 'M',
	})

	fourToTwo = table(map[byte]byte{
		'P': 'P',
		'L': 'U',
		'U': 'U',
		'M': 'U',
	})
)

// table turns a symbol map into a lookup array, zero meaning unmapped
func table(m map[byte]byte) (t [256]byte) {
	for k, v := range m {
		t[k] = v
	}
	return
}

// UnmappedSymbolError is returned when a structure holds a symbol outside the
// domain of the reduction being applied.
type UnmappedSymbolError struct {
	// Domain is the alphabet the symbol should have belonged to, ex: "str_7"
	Domain string

	// Symbol that couldn't be mapped
	Symbol byte

	// Position of the symbol in the structure
	Position int
}

func (e *UnmappedSymbolError) Error() string {
	return fmt.Sprintf("symbol %q at position %d is not in %s", e.Symbol, e.Position, e.Domain)
}

// Reduced is a structure in both reduced alphabets
type Reduced struct {
	Four string
	Two  string
}

func apply(op, domain string, t *[256]byte, s string) (string, error) {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := t[s[i]]
		if c == 0 {
			return "", errs.E(errs.InputFormat, op, &UnmappedSymbolError{Domain: domain, Symbol: s[i], Position: i})
		}
		out[i] = c
	}
	return string(out), nil
}

// ToFour maps a seven letter structure to the four letter alphabet
func ToFour(raw string) (string, error) {
	return apply("structure.ToFour", "str_7", &sevenToFour, raw)
}

// ToTwo maps a four letter structure to the two letter alphabet
func ToTwo(four string) (string, error) {
	return apply("structure.ToTwo", "str_4", &fourToTwo, four)
}

// ReduceAll maps a seven letter structure through both reductions
func ReduceAll(raw string) (Reduced, error) {
	four, err := ToFour(raw)
	if err != nil {
		return Reduced{}, err
	}
	two, err := ToTwo(four)
	if err != nil {
		return Reduced{}, err
	}
	return Reduced{Four: four, Two: two}, nil
}

// Reduce maps a seven letter structure to the two letter alphabet
func Reduce(raw string) (string, error) {
	r, err := ReduceAll(raw)
	return r.Two, err
}
