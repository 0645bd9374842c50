package codec

import (
	"sort"

	"github.com/jjtimmons/music/internal/errs"
)

var (
	// Seq4 is the nucleotide alphabet
	Seq4 = Must("seq_4", "ACGU")

	// Str2 is the paired/unpaired structure alphabet. U is channel 0
	Str2 = Must("str_2", "UP")

	// Str4 is the paired, loop, unpaired, multi structure alphabet
	Str4 = Must("str_4", "PLUM")

	// Str7 is the annotation tool's structure alphabet
	Str7 = Must("str_7", "BEHLMRT")

	// SeqStr8 is a combined sequence and structure alphabet
	SeqStr8 = Must("seq_str_8", "ABCDEFGH")

	// SeqStr16 is a combined sequence and structure alphabet
	SeqStr16 = Must("seq_str_16", "ABCDEFGHIJKLMNOP")

	// SeqStr28 is a combined sequence and structure alphabet. Unlike the
	// others it is case sensitive ('a' and 'b' are channels 26 and 27) and
	// non-letters are removed before the sequence is measured
	SeqStr28 = Must("seq_str_28", "ABCDEFGHIJKLMNOPQRSTUVWXYZab", CasePreserving(), LettersOnly())
)

var registry = map[string]*Alphabet{}

func init() {
	for _, a := range []*Alphabet{Seq4, Str2, Str4, Str7, SeqStr8, SeqStr16, SeqStr28} {
		registry[a.Name()] = a
	}
}

// Lookup returns a predefined alphabet by name, ex: "str_2"
func Lookup(name string) (*Alphabet, error) {
	a, ok := registry[name]
	if !ok {
		return nil, errs.Newf(errs.InputFormat, "codec.Lookup", "no alphabet named %q, choose from %v", name, Names())
	}
	return a, nil
}

// Names of the predefined alphabets, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
