package cmd

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jjtimmons/music/internal/codec"
	"github.com/jjtimmons/music/internal/dataset"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// inspectCmd is for reading back a tensor store
var inspectCmd = &cobra.Command{
	Use:                        "inspect [store]",
	Short:                      "Describe a tensor store and decode its first records",
	RunE:                       runInspect,
	Args:                       cobra.ExactArgs(1),
	SuggestionsMinimumDistance: 2,
	Example:                    "  music inspect data/AGO2/positive_data/train.h5 --head 3",
}

// encodeCmd is for one-hot encoding a sequence with any alphabet
var encodeCmd = &cobra.Command{
	Use:                        "encode [sequence]",
	Short:                      "One-hot encode a sequence and print the matrix",
	RunE:                       runEncode,
	Args:                       cobra.ExactArgs(1),
	SuggestionsMinimumDistance: 2,
	Example:                    "  music encode --alphabet str_7 --max-length 12 BEHLMRT",
}

func runInspect(cmd *cobra.Command, args []string) error {
	head, _ := cmd.Flags().GetInt("head")

	t, err := dataset.ReadStore(args[0])
	if err != nil {
		return err
	}
	size := uint64(len(t.Data)) * 4
	if info, err := fs.Stat(args[0]); err == nil {
		size = uint64(info.Size())
	}
	cmd.Printf("%s: %s records of %d×%d (%s)\n", args[0], humanize.Comma(int64(t.N())), t.C, t.L, humanize.Bytes(size))

	if t.C != dataset.Channels {
		return nil
	}
	seqRows := codec.Seq4.Size()
	for i := 0; i < head && i < t.N(); i++ {
		m := t.Matrix(i)
		seq, err := codec.Seq4.Decode(m.Slice(0, seqRows, 0, t.L))
		if err != nil {
			return err
		}
		str, err := codec.Str2.Decode(m.Slice(seqRows, t.C, 0, t.L))
		if err != nil {
			return err
		}
		cmd.Printf("%s\t%s\t%s\n", t.IDs[i], seq, str)
	}
	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("alphabet")
	maxLen, _ := cmd.Flags().GetInt("max-length")

	a, err := codec.Lookup(name)
	if err != nil {
		return err
	}
	m, err := a.Encode(args[0], maxLen)
	if err != nil {
		return err
	}

	rows, cols := m.Dims()
	symbols := a.Symbols()
	for i := 0; i < rows; i++ {
		line := make([]byte, 0, 2*cols+2)
		line = append(line, symbols[i], ' ')
		for j := 0; j < cols; j++ {
			line = append(line, '0'+byte(m.At(i, j)))
		}
		cmd.Println(string(line))
	}

	decoded, err := a.Decode(m)
	if err != nil {
		return err
	}
	if decoded == "" && args[0] != "" {
		return errs.E(errs.InputFormat, "encode", errors.Errorf("no symbol of %q is in %s (%s)", args[0], a.Name(), symbols))
	}
	return nil
}

func init() {
	inspectCmd.Flags().Int("head", 5, "number of records to decode")

	encodeCmd.Flags().StringP("alphabet", "a", codec.Seq4.Name(), "one of the alphabets listed by 'music encode --help'")
	encodeCmd.Long = "\nOne-hot encode a sequence, centered in --max-length columns.\n\nAlphabets: " + strings.Join(codec.Names(), ", ")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(encodeCmd)
}
