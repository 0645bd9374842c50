package cmd

import (
	"github.com/jjtimmons/music/internal/snv"
	"github.com/spf13/cobra"
)

// diffCmd is for measuring the impact of variants on the model's prediction
var diffCmd = &cobra.Command{
	Use:                        "diff",
	Short:                      "Subtract wild-type from variant inference values",
	RunE:                       runDiff,
	SuggestionsMinimumDistance: 2,
	Example:                    "  music diff --variants out/infer/gene_variants.inference --wt out/infer/gene_wt.inference",
	Long: `
Join a variant and a wild-type inference file row by row and write the
difference of their values. Both files must list the same ids and positions
in the same order; nothing is written if they don't.

Without --out the result goes beside the variants file with
"_variants.inference" replaced by "_diff.inference".`,
	Aliases: []string{"snv"},
}

func runDiff(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	variants, _ := cmd.Flags().GetString("variants")
	wt, _ := cmd.Flags().GetString("wt")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = snv.DefaultOutput(variants)
	}

	n, err := snv.MergeFiles(fs, variants, wt, out)
	if err != nil {
		return err
	}
	e.log.Sugar().Infof("%d differences written to %s", n, out)
	return nil
}

func init() {
	diffCmd.Flags().String("variants", "", "inference file of the variant sequences")
	diffCmd.Flags().String("wt", "", "inference file of the wild-type sequences")
	diffCmd.Flags().StringP("out", "o", "", "output file")
	diffCmd.MarkFlagRequired("variants")
	diffCmd.MarkFlagRequired("wt")

	rootCmd.AddCommand(diffCmd)
}
