package cmd

import (
	"github.com/jjtimmons/music/internal/dataset"
	"github.com/spf13/cobra"
)

// materializeCmd is for encoding an annotation table into a tensor store
var materializeCmd = &cobra.Command{
	Use:                        "materialize",
	Short:                      "Encode an annotation table into an HDF5 tensor store",
	RunE:                       runMaterialize,
	SuggestionsMinimumDistance: 2,
	Example:                    "  music materialize --in train_annotation.tsv --out train.h5 --max-length 200",
	Long: `
One-hot encode the sequence (A, C, G, U) and structure (unpaired, paired) of
every row of an annotation table, center each in a fixed number of columns
and save the stacked matrices, in table order, with their identifiers.`,
	Aliases: []string{"h5"},
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")

	sum, err := dataset.NewMaterializer(e.conf.Dataset, fs, e.log).Materialize(cmd.Context(), in, out)
	if err != nil {
		return err
	}
	cmd.Println(sum)
	return nil
}

func init() {
	materializeCmd.Flags().StringP("in", "i", "", "annotation table")
	materializeCmd.Flags().StringP("out", "o", "", "output tensor store")
	materializeCmd.MarkFlagRequired("in")
	materializeCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(materializeCmd)
}
