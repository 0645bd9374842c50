package cmd

import (
	"github.com/jjtimmons/music/internal/dataset"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/jjtimmons/music/internal/har"
	"github.com/jjtimmons/music/internal/predict"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// harCmd is for finding the high-attention region of every record
var harCmd = &cobra.Command{
	Use:                        "har",
	Short:                      "Find the high-attention region of each record",
	RunE:                       runHAR,
	SuggestionsMinimumDistance: 2,
	Example:                    "  music har --attributions saliency.h5 --predictions out/infer/human.inference --out out/har/human.har",
	Long: `
Read an N × C × L attribution tensor and, for every record, find the window of
--window positions whose attribution (summed over channels) is highest. Writes
"index, probability, start, end" rows with the probability taken from the
matching row of the inference file.`,
}

func runHAR(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	attrPath, _ := cmd.Flags().GetString("attributions")
	name, _ := cmd.Flags().GetString("dataset")
	predPath, _ := cmd.Flags().GetString("predictions")
	out, _ := cmd.Flags().GetString("out")
	window, _ := cmd.Flags().GetInt("window")

	data, dims, err := dataset.ReadTensor(attrPath, name)
	if err != nil {
		return err
	}

	pf, err := fs.Open(predPath)
	if err != nil {
		return errs.P(errs.IO, "har", predPath, err)
	}
	preds, err := predict.Read(pf)
	pf.Close()
	if err != nil {
		return err
	}

	regions, err := har.Find(data, dims, predict.Probabilities(preds), window)
	if err != nil {
		return err
	}

	f, err := fs.Create(out)
	if err != nil {
		return errs.P(errs.IO, "har", out, err)
	}
	if err := har.Write(f, regions); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errs.P(errs.IO, "har", out, err)
	}
	e.log.Info("high-attention regions written", zap.String("out", out), zap.Int("records", len(regions)))
	return nil
}

func init() {
	harCmd.Flags().String("attributions", "", "HDF5 file with the attribution tensor")
	harCmd.Flags().String("dataset", "attributions", "name of the attribution dataset")
	harCmd.Flags().String("predictions", "", "inference file with one row per record")
	harCmd.Flags().StringP("out", "o", "", "output file")
	harCmd.Flags().Int("window", har.DefaultWindow, "region length")
	harCmd.MarkFlagRequired("attributions")
	harCmd.MarkFlagRequired("predictions")
	harCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(harCmd)
}
