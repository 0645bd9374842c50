package cmd

import (
	"github.com/jjtimmons/music/internal/pipeline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// generateCmd is for running the whole preparation pipeline
var generateCmd = &cobra.Command{
	Use:                        "generate",
	Short:                      "Fold, annotate and materialize datasets",
	SuggestionsMinimumDistance: 2,
	Long: `
Run the preparation pipeline end to end: fold, annotate and materialize a
FASTA file into a tensor store. Every artifact has a fixed path derived from
the inputs; a store that already exists is reused.`,
	Aliases: []string{"gen"},
}

// generateTrainCmd is for an RBP's labelled training or test data
var generateTrainCmd = &cobra.Command{
	Use:                        "train",
	Short:                      "Generate the positive and negative stores of an RBP",
	RunE:                       runGenerateTrain,
	SuggestionsMinimumDistance: 2,
	Example:                    "  music generate train --root data --rbp AGO2 --split test",
	Long: `
Generate the stores of <root>/<rbp>/positive_data/<split>.fa and
<root>/<rbp>/negative_data/<split>.fa. Each store is written beside its FASTA
file as <split>.h5, scratch folding output goes to <root>/RNAfold_results/<rbp>.`,
}

// generateInferCmd is for unlabelled data
var generateInferCmd = &cobra.Command{
	Use:                        "infer [fasta] ... [fastaN]",
	Short:                      "Generate the store of an unlabelled FASTA file",
	RunE:                       runGenerateInfer,
	Args:                       cobra.MinimumNArgs(1),
	SuggestionsMinimumDistance: 2,
	Example:                    "  music generate infer human_cut200nt.fa",
	Long: `
Generate a store for each FASTA file, written beside it as <name>.h5. Whitespace
in the FASTA headers is replaced with '|' first, rewriting the file.`,
}

func runGenerateTrain(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("root")
	rbp, _ := cmd.Flags().GetString("rbp")
	split, _ := cmd.Flags().GetString("split")

	var layouts []pipeline.Layout
	switch pipeline.Split(split) {
	case pipeline.Train, pipeline.Test:
		layouts = pipeline.TrainingSet(root, rbp, pipeline.Split(split))
	case "all":
		layouts = append(pipeline.TrainingSet(root, rbp, pipeline.Train), pipeline.TrainingSet(root, rbp, pipeline.Test)...)
	default:
		return errors.Errorf("unknown split %q, expected train, test or all", split)
	}
	return generate(cmd, layouts)
}

func runGenerateInfer(cmd *cobra.Command, args []string) error {
	layouts := make([]pipeline.Layout, len(args))
	for i, fasta := range args {
		layouts[i] = pipeline.Inference(fasta)
	}
	return generate(cmd, layouts)
}

func generate(cmd *cobra.Command, layouts []pipeline.Layout) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	cat, err := e.openCatalog(ctx)
	if err != nil {
		return err
	}
	if cat != nil {
		defer cat.Close()
	}

	results, err := pipeline.New(e.conf, cat, fs, e.log).GenerateAll(ctx, layouts)
	for _, res := range results {
		if res.Reused {
			cmd.Printf("%s\t%s\treused\n", res.Layout.Dataset, res.Layout.Store)
			continue
		}
		cmd.Printf("%s\t%s\t%s\n", res.Layout.Dataset, res.Layout.Store, res.Summary)
	}
	return err
}

func init() {
	generateTrainCmd.Flags().StringP("root", "r", ".", "data root holding one directory per RBP")
	generateTrainCmd.Flags().String("rbp", "", "RNA binding protein, ex: AGO2")
	generateTrainCmd.Flags().StringP("split", "s", "train", "train, test or all")
	generateTrainCmd.MarkFlagRequired("rbp")

	generateCmd.AddCommand(generateTrainCmd)
	generateCmd.AddCommand(generateInferCmd)

	rootCmd.AddCommand(generateCmd)
}
