package cmd

import (
	"github.com/dustin/go-humanize"
	"github.com/jjtimmons/music/internal/annotate"
	"github.com/jjtimmons/music/internal/fold"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// foldCmd is for running the folding executable over a FASTA file
var foldCmd = &cobra.Command{
	Use:                        "fold",
	Short:                      "Fold the RNA sequences of a FASTA file",
	RunE:                       runFold,
	SuggestionsMinimumDistance: 2,
	Example:                    "  music fold --in train.fa --work-dir RNAfold_results/AGO2 --out RNAfold_results/AGO2/train_fold.result",
	Long: `
Fold every record of a FASTA file with RNAfold in probability mode. The
working directory is swept of plot files while the tool runs and progress is
logged as records are folded.`,
}

// annotateCmd is for turning a fold result into an annotation table
var annotateCmd = &cobra.Command{
	Use:                        "annotate",
	Short:                      "Annotate the structures of a fold result",
	RunE:                       runAnnotate,
	SuggestionsMinimumDistance: 2,
	Example:                    "  music annotate --in train_fold.result --out train_annotation.tsv",
	Long: `
Classify the dot-bracket structure of every folded record, reduce it to the
paired/unpaired alphabet and write one "id, sequence, structure" row per record
to a tab separated table. The fold result is removed once the table is written.`,
}

func runFold(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	workDir, _ := cmd.Flags().GetString("work-dir")

	f := fold.New(e.conf.Fold, fs, e.log)
	result, err := f.Fold(cmd.Context(), in, workDir, out)
	if err != nil {
		return err
	}
	e.log.Info("folded", zap.String("result", result))
	return nil
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	if lenient, _ := cmd.Flags().GetBool("lenient"); lenient {
		e.conf.Annotate.Strict = false
	}

	annotator := &annotate.ExecAnnotator{Binary: e.conf.Annotate.Binary, TempDir: e.conf.Annotate.TempDir}
	rows, err := annotate.NewBuilder(e.conf.Annotate, annotator, fs, e.log).Build(cmd.Context(), in, out)
	if err != nil {
		return err
	}
	cmd.Printf("%s rows written to %s\n", humanize.Comma(int64(rows)), out)
	return nil
}

func init() {
	foldCmd.Flags().StringP("in", "i", "", "input FASTA file")
	foldCmd.Flags().StringP("out", "o", "", "output fold result")
	foldCmd.Flags().StringP("work-dir", "d", ".", "working directory of the folding executable")
	foldCmd.MarkFlagRequired("in")
	foldCmd.MarkFlagRequired("out")

	annotateCmd.Flags().StringP("in", "i", "", "fold result")
	annotateCmd.Flags().StringP("out", "o", "", "output annotation table")
	annotateCmd.Flags().Bool("lenient", false, "keep a truncated final record rather than failing")
	annotateCmd.MarkFlagRequired("in")
	annotateCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(foldCmd)
	rootCmd.AddCommand(annotateCmd)
}
