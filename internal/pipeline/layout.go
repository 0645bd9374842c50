package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Class of a training dataset
type Class string

const (
	Positive Class = "positive"
	Negative Class = "negative"
)

// Split of a training dataset
type Split string

const (
	Train Split = "train"
	Test  Split = "test"
	Infer Split = "infer"
)

// Layout is where every artifact of one generation run lives. Paths are
// derived from the inputs alone, so a repeated run finds its earlier output.
type Layout struct {
	// Dataset names the run's source for the catalog
	Dataset string
	Split   Split

	Fasta      string
	WorkDir    string
	FoldResult string
	Table      string
	Store      string

	// NormalizeHeaders rewrites the FASTA headers in place before folding
	NormalizeHeaders bool
}

// Training is the layout of one class and split of an RBP's training data:
//
//	<root>/<rbp>/<class>_data/<split>.fa                        input
//	<root>/RNAfold_results/<rbp>/<class>_<split>_fold.result    scratch
//	<root>/<rbp>/<class>_data/<split>_annotation.tsv
//	<root>/<rbp>/<class>_data/<split>.h5
func Training(root, rbp string, class Class, split Split) Layout {
	data := filepath.Join(root, rbp, string(class)+"_data")
	workDir := filepath.Join(root, "RNAfold_results", rbp)
	return Layout{
		Dataset:    fmt.Sprintf("%s/%s", rbp, class),
		Split:      split,
		Fasta:      filepath.Join(data, string(split)+".fa"),
		WorkDir:    workDir,
		FoldResult: filepath.Join(workDir, fmt.Sprintf("%s_%s_fold.result", class, split)),
		Table:      filepath.Join(data, string(split)+"_annotation.tsv"),
		Store:      filepath.Join(data, string(split)+".h5"),
	}
}

// TrainingSet is the positive and negative layouts of a split
func TrainingSet(root, rbp string, split Split) []Layout {
	return []Layout{
		Training(root, rbp, Positive, split),
		Training(root, rbp, Negative, split),
	}
}

// Inference is the layout for an unlabelled FASTA file: every artifact sits
// beside it, named after it.
func Inference(fasta string) Layout {
	base := strings.TrimSuffix(fasta, filepath.Ext(fasta))
	return Layout{
		Dataset:          base,
		Split:            Infer,
		Fasta:            fasta,
		WorkDir:          filepath.Dir(fasta),
		FoldResult:       base + "_fold.result",
		Table:            base + "_annotation.tsv",
		Store:            base + ".h5",
		NormalizeHeaders: true,
	}
}
