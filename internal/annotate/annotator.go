package annotate

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/jjtimmons/music/internal/errs"
	"github.com/pkg/errors"
)

// Annotator classifies every position of a dot-bracket structure into the
// seven letter structural alphabet.
type Annotator interface {
	Annotate(ctx context.Context, dotBracket string) (string, error)
}

// ExecAnnotator runs the external annotation executable once per structure,
// exchanging the structure and its classification through scratch files:
//
//	<Binary> <input path> <output path>
type ExecAnnotator struct {
	// Binary is the path to the executable
	Binary string

	// TempDir holds the scratch files, os.TempDir() if empty
	TempDir string
}

// Annotate writes dotBracket to a scratch file, runs the executable and
// reads back its output. Both scratch files are removed before returning,
// whether or not the executable succeeds.
func (a *ExecAnnotator) Annotate(ctx context.Context, dotBracket string) (string, error) {
	in, err := os.CreateTemp(a.TempDir, "structure-in-*")
	if err != nil {
		return "", errs.E(errs.IO, "annotate", err)
	}
	defer os.Remove(in.Name())

	out, err := os.CreateTemp(a.TempDir, "structure-out-*")
	if err != nil {
		in.Close()
		return "", errs.E(errs.IO, "annotate", err)
	}
	defer os.Remove(out.Name())
	out.Close()

	_, err = in.WriteString(dotBracket + "\n")
	if cerr := in.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", errs.P(errs.IO, "annotate", in.Name(), err)
	}

	cmd := exec.CommandContext(ctx, a.Binary, in.Name(), out.Name())
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "annotate")
		}
		return "", errs.E(errs.ExternalTool, "annotate",
			errors.Wrapf(err, "%s: %s", a.Binary, strings.TrimSpace(string(output))))
	}

	annotation, err := os.ReadFile(out.Name())
	if err != nil {
		return "", errs.P(errs.IO, "annotate", out.Name(), err)
	}

	result := strings.TrimSpace(string(annotation))
	if len(result) != len(dotBracket) {
		return "", errs.Newf(errs.ExternalTool, "annotate",
			"%s returned %d symbols for a %d position structure", a.Binary, len(result), len(dotBracket))
	}
	return result, nil
}
