package fold

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// sweep removes the files in dir matching any of patterns and returns how
// many it removed.
//
// Removal errors are ignored: the folding process may still be writing a
// file, or an earlier pass may already have taken it. Either way the next
// pass picks up whatever is left.
func sweep(fs afero.Fs, dir string, patterns []string) int {
	removed := 0
	for _, p := range patterns {
		matches, err := afero.Glob(fs, filepath.Join(dir, p))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if fs.Remove(m) == nil {
				removed++
			}
		}
	}
	return removed
}
