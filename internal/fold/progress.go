package fold

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/spf13/afero"
)

// Progress is the number of records folded so far. It never decreases and
// never exceeds the expected total, whatever the observations fed to it.
type Progress struct {
	mu     sync.Mutex
	done   int
	total  int
	report func(done, total int)
}

// NewProgress creates a Progress that calls report (if non-nil) each time
// the count grows.
func NewProgress(total int, report func(done, total int)) *Progress {
	return &Progress{total: total, report: report}
}

// Observe records a new count and returns the current one.
func (p *Progress) Observe(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > p.total {
		n = p.total
	}
	if n <= p.done {
		return p.done
	}
	p.done = n
	if p.report != nil {
		p.report(p.done, p.total)
	}
	return p.done
}

// Done is the current count.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Total is the expected count.
func (p *Progress) Total() int { return p.total }

func progressLabel(done, total int) string {
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(done) / float64(total)
	}
	return fmt.Sprintf("%s/%s (%.1f%%)", humanize.Comma(int64(done)), humanize.Comma(int64(total)), pct)
}

// headerCounter counts the lines starting with '>' in a file that is still
// being appended to. Each update only reads the bytes written since the last.
type headerCounter struct {
	fs   afero.Fs
	path string

	offset    int64
	lineStart bool
	count     int
}

// update reads any new bytes and returns the running count. A missing file
// counts as empty.
func (c *headerCounter) update() (int, error) {
	f, err := c.fs.Open(c.path)
	if os.IsNotExist(err) {
		return c.count, nil
	}
	if err != nil {
		return c.count, err
	}
	defer f.Close()

	if _, err := f.Seek(c.offset, io.SeekStart); err != nil {
		return c.count, err
	}

	buf := make([]byte, 32<<10)
	for {
		n, err := f.Read(buf)
		for _, b := range buf[:n] {
			if c.lineStart && b == '>' {
				c.count++
			}
			c.lineStart = b == '\n'
		}
		c.offset += int64(n)

		if err == io.EOF {
			return c.count, nil
		}
		if err != nil {
			return c.count, err
		}
	}
}

// CountRecords returns the number of header lines in a FASTA-like file.
func CountRecords(fs afero.Fs, path string) (int, error) {
	if _, err := fs.Stat(path); err != nil {
		return 0, errs.P(errs.IO, "count records", path, err)
	}
	c := &headerCounter{fs: fs, path: path, lineStart: true}
	n, err := c.update()
	if err != nil {
		return 0, errs.P(errs.IO, "count records", path, err)
	}
	return n, nil
}
