// # internal/tokens/tokens.go
package tokens

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkoukk/tiktoken-go"

	"depmap/internal/depmaperr"
)

// fallbackEncoding is used when the configured model is unknown to the
// tokenizer tables.
const fallbackEncoding = "cl100k_base"

type encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
}

// Counter counts model tokens over file contents.
type Counter struct {
	enc   encoder
	model string
}

func NewCounter(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		slog.Debug("unknown tokenizer model, using fallback encoding", "model", model, "encoding", fallbackEncoding)
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, depmaperr.Wrap(err, depmaperr.CodeInternal, "load token encoding")
		}
	}
	return &Counter{enc: enc, model: model}, nil
}

func (c *Counter) Model() string {
	return c.model
}

func (c *Counter) CountText(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// FileCount is the token total for one file, keyed by display path.
type FileCount struct {
	Path   string
	Tokens int
}

// Report aggregates per-file counts. Files is sorted by path.
type Report struct {
	Model  string
	Files  []FileCount
	Total  int
	Failed int
}

// CountFiles reads every path and counts its tokens. Paths are shown
// relative to root; unreadable files are logged and counted as failed.
func (c *Counter) CountFiles(root string, paths []string) Report {
	report := Report{Model: c.model, Files: make([]FileCount, 0, len(paths))}

	for _, path := range paths {
		display := path
		if rel, err := filepath.Rel(root, path); err == nil {
			display = filepath.ToSlash(rel)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable file", "path", display, "error", err)
			report.Failed++
			continue
		}

		count := c.CountText(string(content))
		report.Files = append(report.Files, FileCount{Path: display, Tokens: count})
		report.Total += count
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	return report
}

// Render prints the per-file table and the total.
func (r Report) Render(w io.Writer) error {
	for _, fc := range r.Files {
		if _, err := fmt.Fprintf(w, "%8d  %s\n", fc.Tokens, fc.Path); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\n%d tokens in %d files (model: %s)\n", r.Total, len(r.Files), r.Model); err != nil {
		return err
	}
	if r.Failed > 0 {
		if _, err := fmt.Fprintf(w, "%d files could not be read\n", r.Failed); err != nil {
			return err
		}
	}
	return nil
}
