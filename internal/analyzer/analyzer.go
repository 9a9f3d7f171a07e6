// internal/analyzer/analyzer.go
package analyzer

import (
	"path"
	"sync"

	"github.com/boyter/scc/v3/processor"

	"github.com/dsablic/anchoraudit/internal/model"
)

var initOnce sync.Once

// Analyzer wraps scc's processor package to count lines in fetched files.
type Analyzer struct{}

// New creates a new Analyzer instance. It ensures that scc's ProcessConstants
// is called exactly once, even when multiple goroutines create analyzers concurrently.
func New() *Analyzer {
	initOnce.Do(func() {
		processor.ProcessConstants()
	})
	return &Analyzer{}
}

// Summarize returns per-file and total line statistics for the payload files.
// Files whose language scc cannot detect are still counted by size.
func (a *Analyzer) Summarize(payload model.Payload) model.PayloadSummary {
	summary := model.PayloadSummary{
		Files:   make([]model.FileStats, 0, len(payload.Files)),
		Dropped: payload.Dropped,
	}

	for _, f := range payload.Files {
		fs := a.file(f)
		summary.Files = append(summary.Files, fs)
		summary.Totals.Files++
		summary.Totals.Bytes += fs.Bytes
		summary.Totals.Lines += fs.Lines
		summary.Totals.Code += fs.Code
		summary.Totals.Comments += fs.Comments
		summary.Totals.Blanks += fs.Blanks
		summary.Totals.Complexity += fs.Complexity
	}

	return summary
}

func (a *Analyzer) file(f model.SelectedFile) model.FileStats {
	content := []byte(f.Content)
	fs := model.FileStats{Path: f.Path, Bytes: int64(len(content))}

	name := path.Base(f.Path)
	possibleLanguages, _ := processor.DetectLanguage(name)
	if len(possibleLanguages) == 0 {
		return fs
	}

	job := &processor.FileJob{
		Filename:          name,
		Content:           content,
		Bytes:             int64(len(content)),
		PossibleLanguages: possibleLanguages,
	}

	job.Language = processor.DetermineLanguage(job.Filename, job.Language, job.PossibleLanguages, job.Content)
	if job.Language == "" {
		return fs
	}

	processor.CountStats(job)

	if job.Binary {
		return fs
	}

	fs.Language = job.Language
	fs.Lines = job.Lines
	fs.Code = job.Code
	fs.Comments = job.Comment
	fs.Blanks = job.Blank
	fs.Complexity = job.Complexity
	return fs
}
