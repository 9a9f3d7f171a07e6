// internal/output/markdown.go
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dsablic/anchoraudit/internal/model"
)

// WriteMarkdown writes the audit header, the submitted file summary and the
// provider's report as GitHub-flavored markdown to w.
func WriteMarkdown(w io.Writer, result model.AuditResult) error {
	fmt.Fprintf(w, "# Security Audit: %s\n\n", result.Repository)
	fmt.Fprintf(w, "**Provider:** %s\n", result.Provider)
	if result.Branch != "" {
		fmt.Fprintf(w, "**Branch:** %s\n", result.Branch)
	}
	fmt.Fprintf(w, "**Generated:** %s\n\n", result.GeneratedAt)

	// Submitted files
	totals := result.Summary.Totals
	fmt.Fprintf(w, "## Submitted Files\n\n")
	fmt.Fprintf(w, "| File | Language | Lines | Code | Comments | Complexity |\n")
	fmt.Fprintf(w, "|------|----------|------:|-----:|---------:|-----------:|\n")
	for _, f := range result.Summary.Files {
		lang := f.Language
		if lang == "" {
			lang = "-"
		}
		fmt.Fprintf(w, "| `%s` | %s | %d | %d | %d | %d |\n",
			f.Path, lang, f.Lines, f.Code, f.Comments, f.Complexity)
	}
	fmt.Fprintf(w, "| **Total (%d files)** | | %d | %d | %d | %d |\n\n",
		totals.Files, totals.Lines, totals.Code, totals.Comments, totals.Complexity)

	if len(result.Summary.Dropped) > 0 {
		fmt.Fprintf(w, "## Skipped Files\n\n")
		for _, p := range result.Summary.Dropped {
			fmt.Fprintf(w, "- `%s`\n", p)
		}
		fmt.Fprintln(w)
	}

	// Report
	fmt.Fprintf(w, "## Report\n\n")
	if strings.TrimSpace(result.Report) == "" {
		fmt.Fprintf(w, "_The provider returned an empty report._\n")
		return nil
	}
	fmt.Fprintln(w, strings.TrimRight(result.Report, "\n"))

	return nil
}
