// internal/output/output_test.go
package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dsablic/anchoraudit/internal/model"
	"github.com/dsablic/anchoraudit/internal/output"
)

func sampleResult() model.AuditResult {
	return model.AuditResult{
		Repository:  "acme/vault",
		Provider:    "claude",
		Branch:      "main",
		GeneratedAt: "2026-02-18T12:00:00Z",
		Summary: model.PayloadSummary{
			Files: []model.FileStats{
				{Path: "programs/vault/src/lib.rs", Language: "Rust", Bytes: 900, Lines: 40, Code: 30, Comments: 5, Blanks: 5, Complexity: 4},
				{Path: "programs/vault/src/state.rs", Language: "Rust", Bytes: 300, Lines: 12, Code: 10, Comments: 1, Blanks: 1, Complexity: 0},
			},
			Totals:  model.Stats{Files: 2, Bytes: 1200, Lines: 52, Code: 40, Comments: 6, Blanks: 6, Complexity: 4},
			Dropped: []string{"programs/vault/src/errors.rs"},
		},
		Report: "## programs/vault/src/lib.rs\n- Missing signer check\n",
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed["repository"] != "acme/vault" {
		t.Errorf("expected repository acme/vault, got %v", parsed["repository"])
	}
	if parsed["report"] != "## programs/vault/src/lib.rs\n- Missing signer check\n" {
		t.Errorf("unexpected report %v", parsed["report"])
	}
	summary, ok := parsed["summary"].(map[string]any)
	if !ok {
		t.Fatalf("expected summary object, got %T", parsed["summary"])
	}
	if files, _ := summary["files"].([]any); len(files) != 2 {
		t.Errorf("expected 2 file entries, got %v", summary["files"])
	}
	if !strings.Contains(buf.String(), "  \"provider\": \"claude\"") {
		t.Error("expected indented output")
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteMarkdown(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteMarkdown failed: %v", err)
	}

	md := buf.String()
	for _, want := range []string{
		"# Security Audit: acme/vault",
		"**Provider:** claude",
		"**Branch:** main",
		"| `programs/vault/src/lib.rs` | Rust | 40 | 30 | 5 | 4 |",
		"| **Total (2 files)** | | 52 | 40 | 6 | 4 |",
		"## Skipped Files",
		"- `programs/vault/src/errors.rs`",
		"## Report\n\n## programs/vault/src/lib.rs\n- Missing signer check\n",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestWriteMarkdownEmptyReport(t *testing.T) {
	r := sampleResult()
	r.Report = "  \n"
	r.Summary.Dropped = nil
	r.Branch = ""

	var buf bytes.Buffer
	if err := output.WriteMarkdown(&buf, r); err != nil {
		t.Fatalf("WriteMarkdown failed: %v", err)
	}
	md := buf.String()
	if !strings.Contains(md, "_The provider returned an empty report._") {
		t.Error("expected empty report notice")
	}
	if strings.Contains(md, "Skipped Files") || strings.Contains(md, "**Branch:**") {
		t.Error("unexpected optional sections")
	}
}
