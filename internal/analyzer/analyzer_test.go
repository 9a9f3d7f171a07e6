// internal/analyzer/analyzer_test.go
package analyzer_test

import (
	"testing"

	"github.com/dsablic/anchoraudit/internal/analyzer"
	"github.com/dsablic/anchoraudit/internal/model"
)

const vaultSource = `use anchor_lang::prelude::*;

// Withdraw lamports from the vault.
pub fn withdraw(ctx: Context<Withdraw>, amount: u64) -> Result<()> {
    if amount > 0 {
        msg!("withdraw");
    }
    Ok(())
}
`

func TestSummarizeRustFiles(t *testing.T) {
	payload := model.Payload{
		Files: []model.SelectedFile{
			{Path: "programs/vault/src/lib.rs", Content: vaultSource},
			{Path: "programs/vault/src/state.rs", Content: "pub struct Vault {}\n"},
		},
		Dropped: []string{"programs/vault/src/missing.rs"},
	}

	summary := analyzer.New().Summarize(payload)

	if len(summary.Files) != 2 {
		t.Fatalf("expected 2 file stats, got %d", len(summary.Files))
	}
	lib := summary.Files[0]
	if lib.Path != "programs/vault/src/lib.rs" {
		t.Errorf("expected listing order preserved, got %s first", lib.Path)
	}
	if lib.Language != "Rust" {
		t.Errorf("expected Rust, got %q", lib.Language)
	}
	if lib.Code == 0 {
		t.Error("expected code lines > 0")
	}
	if lib.Comments == 0 {
		t.Error("expected comment lines > 0")
	}

	if summary.Totals.Files != 2 {
		t.Errorf("expected 2 files total, got %d", summary.Totals.Files)
	}
	if summary.Totals.Bytes != int64(len(vaultSource)+len("pub struct Vault {}\n")) {
		t.Errorf("unexpected total bytes %d", summary.Totals.Bytes)
	}
	if summary.Totals.Code < lib.Code {
		t.Errorf("total code %d less than lib.rs code %d", summary.Totals.Code, lib.Code)
	}
	if len(summary.Dropped) != 1 {
		t.Errorf("expected dropped paths carried over, got %v", summary.Dropped)
	}
}

func TestSummarizeEmptyPayload(t *testing.T) {
	summary := analyzer.New().Summarize(model.Payload{})

	if summary.Totals.Files != 0 {
		t.Errorf("expected 0 files, got %d", summary.Totals.Files)
	}
	if summary.Files == nil {
		t.Error("expected empty, non-nil file list")
	}
}
