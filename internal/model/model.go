// internal/model/model.go
package model

// RepositoryRef identifies a repository on the hosting service.
type RepositoryRef struct {
	Owner string
	Name  string
}

// String returns the owner/name form.
func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name
}

// TreeEntry is one path from a recursive tree listing.
type TreeEntry struct {
	Path string
}

// TreeOutcome classifies how a tree lookup ended.
type TreeOutcome string

const (
	TreeFound          TreeOutcome = "found"
	TreeNotFound       TreeOutcome = "not_found"
	TreeTransportError TreeOutcome = "transport_error"
)

// BranchAttempt records a single candidate branch request.
type BranchAttempt struct {
	Branch     string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

// TreeListing is the result of probing the candidate branches of a repository.
// Entries is empty unless Outcome is TreeFound, and may be empty even then.
type TreeListing struct {
	Outcome  TreeOutcome
	Branch   string
	Entries  []TreeEntry
	Attempts []BranchAttempt
}

// SelectedFile is a retained source file with its fetched content.
type SelectedFile struct {
	Path    string
	Content string
}

// Payload is the aggregated text submitted to a provider together with the
// files it was built from.
type Payload struct {
	Files   []SelectedFile
	Dropped []string
	Text    string
}

// FileStats holds line statistics for a single selected file.
type FileStats struct {
	Path       string `json:"path"`
	Language   string `json:"language,omitempty"`
	Bytes      int64  `json:"bytes"`
	Lines      int64  `json:"lines"`
	Code       int64  `json:"code"`
	Comments   int64  `json:"comments"`
	Blanks     int64  `json:"blanks"`
	Complexity int64  `json:"complexity"`
}

// Stats holds aggregate line statistics across the payload.
type Stats struct {
	Files      int64 `json:"files"`
	Bytes      int64 `json:"bytes"`
	Lines      int64 `json:"lines"`
	Code       int64 `json:"code"`
	Comments   int64 `json:"comments"`
	Blanks     int64 `json:"blanks"`
	Complexity int64 `json:"complexity"`
}

// PayloadSummary describes what was submitted for audit.
type PayloadSummary struct {
	Files   []FileStats `json:"files"`
	Totals  Stats       `json:"totals"`
	Dropped []string    `json:"dropped,omitempty"`
}

// AuditReport is the normalized text returned by a provider.
type AuditReport struct {
	Text string `json:"report"`
}

// AuditResult is the CLI-facing record of one completed audit.
type AuditResult struct {
	Repository  string         `json:"repository"`
	Provider    string         `json:"provider"`
	Branch      string         `json:"branch,omitempty"`
	GeneratedAt string         `json:"generated_at"`
	Summary     PayloadSummary `json:"summary"`
	Report      string         `json:"report"`
}

// Stage is a step of the audit pipeline.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageResolving    Stage = "resolving"
	StageFetchingTree Stage = "fetching_tree"
	StageAggregating  Stage = "aggregating"
	StageDispatching  Stage = "dispatching"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)
