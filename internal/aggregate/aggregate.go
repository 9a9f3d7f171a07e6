package aggregate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dsablic/anchoraudit/internal/model"
)

// MaxFiles caps how many matching files are fetched per audit.
const MaxFiles = 15

const sourceExtension = ".rs"

var sourceDirs = []string{"programs/", "src/"}

// FailurePolicy decides what happens to files whose content fetch failed.
type FailurePolicy string

const (
	// PolicyDrop omits failed files without logging them.
	PolicyDrop FailurePolicy = "drop"
	// PolicyWarn omits failed files and logs a warning naming them.
	PolicyWarn FailurePolicy = "warn"
)

// ParsePolicy maps a configuration value to a FailurePolicy.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyWarn:
		return PolicyWarn, nil
	default:
		return "", fmt.Errorf("unsupported failure policy: %s (use drop or warn)", s)
	}
}

// FileFetcher reads the content of a single repository file.
type FileFetcher interface {
	FetchFile(ctx context.Context, ref model.RepositoryRef, path string) (string, error)
}

// FileOutcome is the result of fetching one selected file.
type FileOutcome struct {
	Path    string
	Content string
	Err     error
}

// Aggregator selects source files from a tree listing and builds the payload.
type Aggregator struct {
	fetcher FileFetcher
	policy  FailurePolicy
	logger  *zap.Logger
}

// New creates an Aggregator. A nil logger disables logging.
func New(fetcher FileFetcher, policy FailurePolicy, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = PolicyDrop
	}
	return &Aggregator{fetcher: fetcher, policy: policy, logger: logger}
}

// Matches reports whether path is a Rust source file under programs/ or src/.
func Matches(path string) bool {
	if !strings.HasSuffix(path, sourceExtension) {
		return false
	}
	for _, dir := range sourceDirs {
		if strings.Contains(path, dir) {
			return true
		}
	}
	return false
}

// Select filters entries in listing order and keeps at most MaxFiles of them.
func Select(entries []model.TreeEntry) []model.TreeEntry {
	var selected []model.TreeEntry
	for _, e := range entries {
		if !Matches(e.Path) {
			continue
		}
		selected = append(selected, e)
		if len(selected) == MaxFiles {
			break
		}
	}
	return selected
}

// FetchAll requests every selected file at once and waits for all of them.
// Outcomes are returned in the order of selected.
func (a *Aggregator) FetchAll(ctx context.Context, ref model.RepositoryRef, selected []model.TreeEntry) []FileOutcome {
	outcomes := make([]FileOutcome, len(selected))
	var wg sync.WaitGroup

	for i, e := range selected {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			content, err := a.fetcher.FetchFile(ctx, ref, path)
			outcomes[idx] = FileOutcome{Path: path, Content: content, Err: err}
		}(i, e.Path)
	}
	wg.Wait()

	return outcomes
}

// Aggregate builds the payload for ref from entries. The boolean is false
// when no file matched or every fetch failed.
func (a *Aggregator) Aggregate(ctx context.Context, ref model.RepositoryRef, entries []model.TreeEntry) (model.Payload, bool) {
	selected := Select(entries)
	if len(selected) == 0 {
		return model.Payload{}, false
	}

	var payload model.Payload
	for _, o := range a.FetchAll(ctx, ref, selected) {
		if o.Err != nil {
			payload.Dropped = append(payload.Dropped, o.Path)
			continue
		}
		payload.Files = append(payload.Files, model.SelectedFile{Path: o.Path, Content: o.Content})
	}

	if len(payload.Dropped) > 0 && a.policy == PolicyWarn {
		a.logger.Warn("dropped files from payload",
			zap.String("repository", ref.String()),
			zap.Strings("paths", payload.Dropped),
			zap.Int("kept", len(payload.Files)))
	}

	if len(payload.Files) == 0 {
		return payload, false
	}

	payload.Text = Join(payload.Files)
	return payload, true
}

// Join renders files as "--- FILE: <path> ---" blocks separated by a blank line.
func Join(files []model.SelectedFile) string {
	blocks := make([]string, len(files))
	for i, f := range files {
		blocks[i] = "--- FILE: " + f.Path + " ---\n" + f.Content
	}
	return strings.Join(blocks, "\n\n")
}
