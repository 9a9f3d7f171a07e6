// internal/hosting/github.go
package hosting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"

	"github.com/dsablic/anchoraudit/internal/model"
)

const (
	githubAPIBase  = "https://api.github.com"
	rawContentBase = "https://raw.githubusercontent.com"

	// Raw content is always read at HEAD, not at the branch that produced the
	// tree listing. The two can diverge when HEAD is neither main nor master.
	contentRef = "HEAD"
)

var candidateBranches = []string{"main", "master"}

// CandidateBranches returns the branch names tried, in order, when listing a tree.
func CandidateBranches() []string {
	out := make([]string, len(candidateBranches))
	copy(out, candidateBranches)
	return out
}

// GitHub lists repository trees through the GitHub REST API and reads raw
// file contents from the raw content host.
type GitHub struct {
	api     *gogithub.Client
	rawBase string
	client  *http.Client
}

// NewGitHub creates a GitHub hosting client. Empty apiURL and rawURL select
// the public GitHub endpoints. A non-empty token authenticates tree requests;
// raw content requests are always anonymous.
func NewGitHub(token, apiURL, rawURL string, client *http.Client) (*GitHub, error) {
	if client == nil {
		client = &http.Client{}
	}
	if rawURL == "" {
		rawURL = rawContentBase
	}

	apiClient := client
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		apiClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	gh := gogithub.NewClient(apiClient)
	if apiURL != "" && apiURL != githubAPIBase {
		u, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		gh.BaseURL = u
	}

	return &GitHub{
		api:     gh,
		rawBase: strings.TrimRight(rawURL, "/"),
		client:  client,
	}, nil
}

// FetchTree requests the recursive tree of each candidate branch in order and
// returns the first successful listing. A successful response ends the search
// even when it carries no entries.
func (g *GitHub) FetchTree(ctx context.Context, ref model.RepositoryRef) model.TreeListing {
	listing := model.TreeListing{Outcome: model.TreeNotFound}
	transportFailed := false

	// go-github joins owner and name into the request path unescaped.
	owner, name := url.PathEscape(ref.Owner), url.PathEscape(ref.Name)

	for _, branch := range candidateBranches {
		tree, resp, err := g.api.Git.GetTree(ctx, owner, name, branch, true)

		attempt := model.BranchAttempt{Branch: branch, Err: err}
		if resp != nil && resp.Response != nil {
			attempt.StatusCode = resp.StatusCode
		}
		listing.Attempts = append(listing.Attempts, attempt)

		if err != nil {
			var errResp *gogithub.ErrorResponse
			if attempt.StatusCode == 0 && !errors.As(err, &errResp) {
				transportFailed = true
			}
			continue
		}

		listing.Outcome = model.TreeFound
		listing.Branch = branch
		listing.Entries = treeEntries(tree)
		return listing
	}

	if transportFailed {
		listing.Outcome = model.TreeTransportError
	}
	return listing
}

func treeEntries(tree *gogithub.Tree) []model.TreeEntry {
	if tree == nil {
		return nil
	}
	entries := make([]model.TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, model.TreeEntry{Path: e.GetPath()})
	}
	return entries
}

// ContentURL returns the raw content URL of path at HEAD.
func (g *GitHub) ContentURL(ref model.RepositoryRef, path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		g.rawBase, url.PathEscape(ref.Owner), url.PathEscape(ref.Name), contentRef, strings.Join(segments, "/"))
}

// FetchFile returns the raw content of path at HEAD.
func (g *GitHub) FetchFile(ctx context.Context, ref model.RepositoryRef, path string) (string, error) {
	rawURL := g.ContentURL(ref, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("GET %s returned %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	return string(body), nil
}
