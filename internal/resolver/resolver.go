// Package resolver turns repository URLs into owner/name pairs.
package resolver

import (
	"net/url"
	"strings"

	"github.com/dsablic/anchoraudit/internal/model"
)

// Resolve parses repoURL and returns the first two non-empty path segments
// as owner and name. Query, fragment and any further segments are ignored.
// Segments that decode to a path separator, query or fragment marker are
// rejected.
func Resolve(repoURL string) (model.RepositoryRef, error) {
	u, err := url.Parse(strings.TrimSpace(repoURL))
	if err != nil {
		return model.RepositoryRef{}, &model.ResolutionError{URL: repoURL, Reason: err.Error()}
	}
	if !u.IsAbs() {
		return model.RepositoryRef{}, &model.ResolutionError{URL: repoURL, Reason: "not an absolute URL"}
	}

	var segments []string
	for _, part := range strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/") {
		if part == "" {
			continue
		}
		segment, err := url.PathUnescape(part)
		if err != nil {
			return model.RepositoryRef{}, &model.ResolutionError{URL: repoURL, Reason: err.Error()}
		}
		// Encoded separators would change which API path the segment lands in.
		if strings.ContainsAny(segment, "/?#%") {
			return model.RepositoryRef{}, &model.ResolutionError{URL: repoURL, Reason: "reserved character in path segment " + part}
		}
		segments = append(segments, segment)
		if len(segments) == 2 {
			break
		}
	}
	if len(segments) < 2 {
		return model.RepositoryRef{}, &model.ResolutionError{URL: repoURL, Reason: "expected /owner/name in path"}
	}

	return model.RepositoryRef{Owner: segments[0], Name: segments[1]}, nil
}
