package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dsablic/anchoraudit/internal/aggregate"
	"github.com/dsablic/anchoraudit/internal/audit"
	"github.com/dsablic/anchoraudit/internal/hosting"
	"github.com/dsablic/anchoraudit/internal/model"
	"github.com/dsablic/anchoraudit/internal/provider"
	"github.com/dsablic/anchoraudit/internal/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// upstream fakes the GitHub API, the raw content host and Gemini.
func upstream(t *testing.T, trees map[string]string, files map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/repos/acme/demo/git/trees/"):
			body, ok := trees[strings.TrimPrefix(r.URL.Path, "/repos/acme/demo/git/trees/")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"message":"Not Found"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		case strings.HasPrefix(r.URL.Path, "/acme/demo/HEAD/"):
			content, ok := files[strings.TrimPrefix(r.URL.Path, "/acme/demo/HEAD/")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(content))
		case strings.HasPrefix(r.URL.Path, "/v1beta/models/"):
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{
					map[string]any{"text": "report for " + r.Header.Get("x-goog-api-key")},
				}}}},
			})
		default:
			t.Errorf("unexpected upstream request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newRouter(t *testing.T, ts *httptest.Server, opts server.Options) *gin.Engine {
	t.Helper()
	gh, err := hosting.NewGitHub("", ts.URL, ts.URL, nil)
	if err != nil {
		t.Fatalf("NewGitHub: %v", err)
	}
	disp := provider.NewDispatcher(provider.Config{
		DefaultAPIKey: "server-key",
		Gemini:        provider.GeminiConfig{BaseURL: ts.URL},
	}, nil)
	pipeline := audit.New(gh, aggregate.New(gh, aggregate.PolicyDrop, nil), disp)
	return server.NewRouter(pipeline, nil, opts)
}

func post(router http.Handler, body string) (*httptest.ResponseRecorder, map[string]string) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/audit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

const libTree = `{"sha":"1","tree":[{"path":"programs/lib.rs","type":"blob"},{"path":"README.md","type":"blob"}]}`

func TestAuditSuccess(t *testing.T) {
	ts := upstream(t, map[string]string{"main": libTree}, map[string]string{"programs/lib.rs": "pub fn f() {}"})
	router := newRouter(t, ts, server.Options{})

	w, resp := post(router, `{"githubUrl":"https://github.com/acme/demo"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp["report"] != "report for server-key" {
		t.Errorf("unexpected report %q", resp["report"])
	}
}

func TestAuditNoBranch(t *testing.T) {
	ts := upstream(t, map[string]string{}, nil)
	router := newRouter(t, ts, server.Options{})

	w, resp := post(router, `{"githubUrl":"https://github.com/acme/demo","provider":"default"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp["error"] != server.NoMatchMessage {
		t.Errorf("unexpected error %q", resp["error"])
	}
}

func TestAuditMissingCredential(t *testing.T) {
	ts := upstream(t, map[string]string{"main": libTree}, map[string]string{"programs/lib.rs": "pub fn f() {}"})

	tests := []struct {
		name   string
		opts   server.Options
		status int
	}{
		{"default status", server.Options{}, http.StatusInternalServerError},
		{"client status", server.Options{CredentialErrorStatus: http.StatusBadRequest}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(t, ts, tt.opts)

			w, resp := post(router, `{"githubUrl":"https://github.com/acme/demo","provider":"claude","customApiKey":""}`)

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if resp["error"] != "Custom API key required for this provider." {
				t.Errorf("unexpected error %q", resp["error"])
			}
		})
	}
}

func TestAuditBadInput(t *testing.T) {
	ts := upstream(t, nil, nil)
	router := newRouter(t, ts, server.Options{})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing url", `{"provider":"groq"}`, server.MissingURLMessage},
		{"empty url", `{"githubUrl":""}`, server.MissingURLMessage},
		{"unparseable url", `{"githubUrl":"not a url"}`, server.InvalidURLMessage},
		{"one segment", `{"githubUrl":"https://github.com/acme"}`, server.InvalidURLMessage},
		{"encoded query in name", `{"githubUrl":"https://github.com/acme/demo%3Fx"}`, server.InvalidURLMessage},
		{"malformed json", `{"githubUrl":`, server.InvalidBodyMessage},
		{"wrong type", `{"githubUrl":42}`, server.InvalidBodyMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := post(router, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if resp["error"] != tt.want {
				t.Errorf("error = %q, want %q", resp["error"], tt.want)
			}
		})
	}
}

type stubAuditor struct {
	got audit.Request
	err error
}

func (s *stubAuditor) Run(ctx context.Context, req audit.Request, observe audit.StageObserver) (audit.Result, error) {
	s.got = req
	return audit.Result{Report: model.AuditReport{Text: "ok"}}, s.err
}

func TestAuditProviderErrorIs500(t *testing.T) {
	stub := &stubAuditor{err: &model.ProviderError{Provider: "Groq", Message: "Invalid API Key"}}
	router := server.NewRouter(stub, nil, server.Options{})

	w, resp := post(router, `{"githubUrl":"https://github.com/acme/demo","provider":"groq","customApiKey":"bad"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if resp["error"] != "Invalid API Key" {
		t.Errorf("unexpected error %q", resp["error"])
	}
	if stub.got.Provider != provider.Groq || stub.got.Credential != "bad" {
		t.Errorf("unexpected request %+v", stub.got)
	}
}

func TestAuditDefaultsProvider(t *testing.T) {
	stub := &stubAuditor{}
	router := server.NewRouter(stub, nil, server.Options{})

	w, _ := post(router, `{"githubUrl":"https://github.com/acme/demo"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.got.Provider != provider.Default {
		t.Errorf("expected default provider, got %q", stub.got.Provider)
	}
}

func TestAuditWrappedErrorsMap(t *testing.T) {
	stub := &stubAuditor{err: errors.Join(errors.New("context"), &model.NoMatchError{})}
	router := server.NewRouter(stub, nil, server.Options{})

	w, resp := post(router, `{"githubUrl":"https://github.com/acme/demo"}`)
	if w.Code != http.StatusBadRequest || resp["error"] != server.NoMatchMessage {
		t.Errorf("expected no-match 400, got %d %q", w.Code, resp["error"])
	}
}

func TestHealth(t *testing.T) {
	router := server.NewRouter(&stubAuditor{}, nil, server.Options{ServiceName: "anchoraudit"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}
