// internal/auth/credentials.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrNoCredentials = errors.New("no credentials found")

// Credentials is a stored API key for one provider.
type Credentials struct {
	APIKey  string    `json:"api_key"`
	SavedAt time.Time `json:"saved_at,omitempty"`
}

// Masked returns the key with all but its last four characters hidden.
func (c Credentials) Masked() string {
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}

// FileStore keeps provider API keys in a 0600 JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func DefaultStorePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "anchoraudit", "credentials.json")
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(provider string, cred Credentials) error {
	all, _ := s.loadAll()
	if all == nil {
		all = make(map[string]Credentials)
	}
	if cred.SavedAt.IsZero() {
		cred.SavedAt = time.Now().UTC()
	}
	all[provider] = cred

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Load(provider string) (Credentials, error) {
	all, err := s.loadAll()
	if err != nil {
		return Credentials{}, ErrNoCredentials
	}
	cred, ok := all[provider]
	if !ok || cred.APIKey == "" {
		return Credentials{}, ErrNoCredentials
	}
	return cred, nil
}

// LoadWithEnv prefers ANCHORAUDIT_<PROVIDER>_API_KEY over the stored key.
func (s *FileStore) LoadWithEnv(provider string) (Credentials, error) {
	if key := os.Getenv(EnvKey(provider)); key != "" {
		return Credentials{APIKey: key}, nil
	}
	return s.Load(provider)
}

// List returns the providers that have a stored key, sorted by name.
func (s *FileStore) List() ([]string, map[string]Credentials, error) {
	all, err := s.loadAll()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read credentials: %w", err)
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, all, nil
}

// Delete removes the stored key for provider. Deleting a missing key is
// not an error.
func (s *FileStore) Delete(provider string) error {
	all, err := s.loadAll()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read credentials: %w", err)
	}
	if _, ok := all[provider]; !ok {
		return nil
	}
	delete(all, provider)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *FileStore) loadAll() (map[string]Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var all map[string]Credentials
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	return all, nil
}

// EnvKey returns the environment variable that overrides the stored key
// for provider, e.g. ANCHORAUDIT_GEMINI_CUSTOM_API_KEY.
func EnvKey(provider string) string {
	return fmt.Sprintf("ANCHORAUDIT_%s_API_KEY", toUpperSnake(provider))
}

func toUpperSnake(s string) string {
	result := make([]byte, 0, len(s))
	for i := range len(s) {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			c -= 32
		case c == '-' || c == '.':
			c = '_'
		}
		result = append(result, c)
	}
	return string(result)
}

// GhCLIToken returns the token of the logged-in gh CLI user, if any.
func GhCLIToken() (string, bool) {
	return ghCLIToken(context.Background(), "gh")
}

func ghCLIToken(ctx context.Context, bin string) (string, bool) {
	if _, err := exec.LookPath(bin); err != nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "auth", "token")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", false
	}
	token := strings.TrimSpace(stdout.String())
	return token, token != ""
}
