// Package git reads identity and remote information from the enclosing
// git repository.
//
// Foundation-tier package: stdlib and go-git only, no internal imports.
package git

import (
	"errors"
	"fmt"
	"path"
	"strings"

	gogit "github.com/go-git/go-git/v6"
	gitconfig "github.com/go-git/go-git/v6/config"
)

// ErrNotRepository is returned when the path is not inside a git repository.
var ErrNotRepository = errors.New("not a git repository")

// Identity is the committer identity configured for a repository.
// Either field may be empty when the user never ran git config.
type Identity struct {
	Name  string
	Email string
}

// Manager wraps a go-git repository handle.
type Manager struct {
	repo *gogit.Repository
}

// Open opens the git repository containing the given path.
// It walks up the directory tree to find the repository root.
//
// Returns ErrNotRepository (wrapped) if path is not inside a git repository.
func Open(path string) (*Manager, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return &Manager{repo: repo}, nil
}

// NewManagerWithRepo creates a Manager from an existing go-git Repository.
// This is primarily used for testing with in-memory repositories.
func NewManagerWithRepo(repo *gogit.Repository) *Manager {
	return &Manager{repo: repo}
}

// Identity returns the configured user.name and user.email, merging
// system, global and repository scopes the way git itself does.
func (m *Manager) Identity() (Identity, error) {
	cfg, err := m.repo.ConfigScoped(gitconfig.SystemScope)
	if err != nil {
		return Identity{}, fmt.Errorf("reading git config: %w", err)
	}
	return Identity{
		Name:  cfg.User.Name,
		Email: cfg.User.Email,
	}, nil
}

// RemoteRepoName derives a repository name from the origin remote URL,
// e.g. "git@github.com:acme/widgets.git" -> "widgets".
// Returns empty string when no origin remote is configured.
func (m *Manager) RemoteRepoName() string {
	cfg, err := m.repo.Config()
	if err != nil {
		return ""
	}
	origin, ok := cfg.Remotes["origin"]
	if !ok || len(origin.URLs) == 0 {
		return ""
	}
	return RepoNameFromURL(origin.URLs[0])
}

// RepoNameFromURL extracts the trailing repository name from a remote URL.
// Handles both SSH (git@host:owner/name.git) and HTTPS forms.
func RepoNameFromURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")

	// SSH form has a colon separating host from path
	if i := strings.LastIndex(url, ":"); i != -1 && !strings.Contains(url[i:], "/") {
		return url[i+1:]
	}

	name := path.Base(url)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
