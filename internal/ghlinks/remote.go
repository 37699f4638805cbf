package ghlinks

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	giturls "github.com/whilp/git-urls"
)

// RepositoryFromRemote returns "<org>/<repo>" for the origin remote of the git
// repository containing dir.
func RepositoryFromRemote(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote has no URL")
	}
	return RepositoryFromURL(urls[0])
}

// RepositoryFromURL extracts "<org>/<repo>" from a git remote URL in any of the
// forms git accepts (https, ssh, scp-like).
func RepositoryFromURL(raw string) (string, error) {
	u, err := giturls.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse git URL: %w", err)
	}
	path := strings.Trim(u.Path, "/")
	path = strings.TrimSuffix(path, ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("git URL %q has no <org>/<repo> path", raw)
	}
	return strings.Join(parts[len(parts)-2:], "/"), nil
}
