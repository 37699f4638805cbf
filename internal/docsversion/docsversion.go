// Package docsversion derives the URL-safe version string under which the
// documentation is published.
package docsversion

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Latest is the published name of the latest branch.
const Latest = "latest"

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Sanitize returns a URL-safe version. CI_COMMIT_REF_NAME, then
// GITHUB_REF_NAME, take precedence over version when set. The branch named by
// ESP_DOCS_LATEST_BRANCH_NAME (default master) becomes "latest"; slashes
// become dashes.
func Sanitize(version string, lookup LookupEnv) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("CI_COMMIT_REF_NAME"); ok {
		version = v
	} else if v, ok := lookup("GITHUB_REF_NAME"); ok {
		version = v
	}

	latest, ok := lookup("ESP_DOCS_LATEST_BRANCH_NAME")
	if !ok {
		latest = "master"
	}
	if version == latest {
		return Latest
	}
	return strings.ReplaceAll(version, "/", "-")
}

// Describe names the checked-out revision of the repository containing dir:
// a tag pointing at HEAD, else the current branch name, else the short
// commit hash.
func Describe(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	tag, err := tagAt(repo, head.Hash())
	if err != nil {
		return "", err
	}
	if tag != "" {
		return tag, nil
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String()[:7], nil
}

var errFound = errors.New("found")

// tagAt returns the first tag, lightweight or annotated, that points at hash.
func tagAt(repo *git.Repository, hash plumbing.Hash) (string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("list tags: %w", err)
	}
	var name string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if obj, terr := repo.TagObject(target); terr == nil {
			target = obj.Target
		}
		if target == hash {
			name = ref.Name().Short()
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", fmt.Errorf("scan tags: %w", err)
	}
	return name, nil
}
