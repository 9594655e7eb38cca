package magiskbuild

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// headCommit returns the abbreviated HEAD hash of the repository containing
// root.
func headCommit(root string) (string, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("no git repository at %s: %w", root, err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("cannot resolve HEAD: %w", err)
	}
	return ref.Hash().String()[:8], nil
}
