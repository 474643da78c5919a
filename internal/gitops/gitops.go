// Package gitops commits ledger changes to the repository the books live in.
package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who a commit is attributed to.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// env sets the committer to the author so commits work on machines
// without a global git identity.
func (a Author) env() []string {
	return append(os.Environ(),
		"GIT_AUTHOR_NAME="+a.Name,
		"GIT_AUTHOR_EMAIL="+a.Email,
		"GIT_COMMITTER_NAME="+a.Name,
		"GIT_COMMITTER_EMAIL="+a.Email,
	)
}

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string) error {
	if out, err := git(ctx, dir, nil, "init"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// HasChanges reports whether any of paths (all files when empty) differ
// from HEAD or are untracked.
func HasChanges(ctx context.Context, dir string, paths ...string) (bool, error) {
	args := append([]string{"status", "--porcelain", "--"}, paths...)
	out, err := git(ctx, dir, nil, args...)
	if err != nil {
		return false, fmt.Errorf("git status: %s: %w", out, err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// Commit stages paths (all files when empty) and creates a commit. Returns
// the short commit hash.
func Commit(ctx context.Context, dir, message string, author Author, paths ...string) (string, error) {
	add := []string{"add", "-A"}
	if len(paths) > 0 {
		add = append(append(add, "--"), paths...)
	}
	if out, err := git(ctx, dir, nil, add...); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	if out, err := git(ctx, dir, author.env(), "commit", "-m", message, "--author", author.String()); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := git(ctx, dir, nil, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %s: %w", out, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func git(ctx context.Context, dir string, env []string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = env
	}
	return cmd.CombinedOutput()
}
