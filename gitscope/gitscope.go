// Package gitscope resolves changed-file sets for scoped drift scans by
// shelling out to git.
package gitscope

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// refPattern restricts refs to plausible git revision syntax. Leading dashes
// are rejected so a ref can never be parsed as a git option.
var refPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/~^-]*$`)

// ValidateRef checks that a user-supplied revision is safe to pass to git.
func ValidateRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("ref is required")
	}
	if strings.HasPrefix(ref, "-") {
		return fmt.Errorf("invalid ref %q: must not start with a dash", ref)
	}
	if !refPattern.MatchString(ref) {
		return fmt.Errorf("invalid ref %q", ref)
	}
	return nil
}

// Runner executes git commands against a single repository.
type Runner struct {
	// RepoRoot is the working directory for all git invocations.
	RepoRoot string
}

// NewRunner creates a Runner for the repository at root.
func NewRunner(root string) *Runner {
	return &Runner{RepoRoot: root}
}

func (r *Runner) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.RepoRoot
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(output)), nil
}

// splitFiles converts git's newline-separated path output into a slice,
// dropping empty lines.
func splitFiles(output string) []string {
	if output == "" {
		return nil
	}
	lines := strings.Split(output, "\n")
	files := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}

// rebasePaths maps repository-top-relative paths onto root-relative paths,
// dropping anything outside root. No-op when root is the repository top.
func rebasePaths(top, root string, files []string) []string {
	if filepath.Clean(top) == filepath.Clean(root) {
		return files
	}

	scoped := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, filepath.Join(top, filepath.FromSlash(f)))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		scoped = append(scoped, filepath.ToSlash(rel))
	}
	return scoped
}

// projectFiles converts `git diff --name-only` output, which is always
// relative to the repository top level regardless of the working directory,
// into paths relative to the runner's root.
func (r *Runner) projectFiles(ctx context.Context, files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	top, err := r.RepoRootDir(ctx)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(r.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	// git reports the top level with symlinks resolved.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return rebasePaths(top, root, files), nil
}

// ChangedSinceLastCommit returns files changed relative to HEAD, including
// staged and unstaged modifications and untracked files. This backs the
// --changed-only flag.
func (r *Runner) ChangedSinceLastCommit(ctx context.Context) ([]string, error) {
	tracked, err := r.git(ctx, "diff", "--name-only", "HEAD")
	if err != nil {
		return nil, err
	}
	changed, err := r.projectFiles(ctx, splitFiles(tracked))
	if err != nil {
		return nil, err
	}

	// ls-files output is already relative to the working directory.
	untracked, err := r.git(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	for _, f := range append(changed, splitFiles(untracked)...) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files, nil
}

// ChangedSince returns files changed between ref and the working tree.
// This backs the --changed-since flag.
func (r *Runner) ChangedSince(ctx context.Context, ref string) ([]string, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}
	output, err := r.git(ctx, "diff", "--name-only", ref)
	if err != nil {
		return nil, err
	}
	return r.projectFiles(ctx, splitFiles(output))
}

// PRDiff returns files changed relative to the merge base with mainBranch.
// This backs the --pr-diff flag.
func (r *Runner) PRDiff(ctx context.Context, mainBranch string) ([]string, error) {
	if err := ValidateRef(mainBranch); err != nil {
		return nil, err
	}
	base, err := r.git(ctx, "merge-base", "HEAD", mainBranch)
	if err != nil {
		return nil, err
	}
	output, err := r.git(ctx, "diff", "--name-only", base)
	if err != nil {
		return nil, err
	}
	return r.projectFiles(ctx, splitFiles(output))
}

// RepoRootDir returns the top-level directory of the repository.
func (r *Runner) RepoRootDir(ctx context.Context) (string, error) {
	return r.git(ctx, "rev-parse", "--show-toplevel")
}

// IsClean reports whether the worktree has no staged or unstaged changes.
func (r *Runner) IsClean(ctx context.Context) (bool, error) {
	output, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return output == "", nil
}
