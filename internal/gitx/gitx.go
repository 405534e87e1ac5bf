package gitx

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/malcontent-action/internal/scanner"
)

// ExtractTree materializes the file tree at ref into dest using a detached
// worktree, and returns a cleanup func that removes it. The destination and
// runner are explicit values so nothing here leans on process-wide state.
func ExtractTree(ctx context.Context, r scanner.ExecRunner, repoDir, ref, dest string) (func(), error) {
	if _, err := r.Run(ctx, "git", "-C", repoDir, "worktree", "add", "--detach", dest, ref); err != nil {
		return nil, fmt.Errorf("extract tree at %s: %w", ref, err)
	}
	cleanup := func() {
		_, _ = r.Run(context.Background(), "git", "-C", repoDir, "worktree", "remove", "--force", dest)
	}
	return cleanup, nil
}

// ResolveRef returns the full commit id for a ref.
func ResolveRef(ctx context.Context, r scanner.ExecRunner, repoDir, ref string) (string, error) {
	output, err := r.Run(ctx, "git", "-C", repoDir, "rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("resolve ref %s: %w", ref, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// RemoteURL returns the origin remote URL, or "" when the repo has none.
func RemoteURL(ctx context.Context, r scanner.ExecRunner, repoDir string) string {
	output, err := r.Run(ctx, "git", "-C", repoDir, "config", "--get", "remote.origin.url")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
