package github

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FixtureRunner serves gh responses from files, for tests and mock mode.
type FixtureRunner struct {
	Root string
}

func NewFixtureRunner(root string) FixtureRunner {
	return FixtureRunner{Root: root}
}

func (f FixtureRunner) Run(ctx context.Context, args []string, stdin []byte) ([]byte, error) {
	_ = ctx
	_ = stdin
	key := strings.Join(args, " ")
	switch {
	case strings.Contains(key, "-X POST"), strings.Contains(key, "-X PATCH"):
		return []byte(`{"id": 1}`), nil
	case strings.Contains(key, "/comments"):
		return os.ReadFile(filepath.Join(f.Root, "comments.json"))
	case strings.Contains(key, "pr view"):
		return os.ReadFile(filepath.Join(f.Root, "pr_view.json"))
	case strings.Contains(key, "auth status"):
		return []byte("logged in"), nil
	default:
		return nil, fmt.Errorf("no fixture for gh args: %s", key)
	}
}
