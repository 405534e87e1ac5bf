package cli

import (
	"context"
	"os"
	"strings"
)

// FakeExecRunner stands in for the scanner and git in mock mode. Scanner
// invocations return a fixture payload; git plumbing returns canned values.
type FakeExecRunner struct {
	PayloadPath string
}

func (f FakeExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	_ = ctx
	joined := strings.Join(args, " ")
	switch name {
	case "git":
		if strings.Contains(joined, "rev-parse") {
			return []byte("9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2f1e00\n"), nil
		}
		if strings.Contains(joined, "remote.origin.url") {
			return []byte("https://github.com/acme/app\n"), nil
		}
		return []byte("ok"), nil
	default:
		// mal or docker
		if strings.Contains(joined, "--version") {
			return []byte("mal v0.0.0-fixture\n"), nil
		}
		return os.ReadFile(f.PayloadPath)
	}
}
