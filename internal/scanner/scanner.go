package scanner

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecRunner abstracts subprocess execution so scanner and git plumbing can
// be driven by fixtures in tests.
type ExecRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type RealExecRunner struct{}

func (r RealExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("command failed: %s %s: %w\n%s", name, strings.Join(args, " "), err, string(ee.Stderr))
		}
		return nil, fmt.Errorf("command failed: %s %s: %w", name, strings.Join(args, " "), err)
	}
	return output, nil
}

// Config selects how the scanner runs. The binary and image are opaque,
// versioned black boxes; this package only manages their invocation.
type Config struct {
	Command   string
	Args      []string
	Image     string
	UseDocker bool
	MinRisk   string
}

type Scanner struct {
	Runner ExecRunner
	cfg    Config
}

func New(cfg Config, runner ExecRunner) *Scanner {
	if cfg.Command == "" {
		cfg.Command = "mal"
	}
	if cfg.MinRisk == "" {
		cfg.MinRisk = "low"
	}
	return &Scanner{Runner: runner, cfg: cfg}
}

// Diff runs the scanner in diff mode over two extracted trees and returns
// the raw JSON payload. No interpretation happens here.
func (s *Scanner) Diff(ctx context.Context, beforeDir, afterDir string) ([]byte, error) {
	if s.cfg.UseDocker {
		return s.diffDocker(ctx, beforeDir, afterDir)
	}
	args := append([]string{}, s.cfg.Args...)
	args = append(args, "--format=json", "--min-risk="+s.cfg.MinRisk, "diff", beforeDir, afterDir)
	output, err := s.Runner.Run(ctx, s.cfg.Command, args...)
	if err != nil {
		return nil, fmt.Errorf("scanner diff failed: %w", err)
	}
	return output, nil
}

// diffDocker mounts both trees into the container under fixed names. The
// container-side prefixes end up in reported paths, which is why rendering
// strips the first path segment.
func (s *Scanner) diffDocker(ctx context.Context, beforeDir, afterDir string) ([]byte, error) {
	before, err := filepath.Abs(beforeDir)
	if err != nil {
		return nil, fmt.Errorf("resolve before dir: %w", err)
	}
	after, err := filepath.Abs(afterDir)
	if err != nil {
		return nil, fmt.Errorf("resolve after dir: %w", err)
	}
	args := []string{
		"run", "--rm",
		"-v", before + ":/mal-before:ro",
		"-v", after + ":/mal-after:ro",
		s.cfg.Image,
		"--format=json", "--min-risk=" + s.cfg.MinRisk,
		"diff", "/mal-before", "/mal-after",
	}
	output, err := s.Runner.Run(ctx, "docker", args...)
	if err != nil {
		return nil, fmt.Errorf("scanner diff via docker failed: %w", err)
	}
	return output, nil
}

// Version reports the scanner version for the SARIF tool descriptor.
func (s *Scanner) Version(ctx context.Context) string {
	var output []byte
	var err error
	if s.cfg.UseDocker {
		output, err = s.Runner.Run(ctx, "docker", "run", "--rm", s.cfg.Image, "--version")
	} else {
		output, err = s.Runner.Run(ctx, s.cfg.Command, "--version")
	}
	if err != nil {
		return "unknown"
	}
	v := strings.TrimSpace(string(output))
	if v == "" {
		return "unknown"
	}
	return v
}
