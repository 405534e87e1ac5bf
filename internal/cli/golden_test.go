package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func readGolden(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRoot(t), "testdata", "golden", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden file: %v", err)
	}
	return string(data)
}

func TestReportMarkdownGolden(t *testing.T) {
	cleanup := withMockEnv(t)
	defer cleanup()

	output := runRoot(t, "report", "--format", "markdown", payloadPath(t, "current.json"))
	expected := readGolden(t, "report_markdown.txt")
	if output != expected {
		t.Fatalf("report output mismatch\n--- expected\n%s\n--- got\n%s", expected, output)
	}
}
