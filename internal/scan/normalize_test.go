package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chainguard-dev/malcontent-action/internal/risk"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "payloads", name))
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	return data
}

func TestNormalizeCurrentShape(t *testing.T) {
	d := Normalize(readFixture(t, "current.json"))

	if len(d.Added) != 1 || len(d.Removed) != 1 || len(d.Modified) != 1 {
		t.Fatalf("bucket sizes = %d/%d/%d, want 1/1/1", len(d.Added), len(d.Removed), len(d.Modified))
	}

	added := d.Added[0]
	if added.Path != "/mal-after/pkg/dropper.go" {
		t.Errorf("added path = %q", added.Path)
	}
	if added.RiskScore != 13 {
		t.Errorf("added score = %d, want 13", added.RiskScore)
	}
	if added.Behaviors[0].RiskLevel != risk.LevelCritical {
		t.Errorf("level = %s, want CRITICAL", added.Behaviors[0].RiskLevel)
	}
	if added.Behaviors[0].RuleName != "exec/shell" {
		t.Errorf("rule name = %q", added.Behaviors[0].RuleName)
	}

	mod := d.Modified[0]
	if got := len(mod.AddedBehaviors()); got != 1 {
		t.Errorf("added behaviors = %d, want 1", got)
	}
	if got := len(mod.RemovedBehaviors()); got != 1 {
		t.Errorf("removed behaviors = %d, want 1", got)
	}
	// net: added HIGH(5) minus removed LOW(1)
	if mod.RiskScore != 4 {
		t.Errorf("modified net score = %d, want 4", mod.RiskScore)
	}
}

func TestNormalizeLegacyShape(t *testing.T) {
	d := Normalize(readFixture(t, "legacy.json"))

	if len(d.Added) != 1 || len(d.Removed) != 0 || len(d.Modified) != 1 {
		t.Fatalf("bucket sizes = %d/%d/%d, want 1/0/1", len(d.Added), len(d.Removed), len(d.Modified))
	}
	b := d.Added[0].Behaviors[0]
	if b.RiskLevel != risk.LevelHigh {
		t.Errorf("legacy risk_level = %s, want HIGH", b.RiskLevel)
	}
	// Legacy entry carries explicit risk_score 7, which wins over the table.
	if b.RiskScore != 7 {
		t.Errorf("legacy risk_score = %d, want 7", b.RiskScore)
	}
	if len(b.MatchStrings) != 2 || b.MatchStrings[0] != "curl -s" {
		t.Errorf("legacy match_strings = %v", b.MatchStrings)
	}
	if d.Modified[0].Behaviors[1].RemovedInDiff != true {
		t.Errorf("legacy removed_in_diff not honored")
	}
}

func TestNormalizeMapKeyedBuckets(t *testing.T) {
	payload := []byte(`{"Diff":{"Added":{
		"/tmp/x/b.go":{"Behaviors":[{"Description":"d1","RiskLevel":"LOW"}]},
		"/tmp/x/a.go":{"Behaviors":[{"Description":"d2","RiskLevel":"HIGH"}]}
	}}}`)
	d := Normalize(payload)
	if len(d.Added) != 2 {
		t.Fatalf("added = %d, want 2", len(d.Added))
	}
	// Map keys are sorted for deterministic encounter order.
	if d.Added[0].Path != "/tmp/x/a.go" || d.Added[1].Path != "/tmp/x/b.go" {
		t.Errorf("paths = %q, %q", d.Added[0].Path, d.Added[1].Path)
	}
}

func TestNormalizeMalformedPayload(t *testing.T) {
	raw := "yara compile error: rules/evil.yar line 3"
	d := Normalize([]byte(raw))
	if !d.Empty() {
		t.Fatalf("expected empty buckets")
	}
	if d.TotalRiskDelta != 0 || d.RiskIncreased {
		t.Errorf("delta/flag = %d/%v, want 0/false", d.TotalRiskDelta, d.RiskIncreased)
	}
	if d.Raw != raw {
		t.Errorf("raw text not retained verbatim")
	}
}

// Normalizing the round-tripped JSON of an already-canonical result must
// yield the same bucket contents.
func TestNormalizeIdempotent(t *testing.T) {
	for _, fixture := range []string{"current.json", "legacy.json"} {
		first := Normalize(readFixture(t, fixture))
		data, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		second := Normalize(data)

		if len(second.Added) != len(first.Added) ||
			len(second.Removed) != len(first.Removed) ||
			len(second.Modified) != len(first.Modified) {
			t.Fatalf("%s: bucket sizes changed on round trip", fixture)
		}
		for i := range first.Added {
			if second.Added[i].Path != first.Added[i].Path {
				t.Errorf("%s: added[%d] path %q != %q", fixture, i, second.Added[i].Path, first.Added[i].Path)
			}
			if len(second.Added[i].Behaviors) != len(first.Added[i].Behaviors) {
				t.Errorf("%s: added[%d] behavior count changed", fixture, i)
			}
		}
		if second.TotalRiskDelta != first.TotalRiskDelta {
			t.Errorf("%s: delta %d != %d", fixture, second.TotalRiskDelta, first.TotalRiskDelta)
		}
	}
}

func TestScoreFor(t *testing.T) {
	seven := 7
	zero := 0
	if got := ScoreFor(&seven, risk.LevelLow); got != 7 {
		t.Errorf("explicit score = %d, want 7", got)
	}
	if got := ScoreFor(&zero, risk.LevelCritical); got != 0 {
		t.Errorf("explicit zero = %d, want 0", got)
	}
	if got := ScoreFor(nil, risk.LevelMedium); got != 3 {
		t.Errorf("table fallback = %d, want 3", got)
	}
	if got := ScoreFor(nil, risk.LevelUnknown); got != 0 {
		t.Errorf("unknown fallback = %d, want 0", got)
	}
}

func TestDisplayPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/mal-after/pkg/evil.go", "pkg/evil.go"},
		{"work/pkg/evil.go", "pkg/evil.go"},
		{"evil.go", "evil.go"},
	}
	for _, tt := range tests {
		if got := DisplayPath(tt.in); got != tt.want {
			t.Errorf("DisplayPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
