package sarif

import (
	"testing"

	"github.com/chainguard-dev/malcontent-action/internal/risk"
	"github.com/chainguard-dev/malcontent-action/internal/scan"
)

func TestBuildReportsAddedBehaviorsOnly(t *testing.T) {
	d := scan.DiffResult{
		Modified: []scan.FileEntry{
			{
				Path: "/w/pkg/agent.go",
				Behaviors: []scan.Behavior{
					{Description: "opens socket", RiskLevel: risk.LevelHigh, RiskScore: 5},
					{Description: "spawns process", RiskLevel: risk.LevelCritical, RiskScore: 10},
					{Description: "reads env", RiskLevel: risk.LevelLow, RiskScore: 1, RemovedInDiff: true},
					{Description: "writes temp file", RiskLevel: risk.LevelLow, RiskScore: 1, RemovedInDiff: true},
					{Description: "deletes logs", RiskLevel: risk.LevelMedium, RiskScore: 3, RemovedInDiff: true},
				},
			},
		},
	}
	log := Build(d, Options{ToolVersion: "1.0.0"})
	results := log.Runs[0].Results
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Message.Text == "reads env" || r.Message.Text == "writes temp file" || r.Message.Text == "deletes logs" {
			t.Errorf("removed behavior leaked into results: %s", r.Message.Text)
		}
	}
}

func TestBuildRuleCatalogDedupe(t *testing.T) {
	d := scan.DiffResult{
		Added: []scan.FileEntry{
			{Path: "/w/a.go", Behaviors: []scan.Behavior{
				{Description: "first description", RuleName: "exec/shell", RiskLevel: risk.LevelHigh},
			}},
			{Path: "/w/b.go", Behaviors: []scan.Behavior{
				{Description: "second description", RuleName: "exec/shell", RiskLevel: risk.LevelHigh},
			}},
		},
	}
	log := Build(d, Options{})
	rules := log.Runs[0].Tool.Driver.Rules
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(rules))
	}
	// First-seen description wins; identity is the join key.
	if rules[0].ShortDescription.Text != "first description" {
		t.Errorf("rule description = %q", rules[0].ShortDescription.Text)
	}
	if len(log.Runs[0].Results) != 2 {
		t.Errorf("results = %d, want 2", len(log.Runs[0].Results))
	}
}

func TestRuleIDSlug(t *testing.T) {
	tests := []struct {
		bh   scan.Behavior
		want string
	}{
		{scan.Behavior{RuleName: "net/raw-socket"}, "net/raw-socket"},
		{scan.Behavior{Description: "Executes Shell Commands"}, "behavior/executes-shell-commands"},
		{scan.Behavior{Description: "  padded   text  "}, "behavior/padded-text"},
		{scan.Behavior{}, "behavior/unlabeled"},
	}
	for _, tt := range tests {
		if got := RuleID(tt.bh); got != tt.want {
			t.Errorf("RuleID = %q, want %q", got, tt.want)
		}
	}
}

func TestBuildSeverityAndLevelDefaults(t *testing.T) {
	d := scan.DiffResult{
		Added: []scan.FileEntry{
			{Path: "/w/a.go", Behaviors: []scan.Behavior{
				{Description: "mystery behavior", RiskLevel: risk.LevelUnknown},
			}},
		},
	}
	log := Build(d, Options{})
	rule := log.Runs[0].Tool.Driver.Rules[0]
	if rule.Properties.SecuritySeverity != "5.0" {
		t.Errorf("security-severity = %s, want 5.0", rule.Properties.SecuritySeverity)
	}
	if log.Runs[0].Results[0].Level != "note" {
		t.Errorf("level = %s, want note", log.Runs[0].Results[0].Level)
	}
}

func TestBuildMessageAndLocation(t *testing.T) {
	d := scan.DiffResult{
		Added: []scan.FileEntry{
			{Path: "/mal-after/pkg/dropper.go", Behaviors: []scan.Behavior{
				{Description: "executes shell commands", RiskLevel: risk.LevelCritical, MatchStrings: []string{"exec.Command", "syscall.Exec"}},
			}},
		},
	}
	log := Build(d, Options{Revision: "deadbeef", RepoURL: "https://github.com/acme/app"})
	res := log.Runs[0].Results[0]
	if res.Message.Text != "executes shell commands: exec.Command" {
		t.Errorf("message = %q", res.Message.Text)
	}
	if uri := res.Locations[0].PhysicalLocation.ArtifactLocation.URI; uri != "pkg/dropper.go" {
		t.Errorf("uri = %q, want stripped path", uri)
	}
	prov := log.Runs[0].VersionControlProvenance
	if len(prov) != 1 || prov[0].RevisionID != "deadbeef" || prov[0].RepositoryURI != "https://github.com/acme/app" {
		t.Errorf("provenance = %+v", prov)
	}
}
