package sarif

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chainguard-dev/malcontent-action/internal/scan"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool                     Tool             `json:"tool"`
	Results                  []Result         `json:"results"`
	VersionControlProvenance []VersionControl `json:"versionControlProvenance,omitempty"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []Rule `json:"rules"`
}

type Rule struct {
	ID               string         `json:"id"`
	Name             string         `json:"name,omitempty"`
	ShortDescription Message        `json:"shortDescription"`
	HelpURI          string         `json:"helpUri,omitempty"`
	Properties       RuleProperties `json:"properties"`
}

type RuleProperties struct {
	SecuritySeverity string `json:"security-severity"`
}

type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"` // error, warning, note
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine int `json:"startLine"`
}

type VersionControl struct {
	RepositoryURI string `json:"repositoryUri,omitempty"`
	RevisionID    string `json:"revisionId,omitempty"`
}

// Options carry the provenance stamp and tool descriptor fields. Revision
// and RepoURL are opaque pass-through strings supplied by the caller.
type Options struct {
	ToolVersion string
	Revision    string
	RepoURL     string
}

// Build projects a DiffResult into a SARIF 2.1.0 document. Only added
// behaviors are reported: added files in full, and from modified files only
// the behaviors gained in the diff. The format communicates net-new risk,
// not history, so removed behaviors never appear.
func Build(d scan.DiffResult, opts Options) *Log {
	b := builder{ruleIndex: map[string]int{}}

	for _, f := range d.Added {
		for _, bh := range f.AddedBehaviors() {
			b.add(f.Path, bh)
		}
	}
	for _, f := range d.Modified {
		for _, bh := range f.AddedBehaviors() {
			b.add(f.Path, bh)
		}
	}

	run := Run{
		Tool: Tool{
			Driver: Driver{
				Name:           "malcontent",
				Version:        opts.ToolVersion,
				InformationURI: "https://github.com/chainguard-dev/malcontent",
				Rules:          b.rules,
			},
		},
		Results: b.results,
	}
	if opts.Revision != "" || opts.RepoURL != "" {
		run.VersionControlProvenance = []VersionControl{
			{RepositoryURI: opts.RepoURL, RevisionID: opts.Revision},
		}
	}

	return &Log{
		Version: "2.1.0",
		Schema:  "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json",
		Runs:    []Run{run},
	}
}

// Write marshals the document to path, creating parent directories.
func Write(log *Log, path string) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sarif: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sarif dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sarif: %w", err)
	}
	return nil
}

type builder struct {
	rules     []Rule
	ruleIndex map[string]int
	results   []Result
}

func (b *builder) add(path string, bh scan.Behavior) {
	id := RuleID(bh)
	if _, seen := b.ruleIndex[id]; !seen {
		// Identity, not description, is the join key: the first-seen
		// description wins for behaviors sharing a rule.
		b.ruleIndex[id] = len(b.rules)
		b.rules = append(b.rules, Rule{
			ID:               id,
			Name:             bh.RuleName,
			ShortDescription: Message{Text: bh.Description},
			HelpURI:          bh.RuleURL,
			Properties: RuleProperties{
				SecuritySeverity: bh.RiskLevel.SecuritySeverity(),
			},
		})
	}

	text := bh.Description
	if len(bh.MatchStrings) > 0 {
		text = fmt.Sprintf("%s: %s", text, bh.MatchStrings[0])
	}
	b.results = append(b.results, Result{
		RuleID:  id,
		Level:   bh.RiskLevel.SARIFLevel(),
		Message: Message{Text: text},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: scan.DisplayPath(path)},
					Region:           Region{StartLine: 1},
				},
			},
		},
	})
}

var slugStrip = regexp.MustCompile(`[^a-z0-9 _-]`)

// RuleID is the rule identity: the scanner's rule name when present,
// otherwise a synthetic slug of the description under the behavior/
// namespace so it cannot collide with real rule names.
func RuleID(bh scan.Behavior) string {
	if bh.RuleName != "" {
		return bh.RuleName
	}
	slug := strings.ToLower(strings.TrimSpace(bh.Description))
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = strings.Join(strings.Fields(slug), "-")
	if slug == "" {
		slug = "unlabeled"
	}
	return "behavior/" + slug
}
