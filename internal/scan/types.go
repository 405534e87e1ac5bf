package scan

import (
	"strings"

	"github.com/chainguard-dev/malcontent-action/internal/risk"
)

// Behavior is one detected finding attached to a file. Inside a modified
// file's list, RemovedInDiff marks a behavior that was present in the
// "before" tree but absent in "after".
type Behavior struct {
	Description   string     `json:"Description"`
	RiskLevel     risk.Level `json:"RiskLevel"`
	RiskScore     int        `json:"RiskScore"`
	MatchStrings  []string   `json:"MatchStrings,omitempty"`
	RuleName      string     `json:"RuleName,omitempty"`
	RuleURL       string     `json:"RuleURL,omitempty"`
	RemovedInDiff bool       `json:"RemovedInDiff,omitempty"`
}

// FileEntry is a file appearing in one of the three diff buckets. For added
// and removed entries RiskScore is the sum of behavior scores; for modified
// entries it is the net of added-behavior scores minus removed-behavior
// scores.
type FileEntry struct {
	Path      string     `json:"Path"`
	Behaviors []Behavior `json:"Behaviors,omitempty"`
	RiskScore int        `json:"RiskScore"`
}

// AddedBehaviors returns the behaviors present in "after" but not "before".
func (f FileEntry) AddedBehaviors() []Behavior {
	var out []Behavior
	for _, b := range f.Behaviors {
		if !b.RemovedInDiff {
			out = append(out, b)
		}
	}
	return out
}

// RemovedBehaviors returns the behaviors present only in "before".
func (f FileEntry) RemovedBehaviors() []Behavior {
	var out []Behavior
	for _, b := range f.Behaviors {
		if b.RemovedInDiff {
			out = append(out, b)
		}
	}
	return out
}

// DiffResult is the canonical aggregate threaded through the pipeline. It is
// immutable after normalization.
type DiffResult struct {
	Added    []FileEntry `json:"added,omitempty"`
	Removed  []FileEntry `json:"removed,omitempty"`
	Modified []FileEntry `json:"modified,omitempty"`

	TotalRiskDelta int  `json:"total_risk_delta"`
	RiskIncreased  bool `json:"risk_increased"`

	// Raw is the original scanner payload, kept verbatim for the report
	// appendix. Opaque to everything except passthrough rendering.
	Raw string `json:"-"`
}

// Empty reports whether no file appears in any bucket.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// DisplayPath strips the leading path segment the scanner prepends (the
// temporary extraction directory), so execution-environment paths never leak
// into rendered output.
func DisplayPath(p string) string {
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	if i := strings.Index(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
