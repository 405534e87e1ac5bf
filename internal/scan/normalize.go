package scan

import (
	"encoding/json"
	"sort"

	"github.com/chainguard-dev/malcontent-action/internal/risk"
)

// The scanner has shipped two payload generations: an older shape keyed by
// lowercase added/removed/modified with a behaviors list per entry, and the
// current shape nested under a Diff container with capitalized keys and
// richer per-behavior fields. Field lookup prefers the richer name and falls
// back to the legacy one, so a payload that mixes generations still decodes.

type payloadJSON struct {
	Diff *bucketsJSON `json:"Diff"`

	// Legacy payloads carry the buckets at the top level.
	Added    json.RawMessage `json:"added"`
	Removed  json.RawMessage `json:"removed"`
	Modified json.RawMessage `json:"modified"`
}

type bucketsJSON struct {
	Added    json.RawMessage `json:"Added"`
	Removed  json.RawMessage `json:"Removed"`
	Modified json.RawMessage `json:"Modified"`
}

type fileEntryJSON struct {
	Path      string         `json:"Path"`
	FileAlt   string         `json:"file"`
	Behaviors []behaviorJSON `json:"Behaviors"`
}

type behaviorJSON struct {
	Description string `json:"Description"`

	RiskScore    *int `json:"RiskScore"`
	RiskScoreAlt *int `json:"risk_score"`

	RiskLevel    string `json:"RiskLevel"`
	RiskLevelAlt string `json:"risk_level"`
	// Bare finding lists label severity as "risk" or "severity" instead.
	Risk     string `json:"risk"`
	Severity string `json:"severity"`

	MatchStrings    []string `json:"MatchStrings"`
	MatchStringsAlt []string `json:"match_strings"`

	RuleName    string `json:"RuleName"`
	RuleNameAlt string `json:"rule_name"`
	RuleURL     string `json:"RuleURL"`
	RuleURLAlt  string `json:"rule_url"`

	RemovedInDiff bool `json:"RemovedInDiff"`
	DiffRemoved   bool `json:"DiffRemoved"`
	RemovedAlt    bool `json:"removed_in_diff"`
}

// Normalize converts a raw scanner payload into the canonical DiffResult.
// A payload that is not valid structured data degrades to empty buckets with
// the raw text retained: the pipeline must still produce a report when the
// scanner emits something unexpected, so this is recovery, not failure.
func Normalize(payload []byte) DiffResult {
	d := DiffResult{Raw: string(payload)}

	var doc payloadJSON
	if err := json.Unmarshal(payload, &doc); err != nil {
		return d
	}

	added, removed, modified := doc.Added, doc.Removed, doc.Modified
	if doc.Diff != nil {
		added, removed, modified = doc.Diff.Added, doc.Diff.Removed, doc.Diff.Modified
	}

	d.Added = normalizeBucket(added, false)
	d.Removed = normalizeBucket(removed, false)
	d.Modified = normalizeBucket(modified, true)

	d.TotalRiskDelta, d.RiskIncreased = Aggregate(d.Added, d.Removed, d.Modified)
	return d
}

// normalizeBucket decodes one diff bucket. The scanner has emitted buckets
// both as entry arrays and as maps keyed by path; map keys are sorted so
// encounter order stays deterministic.
func normalizeBucket(raw json.RawMessage, modified bool) []FileEntry {
	if len(raw) == 0 {
		return nil
	}

	var items []fileEntryJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		byPath := map[string]fileEntryJSON{}
		if err := json.Unmarshal(raw, &byPath); err != nil {
			return nil
		}
		keys := make([]string, 0, len(byPath))
		for k := range byPath {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			item := byPath[k]
			if item.Path == "" && item.FileAlt == "" {
				item.Path = k
			}
			items = append(items, item)
		}
	}

	var out []FileEntry
	for _, item := range items {
		entry := FileEntry{Path: firstNonEmpty(item.Path, item.FileAlt)}
		for _, b := range item.Behaviors {
			entry.Behaviors = append(entry.Behaviors, b.canonical())
		}
		entry.RiskScore = entryScore(entry, modified)
		out = append(out, entry)
	}
	return out
}

func (b behaviorJSON) canonical() Behavior {
	level := risk.ParseLevel(firstNonEmpty(b.RiskLevel, b.RiskLevelAlt, b.Risk, b.Severity))

	score := ScoreFor(firstScore(b.RiskScore, b.RiskScoreAlt), level)

	matches := b.MatchStrings
	if len(matches) == 0 {
		matches = b.MatchStringsAlt
	}

	return Behavior{
		Description:   b.Description,
		RiskLevel:     level,
		RiskScore:     score,
		MatchStrings:  matches,
		RuleName:      firstNonEmpty(b.RuleName, b.RuleNameAlt),
		RuleURL:       firstNonEmpty(b.RuleURL, b.RuleURLAlt),
		RemovedInDiff: b.RemovedInDiff || b.DiffRemoved || b.RemovedAlt,
	}
}

// ScoreFor derives a behavior's numeric score: the explicit scanner-supplied
// value when present, otherwise the level table, otherwise zero.
func ScoreFor(explicit *int, level risk.Level) int {
	if explicit != nil && *explicit >= 0 {
		return *explicit
	}
	return level.Score()
}

// entryScore computes a file entry's score from its behaviors: a plain sum
// for added/removed entries, net added-minus-removed for modified ones.
func entryScore(f FileEntry, modified bool) int {
	total := 0
	for _, b := range f.Behaviors {
		if modified && b.RemovedInDiff {
			total -= b.RiskScore
			continue
		}
		total += b.RiskScore
	}
	return total
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstScore(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
