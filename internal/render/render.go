package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chainguard-dev/malcontent-action/internal/comment"
	"github.com/chainguard-dev/malcontent-action/internal/risk"
	"github.com/chainguard-dev/malcontent-action/internal/scan"
)

// DefaultMaxChars is the default comment body budget. GitHub rejects issue
// comment bodies over 65536 characters; the default leaves headroom for the
// transport's own framing.
const DefaultMaxChars = 55000

const (
	shortBucketLimit    = 5
	extendedBucketLimit = 10
)

// Options control presentation only. Nothing here mutates the DiffResult.
type Options struct {
	// Extended switches from the condensed breakdown to per-behavior detail
	// and the larger bucket cap.
	Extended bool
	// MinLevel hides behaviors below this level. Display-only filtering.
	MinLevel risk.Level
	// MaxChars caps the comment body. Zero means DefaultMaxChars.
	MaxChars int
}

// Verdict is the single-line result: no change, increased by N, or
// decreased by N.
func Verdict(d scan.DiffResult) string {
	switch {
	case d.TotalRiskDelta > 0:
		return fmt.Sprintf("⚠️ Risk increased by %d.", d.TotalRiskDelta)
	case d.TotalRiskDelta < 0:
		return fmt.Sprintf("✅ Risk decreased by %d.", -d.TotalRiskDelta)
	default:
		return "✅ No risk change detected."
	}
}

var (
	increasedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// TerminalVerdict is the verdict styled for CI log output.
func TerminalVerdict(d scan.DiffResult) string {
	if d.RiskIncreased {
		return increasedStyle.Render(Verdict(d))
	}
	return okStyle.Render(Verdict(d))
}

// Summary renders the verdict plus a ranked per-bucket breakdown in
// markdown. Files are sorted worst-first (modified by signed net, the other
// buckets by absolute score), stable on ties so encounter order survives.
func Summary(d scan.DiffResult, opts Options) string {
	limit := shortBucketLimit
	if opts.Extended {
		limit = extendedBucketLimit
	}

	var b strings.Builder
	b.WriteString(Verdict(d))
	writeBucket(&b, "Added files", sortedByMagnitude(d.Added), +1, limit, opts)
	writeBucket(&b, "Removed files", sortedByMagnitude(d.Removed), -1, limit, opts)
	writeBucket(&b, "Modified files", sortedBySignedNet(d.Modified), 0, limit, opts)
	return b.String()
}

// writeBucket renders one section. sign is the bucket's contribution to the
// total (+1 added, -1 removed, 0 for modified whose score is already net).
func writeBucket(b *strings.Builder, title string, entries []scan.FileEntry, sign int, limit int, opts Options) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "\n\n### %s (%d)\n", title, len(entries))

	shown := entries
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, f := range shown {
		delta := f.RiskScore
		if sign != 0 {
			delta = sign * f.RiskScore
		}
		fmt.Fprintf(b, "\n- `%s` (%+d)", scan.DisplayPath(f.Path), delta)
		if opts.Extended {
			writeBehaviors(b, f.Behaviors, opts.MinLevel)
		}
	}
	if hidden := len(entries) - len(shown); hidden > 0 {
		fmt.Fprintf(b, "\n- ...and %d more", hidden)
	}
}

// writeBehaviors lists a file's behaviors, highest score first, surfacing at
// most the first match string per behavior.
func writeBehaviors(b *strings.Builder, behaviors []scan.Behavior, minLevel risk.Level) {
	sorted := make([]scan.Behavior, len(behaviors))
	copy(sorted, behaviors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RiskScore > sorted[j].RiskScore
	})

	for _, bh := range sorted {
		if bh.RiskLevel.Rank() < minLevel.Rank() {
			continue
		}
		desc := bh.Description
		if bh.RemovedInDiff {
			desc = "removed: " + desc
		}
		fmt.Fprintf(b, "\n  - %s %s [%s]", bh.RiskLevel.Emoji(), desc, bh.RiskLevel)
		if len(bh.MatchStrings) > 0 {
			fmt.Fprintf(b, ": `%s`", bh.MatchStrings[0])
		}
	}
}

// CommentBody assembles the full PR comment: sentinel, heading, extended
// summary, and the raw payload inside a collapsed details block. Overflow is
// recovered lowest-priority first: the raw appendix is truncated, then the
// extended breakdown collapses to the short one. The verdict and summary are
// never cut.
func CommentBody(d scan.DiffResult, opts Options) string {
	budget := opts.MaxChars
	if budget <= 0 {
		budget = DefaultMaxChars
	}

	head := comment.Sentinel + "\n## Malcontent analysis\n\n"
	body := head + Summary(d, Options{Extended: true, MinLevel: opts.MinLevel})
	if len(body) > budget {
		body = head + Summary(d, Options{Extended: false, MinLevel: opts.MinLevel})
	}

	if raw := strings.TrimSpace(d.Raw); raw != "" {
		if a := appendix(raw, budget-len(body)-2); a != "" {
			body += "\n\n" + a
		}
	}
	return body
}

// ResolvedBody is the fixed replacement body for a run with no findings
// updating an earlier report. It keeps the sentinel so later runs still find
// the comment.
func ResolvedBody() string {
	return comment.Sentinel + "\n## Malcontent analysis\n\n✅ Previously detected risk changes have been resolved."
}

const (
	appendixOpen  = "<details>\n<summary>Raw scanner output</summary>\n\n```json\n"
	appendixClose = "\n```\n\n</details>"
	truncMarker   = "\n… (truncated)"
)

// appendix wraps the raw payload for the comment, shrinking it to fit the
// remaining budget. Returns "" when not even a truncated payload fits.
func appendix(raw string, avail int) string {
	framing := len(appendixOpen) + len(appendixClose)
	if avail < framing+len(truncMarker) {
		return ""
	}
	if len(raw) > avail-framing {
		raw = raw[:avail-framing-len(truncMarker)] + truncMarker
	}
	return appendixOpen + raw + appendixClose
}

func sortedByMagnitude(entries []scan.FileEntry) []scan.FileEntry {
	out := make([]scan.FileEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return abs(out[i].RiskScore) > abs(out[j].RiskScore)
	})
	return out
}

func sortedBySignedNet(entries []scan.FileEntry) []scan.FileEntry {
	out := make([]scan.FileEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RiskScore > out[j].RiskScore
	})
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
