package risk

import "strings"

// Level is the qualitative severity label reported by malcontent.
type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelHigh     Level = "HIGH"
	LevelMedium   Level = "MEDIUM"
	LevelLow      Level = "LOW"
	LevelUnknown  Level = "UNKNOWN"
)

// ParseLevel normalizes a scanner-reported level. Anything unrecognized,
// including an absent label, maps to LevelUnknown.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return LevelCritical
	case "HIGH":
		return LevelHigh
	case "MEDIUM", "MODERATE":
		return LevelMedium
	case "LOW":
		return LevelLow
	default:
		return LevelUnknown
	}
}

func (l Level) String() string {
	return string(l)
}

// Score is the numeric risk weight used when the scanner did not supply an
// explicit per-behavior score.
func (l Level) Score() int {
	switch l {
	case LevelCritical:
		return 10
	case LevelHigh:
		return 5
	case LevelMedium:
		return 3
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// Rank returns an integer rank for threshold comparisons (Low=1, Critical=4).
func (l Level) Rank() int {
	switch l {
	case LevelCritical:
		return 4
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// SecuritySeverity is the GitHub code-scanning severity. An unknown level
// defaults to medium, not zero: a behavior without a label must not read as
// "no risk" on the dashboard.
func (l Level) SecuritySeverity() string {
	switch l {
	case LevelCritical:
		return "9.0"
	case LevelHigh:
		return "7.0"
	case LevelMedium:
		return "5.0"
	case LevelLow:
		return "3.0"
	default:
		return "5.0"
	}
}

// SARIFLevel maps the level onto the three SARIF result levels.
func (l Level) SARIFLevel() string {
	switch l {
	case LevelCritical, LevelHigh:
		return "error"
	case LevelMedium:
		return "warning"
	default:
		return "note"
	}
}

// Emoji is the presentation class used in markdown output.
func (l Level) Emoji() string {
	switch l {
	case LevelCritical:
		return "🔴"
	case LevelHigh:
		return "🟠"
	case LevelMedium:
		return "🟡"
	case LevelLow:
		return "🟢"
	default:
		return "⚪"
	}
}
