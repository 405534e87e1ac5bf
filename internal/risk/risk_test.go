package risk

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"critical", LevelCritical},
		{"CRITICAL", LevelCritical},
		{" High ", LevelHigh},
		{"moderate", LevelMedium},
		{"low", LevelLow},
		{"", LevelUnknown},
		{"banana", LevelUnknown},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestScoreTable(t *testing.T) {
	tests := []struct {
		level Level
		want  int
	}{
		{LevelCritical, 10},
		{LevelHigh, 5},
		{LevelMedium, 3},
		{LevelLow, 1},
		{LevelUnknown, 0},
	}
	for _, tt := range tests {
		if got := tt.level.Score(); got != tt.want {
			t.Errorf("%s.Score() = %d, want %d", tt.level, got, tt.want)
		}
	}
}

// An unlabeled behavior scores 0 for risk math but must still surface as a
// medium-severity note in code scanning.
func TestUnknownIsNotConflated(t *testing.T) {
	l := ParseLevel("")
	if l.Score() != 0 {
		t.Errorf("unknown score = %d, want 0", l.Score())
	}
	if l.SecuritySeverity() != "5.0" {
		t.Errorf("unknown security-severity = %s, want 5.0", l.SecuritySeverity())
	}
	if l.SARIFLevel() != "note" {
		t.Errorf("unknown sarif level = %s, want note", l.SARIFLevel())
	}
}

func TestSARIFLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelCritical, "error"},
		{LevelHigh, "error"},
		{LevelMedium, "warning"},
		{LevelLow, "note"},
		{LevelUnknown, "note"},
	}
	for _, tt := range tests {
		if got := tt.level.SARIFLevel(); got != tt.want {
			t.Errorf("%s.SARIFLevel() = %s, want %s", tt.level, got, tt.want)
		}
	}
}

func TestSecuritySeverity(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelCritical, "9.0"},
		{LevelHigh, "7.0"},
		{LevelMedium, "5.0"},
		{LevelLow, "3.0"},
	}
	for _, tt := range tests {
		if got := tt.level.SecuritySeverity(); got != tt.want {
			t.Errorf("%s.SecuritySeverity() = %s, want %s", tt.level, got, tt.want)
		}
	}
}
