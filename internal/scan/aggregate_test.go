package scan

import "testing"

func TestAggregateSignConvention(t *testing.T) {
	added := []FileEntry{{Path: "/a/x.go", RiskScore: 8}}
	removed := []FileEntry{{Path: "/b/y.go", RiskScore: 3}}

	delta, increased := Aggregate(added, removed, nil)
	if delta != 5 {
		t.Errorf("delta = %d, want 5", delta)
	}
	if !increased {
		t.Errorf("increased = false, want true")
	}
}

func TestAggregateModifiedNet(t *testing.T) {
	// addedBehaviors [5,2], removedBehaviors [10] -> net -3
	mod := FileEntry{
		Path: "/a/z.go",
		Behaviors: []Behavior{
			{Description: "a", RiskScore: 5},
			{Description: "b", RiskScore: 2},
			{Description: "c", RiskScore: 10, RemovedInDiff: true},
		},
	}
	mod.RiskScore = entryScore(mod, true)
	if mod.RiskScore != -3 {
		t.Fatalf("net score = %d, want -3", mod.RiskScore)
	}

	delta, increased := Aggregate(nil, nil, []FileEntry{mod})
	if delta != -3 {
		t.Errorf("delta = %d, want -3", delta)
	}
	if increased {
		t.Errorf("increased = true, want false")
	}
}

// Removing a risky file lowers the total but never flips the increase flag,
// even alongside a zero-score addition.
func TestAggregateRemovalNeverIncreases(t *testing.T) {
	added := []FileEntry{{Path: "/a/readme.md", RiskScore: 0}}
	removed := []FileEntry{{Path: "/b/evil.go", RiskScore: 12}}

	delta, increased := Aggregate(added, removed, nil)
	if delta != -12 {
		t.Errorf("delta = %d, want -12", delta)
	}
	if increased {
		t.Errorf("increased = true, want false")
	}
}

// The flag is directional: a positive modified net sets it even when a large
// removal drags the aggregate negative.
func TestAggregateIncreaseDespiteNegativeTotal(t *testing.T) {
	removed := []FileEntry{{Path: "/b/old.go", RiskScore: 20}}
	modified := []FileEntry{{Path: "/a/new.go", RiskScore: 2}}

	delta, increased := Aggregate(nil, removed, modified)
	if delta != -18 {
		t.Errorf("delta = %d, want -18", delta)
	}
	if !increased {
		t.Errorf("increased = false, want true")
	}
}

func TestAggregateBehaviors(t *testing.T) {
	total := AggregateBehaviors([]Behavior{
		{RiskScore: 10},
		{RiskScore: 1},
	})
	if total != 11 {
		t.Errorf("total = %d, want 11", total)
	}
}
