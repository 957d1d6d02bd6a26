package scenario

import (
	"testing"
)

// TestBundledScenarios runs every scenario shipped under testdata
// against the real primitives.
func TestBundledScenarios(t *testing.T) {
	scenarios, err := LoadDirectory("testdata")
	if err != nil {
		t.Fatalf("load testdata: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatal("no scenarios found under testdata")
	}

	runner := NewRunner()
	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			res := runner.Run(sc)
			if res.Skipped {
				t.Skip(res.SkipReason)
			}
			requirePassed(t, res)
		})
	}
}

func TestBundledScenarioIDsUnique(t *testing.T) {
	scenarios, err := LoadDirectory("testdata")
	if err != nil {
		t.Fatalf("load testdata: %v", err)
	}

	seen := make(map[string]string)
	for _, sc := range scenarios {
		if prev, dup := seen[sc.ID]; dup {
			t.Errorf("scenario ID %s used by both %q and %q", sc.ID, prev, sc.Name)
		}
		seen[sc.ID] = sc.Name
	}
}
