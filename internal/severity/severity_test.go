package severity

import "testing"

func TestValid(t *testing.T) {
	for _, l := range Levels() {
		if !l.Valid() {
			t.Errorf("%s should be valid", l)
		}
	}
	for _, l := range []Level{"", "SEVERE", "low"} {
		if l.Valid() {
			t.Errorf("%q should be invalid", l)
		}
	}
}

func TestRankOrdering(t *testing.T) {
	if !(Low.Rank() < Medium.Rank() && Medium.Rank() < High.Rank() && High.Rank() < Critical.Rank()) {
		t.Errorf("ranks out of order: %d %d %d %d", Low.Rank(), Medium.Rank(), High.Rank(), Critical.Rank())
	}
	if Level("bogus").Rank() != -1 {
		t.Errorf("unknown level should rank -1, got %d", Level("bogus").Rank())
	}
}

func TestMax(t *testing.T) {
	tests := []struct {
		a, b, want Level
	}{
		{Low, High, High},
		{Critical, Medium, Critical},
		{Medium, Medium, Medium},
		{"", High, High},
		{Low, "", Low},
	}
	for _, tc := range tests {
		if got := Max(tc.a, tc.b); got != tc.want {
			t.Errorf("Max(%q, %q) = %q, want %q", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestAttrs(t *testing.T) {
	if High.Attrs().Label != "High" || High.Attrs().Badge != "warning" {
		t.Errorf("High attributes wrong: %+v", High.Attrs())
	}
	if Critical.Attrs().Badge != "danger" {
		t.Errorf("Critical badge wrong: %+v", Critical.Attrs())
	}
}
