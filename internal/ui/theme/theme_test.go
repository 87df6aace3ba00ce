package theme

import (
	"strings"
	"testing"
)

func TestStatusKeepsText(t *testing.T) {
	for _, s := range []string{"completed", "failed", "in_progress", "generated", "whatever"} {
		if got := Status(s); !strings.Contains(got, s) {
			t.Errorf("Status(%q) = %q, lost the text", s, got)
		}
	}
}

func TestFieldAndMark(t *testing.T) {
	got := Field("Day", 3)
	if !strings.Contains(got, "Day") || !strings.Contains(got, "3") {
		t.Errorf("Field = %q", got)
	}
	if !strings.Contains(Mark(true), "✓") || !strings.Contains(Mark(false), "✗") {
		t.Error("Mark lost its symbol")
	}
	if !strings.Contains(Rule(4), "────") {
		t.Errorf("Rule(4) = %q", Rule(4))
	}
}
