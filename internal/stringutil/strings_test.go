package stringutil

import "testing"

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"029", true},
		{"7", true},
		{"", false},
		{"29a", false},
		{"２９", false}, // full-width digits are not ASCII digits
		{"-29", false},
	}

	for _, tt := range tests {
		if got := IsNumeric(tt.input); got != tt.want {
			t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTrimLeadingZeros(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"029", "29"},
		{"700", "700"},
		{"000", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := TrimLeadingZeros(tt.input); got != tt.want {
			t.Errorf("TrimLeadingZeros(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("피크 갈라짐", 2); got != "피크" {
		t.Errorf("TruncateRunes() = %q, want 피크", got)
	}
	if got := TruncateRunes("ok", 10); got != "ok" {
		t.Errorf("TruncateRunes() should not modify short strings, got %q", got)
	}
	if got := TruncateRunes("abc", 0); got != "" {
		t.Errorf("TruncateRunes() with 0 = %q, want empty", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  peak\t\tsplitting \n issue "); got != "peak splitting issue" {
		t.Errorf("CollapseSpaces() = %q", got)
	}
}
