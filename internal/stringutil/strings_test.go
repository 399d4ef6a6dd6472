package stringutil

import "testing"

func TestIsNumeric(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  bool
	}{
		{"20230578", true},
		{"0", true},
		{"", false},
		{"2023a578", false},
		{"2023 578", false},
		{"-123", false},
		{"１２３", false},
	}
	for _, tt := range tests {
		if got := IsNumeric(tt.input); got != tt.want {
			t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"shorter than max", "졸업 요건", 10, "졸업 요건"},
		{"exactly max", "abcde", 5, "abcde"},
		{"truncated ascii", "abcdef", 3, "abc…"},
		{"truncated hangul", "총 130학점 이수가 필요합니다", 6, "총 130학…"},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.input, tt.max); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}
