package ocr

import "testing"

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"G", "G"},
		{"y", "Y"},
		{" W\n", "W"},
		{"\tx \n\n", "X"},
		{"H\f", "H"},
		{"", ""},
		{"   \n", ""},
		{"GH", ""},
		{"G H", ""},
		{"A", ""},
		{"0", ""},
		{"Ÿ", ""},
	}

	for _, tt := range tests {
		got := ParseCandidate(tt.raw)
		if got.String() != tt.want {
			t.Errorf("ParseCandidate(%q) = %q, want %q", tt.raw, got.String(), tt.want)
		}
		if got.Matched() != (tt.want != "") {
			t.Errorf("ParseCandidate(%q).Matched() = %v", tt.raw, got.Matched())
		}
	}
}

func TestRecognized(t *testing.T) {
	for _, r := range Alphabet {
		c := Recognized(r)
		if !c.Matched() || c.Rune() != r {
			t.Errorf("Recognized(%q) = %+v", r, c)
		}
	}

	if c := Recognized('Z'); c != NoMatch {
		t.Errorf("Recognized('Z') = %+v, want NoMatch", c)
	}
	if NoMatch.Matched() || NoMatch.Rune() != 0 || NoMatch.String() != "" {
		t.Errorf("NoMatch is not empty: %+v", NoMatch)
	}
}
