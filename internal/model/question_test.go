package model

import "testing"

func TestOptionLabel(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}
	for _, tt := range tests {
		if got := OptionLabel(tt.index); got != tt.want {
			t.Errorf("OptionLabel(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}
