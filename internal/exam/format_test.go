package exam

import "testing"

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{65, "01:05"},
		{3600, "60:00"},
		{-4, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0 sec"},
		{45, "45 sec"},
		{60, "1 min"},
		{330, "5 min 30 sec"},
		{3600, "1 hr"},
		{3930, "1 hr 5 min 30 sec"},
		{7205, "2 hr 5 sec"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChoiceLetter(t *testing.T) {
	if got := ChoiceLetter(0) + ChoiceLetter(1) + ChoiceLetter(3); got != "ABD" {
		t.Errorf("letters = %q", got)
	}
}
