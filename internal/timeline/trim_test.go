package timeline

import "testing"

func TestValidateTrim(t *testing.T) {
	tests := []struct {
		name           string
		trimStart      int64
		duration       int64
		sourceDuration int64
		want           bool
	}{
		{"fits exactly", 1000, 500, 1500, true},
		{"window overruns source", 1000, 600, 1500, false},
		{"full source", 0, 4000, 4000, true},
		{"below duration floor", 0, 499, 4000, false},
		{"at duration floor", 0, 500, 4000, true},
		{"negative offset", -1, 1000, 4000, false},
		// Source length unknown: only local bounds apply. The media may not
		// have been probed yet, so rejecting here would block valid trims.
		{"unknown source passes", 5000, 9000, 0, true},
		{"unknown source still floors duration", 0, 100, 0, false},
		{"unknown source still rejects negative offset", -10, 1000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateTrim(tt.trimStart, tt.duration, tt.sourceDuration)
			if got != tt.want {
				t.Errorf("ValidateTrim(%d, %d, %d) = %v, want %v",
					tt.trimStart, tt.duration, tt.sourceDuration, got, tt.want)
			}
		})
	}
}

func TestClampTrim(t *testing.T) {
	tests := []struct {
		name           string
		trimStart      int64
		duration       int64
		sourceDuration int64
		wantStart      int64
		wantDuration   int64
	}{
		{"valid window untouched", 1000, 500, 1500, 1000, 500},
		{"negative offset floored", -300, 1000, 4000, 0, 1000},
		{"short duration floored", 0, 100, 4000, 0, 500},
		{"window pulled inside source", 1000, 600, 1500, 1000, 500},
		{"offset pushed back from the end", 3900, 500, 4000, 3500, 500},
		{"source shorter than floor keeps floor", 0, 2000, 300, 0, 500},
		{"unknown source only local clamps", -50, 200, 0, 0, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStart, gotDuration := ClampTrim(tt.trimStart, tt.duration, tt.sourceDuration)
			if gotStart != tt.wantStart || gotDuration != tt.wantDuration {
				t.Errorf("ClampTrim(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.trimStart, tt.duration, tt.sourceDuration,
					gotStart, gotDuration, tt.wantStart, tt.wantDuration)
			}
		})
	}
}

// TestClampedAlwaysValid ties the two helpers together: whatever window the
// clamp produces must pass validation when the source length is known.
func TestClampedAlwaysValid(t *testing.T) {
	cases := []struct{ trimStart, duration, source int64 }{
		{0, 1000, 4000},
		{-500, 100, 4000},
		{3999, 4000, 4000},
		{100, 50, 700},
	}
	for _, c := range cases {
		start, dur := ClampTrim(c.trimStart, c.duration, c.source)
		if !ValidateTrim(start, dur, c.source) {
			t.Errorf("ClampTrim(%d, %d, %d) produced invalid window (%d, %d)",
				c.trimStart, c.duration, c.source, start, dur)
		}
	}
}
