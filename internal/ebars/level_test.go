package ebars

import "testing"

func TestClassifyStatic(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0, LevelVeryStruggling},
		{30, LevelVeryStruggling},
		{30.5, LevelStruggling},
		{45, LevelStruggling},
		{46, LevelNormal},
		{50, LevelNormal},
		{70, LevelNormal},
		{71, LevelGood},
		{80, LevelGood},
		{81, LevelExcellent},
		{100, LevelExcellent},
	}
	for _, tt := range tests {
		if got := ClassifyStatic(tt.score); got != tt.want {
			t.Errorf("ClassifyStatic(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestNextLevelTransitions(t *testing.T) {
	tests := []struct {
		name    string
		current Level
		score   float64
		want    Level
	}{
		{"very_struggling holds below exit", LevelVeryStruggling, 34, LevelVeryStruggling},
		{"very_struggling holds between exit and enter", LevelVeryStruggling, 38, LevelVeryStruggling},
		{"very_struggling moves up at struggling enter", LevelVeryStruggling, 40, LevelStruggling},
		{"struggling moves up at 50", LevelStruggling, 50, LevelNormal},
		{"struggling holds in dead zone", LevelStruggling, 45, LevelStruggling},
		{"struggling moves down below 40", LevelStruggling, 39, LevelVeryStruggling},
		{"normal holds just below 50", LevelNormal, 48, LevelNormal},
		{"normal holds just above 50", LevelNormal, 52, LevelNormal},
		{"normal moves down below 40", LevelNormal, 39.5, LevelStruggling},
		{"normal holds below good enter", LevelNormal, 74.9, LevelNormal},
		{"normal moves up at 75", LevelNormal, 75, LevelGood},
		{"good holds at 80", LevelGood, 80, LevelGood},
		{"good moves up at 85", LevelGood, 85, LevelExcellent},
		{"good moves down below 75", LevelGood, 74.9, LevelNormal},
		{"excellent holds at 85", LevelExcellent, 85, LevelExcellent},
		{"excellent moves down below 85", LevelExcellent, 84.9, LevelGood},
		// A crash from excellent still moves only one band per event.
		{"excellent with floor score moves one band", LevelExcellent, 5, LevelGood},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextLevel(tt.current, tt.score); got != tt.want {
				t.Errorf("nextLevel(%q, %v) = %q, want %q", tt.current, tt.score, got, tt.want)
			}
		})
	}
}

func TestLevelRankOrdering(t *testing.T) {
	for i, lvl := range Levels {
		if got := lvl.Rank(); got != i {
			t.Errorf("Rank(%q) = %d, want %d", lvl, got, i)
		}
	}
	if Level("bogus").Rank() != -1 {
		t.Error("Rank of unknown level should be -1")
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw    string
		want   Category
		wantOK bool
	}{
		{"excellent", CategoryExcellent, true},
		{"👍", CategoryExcellent, true},
		{"😊", CategoryGood, true},
		{"😐", CategoryConfused, true},
		{"❌", CategoryNegative, true},
		{"negative", CategoryNegative, true},
		{"meh", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.raw)
		if ok != tt.wantOK {
			t.Errorf("ParseCategory(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
