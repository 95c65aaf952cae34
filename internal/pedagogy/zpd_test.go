package pedagogy

import "testing"

func interactions(n int, positive bool, difficulty float64) []Interaction {
	out := make([]Interaction, n)
	for i := range out {
		out[i] = Interaction{Positive: positive, Difficulty: difficulty}
	}
	return out
}

func TestZPDAssess(t *testing.T) {
	z := NewZPD()

	tests := []struct {
		name string
		in   []Interaction
		want Direction
	}{
		{"empty history holds", nil, Hold},
		{"high success on hard material steps up", interactions(10, true, 0.8), StepUp},
		{"high success on easy material holds", interactions(10, true, 0.3), Hold},
		{"low success steps down", interactions(10, false, 0.8), StepDown},
		{"middling success holds", append(interactions(6, true, 0.5), interactions(4, false, 0.5)...), Hold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := z.Assess(tt.in)
			if got.Recommendation != tt.want {
				t.Errorf("Assess() recommendation = %d, want %d (rate=%v avg=%v)",
					got.Recommendation, tt.want, got.SuccessRate, got.AvgDifficulty)
			}
		})
	}
}

func TestZPDWindowsLastTwenty(t *testing.T) {
	z := NewZPD()

	// 30 failures followed by 20 successes on hard material: only the
	// last 20 interactions count, so the recommendation is a step up.
	history := append(interactions(30, false, 0.2), interactions(20, true, 0.9)...)
	got := z.Assess(history)
	if got.SampleSize != 20 {
		t.Errorf("SampleSize = %d, want 20", got.SampleSize)
	}
	if got.Recommendation != StepUp {
		t.Errorf("Recommendation = %d, want StepUp", got.Recommendation)
	}
	if got.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", got.SuccessRate)
	}
}

func TestZPDBoundaryRates(t *testing.T) {
	z := NewZPD()

	// Exactly 0.80 success does not step up; the threshold is strict.
	mixed := append(interactions(8, true, 0.9), interactions(2, false, 0.9)...)
	if got := z.Assess(mixed); got.Recommendation != Hold {
		t.Errorf("at exactly 0.80: recommendation = %d, want Hold", got.Recommendation)
	}

	// Exactly 0.40 success does not step down.
	mixed = append(interactions(4, true, 0.5), interactions(6, false, 0.5)...)
	if got := z.Assess(mixed); got.Recommendation != Hold {
		t.Errorf("at exactly 0.40: recommendation = %d, want Hold", got.Recommendation)
	}
}

func TestNopZPDNeutral(t *testing.T) {
	got := NopZPD{}.Assess(interactions(20, false, 0.9))
	if got.Recommendation != Hold || got.SampleSize != 0 {
		t.Errorf("NopZPD.Assess() = %+v, want neutral hold", got)
	}
}
