package pedagogy

// ZPD thresholds. The student is leveled up only when succeeding on
// material that is already demanding; an easy winning streak is not
// evidence of readiness.
const (
	zpdWindow        = 20
	zpdUpSuccessRate = 0.80
	zpdUpDifficulty  = 0.6
	zpdDownSuccess   = 0.40
)

// ZPD recommends one-step difficulty moves from the last interactions.
// Advisory only: unlike the comprehension engine it applies no hysteresis.
type ZPD struct{}

// NewZPD creates the production ZPD calculator.
func NewZPD() *ZPD { return &ZPD{} }

// Assess looks at the last 20 interactions (or fewer) and recommends a
// move: up one step when the success rate exceeds 0.80 on material of
// average difficulty above 0.6, down one step when the success rate falls
// under 0.40, otherwise hold.
func (z *ZPD) Assess(interactions []Interaction) ZPDAssessment {
	if len(interactions) == 0 {
		return ZPDAssessment{Recommendation: Hold}
	}
	if len(interactions) > zpdWindow {
		interactions = interactions[len(interactions)-zpdWindow:]
	}

	successes := 0
	difficultyTotal := 0.0
	for _, it := range interactions {
		if it.Positive {
			successes++
		}
		difficultyTotal += it.Difficulty
	}

	n := float64(len(interactions))
	assessment := ZPDAssessment{
		SuccessRate:   float64(successes) / n,
		AvgDifficulty: difficultyTotal / n,
		SampleSize:    len(interactions),
		Recommendation: Hold,
	}

	switch {
	case assessment.SuccessRate > zpdUpSuccessRate && assessment.AvgDifficulty > zpdUpDifficulty:
		assessment.Recommendation = StepUp
	case assessment.SuccessRate < zpdDownSuccess:
		assessment.Recommendation = StepDown
	}
	return assessment
}
