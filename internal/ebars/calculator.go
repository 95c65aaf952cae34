package ebars

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Adaptive delta scaling boundaries. The base delta is rescaled by the
// current score before being applied: growth slows near the ceiling and
// recovery accelerates near the floor.
const (
	dampenAbove  = 70.0
	dampenFactor = 0.7
	boostBelow   = 30.0
	boostFactor  = 1.3
)

// Streak lengths that force an adjustment-type escalation.
const (
	immediateDropStreak  = 3
	immediateRaiseStreak = 4
)

// reactiveBelow is the score under which any update counts as a reactive
// decrease regardless of feedback polarity.
const reactiveBelow = 50.0

// Calculator maintains the comprehension score per (student, session) key
// and classifies it into a difficulty level with hysteresis.
//
// Calculator is safe for concurrent use as long as the underlying StateStore
// serializes updates per key.
type Calculator struct {
	store  StateStore
	logger *slog.Logger
	now    func() time.Time
}

// NewCalculator creates a Calculator backed by the given store.
// A nil logger falls back to slog.Default().
func NewCalculator(store StateStore, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// State returns the current state for key, creating the default state
// (score 50.0, level normal) if the key is new. Lazy creation is the only
// side effect of a read.
func (c *Calculator) State(ctx context.Context, key Key) (ComprehensionState, error) {
	st, found, err := c.store.Get(ctx, key)
	if err != nil {
		return ComprehensionState{}, fmt.Errorf("loading state for %s: %w", key, err)
	}
	if found {
		return st, nil
	}
	// First access: persist the default so subsequent reads are stable.
	st, err = c.store.Update(ctx, key, func(*ComprehensionState) error { return nil })
	if err != nil {
		return ComprehensionState{}, fmt.Errorf("creating state for %s: %w", key, err)
	}
	return st, nil
}

// Score returns the current comprehension score for key.
func (c *Calculator) Score(ctx context.Context, key Key) (float64, error) {
	st, err := c.State(ctx, key)
	if err != nil {
		return 0, err
	}
	return st.Score, nil
}

// StaticLevel derives a level from the current score using the static
// threshold table. Read-only queries only; the authoritative level is the
// stored one maintained by UpdateScore.
func (c *Calculator) StaticLevel(ctx context.Context, key Key) (Level, error) {
	st, err := c.State(ctx, key)
	if err != nil {
		return "", err
	}
	return ClassifyStatic(st.Score), nil
}

// CurrentLevel returns the stored (hysteresis-maintained) level for key.
func (c *Calculator) CurrentLevel(ctx context.Context, key Key) (Level, error) {
	st, err := c.State(ctx, key)
	if err != nil {
		return "", err
	}
	return st.Level, nil
}

// UpdateScore applies one feedback event to the state for key.
//
// The pipeline: scale the category's base delta by the current score, clamp
// the sum into [0,100], advance streak counters, reclassify the level
// through the hysteresis rule, and classify the adjustment type.
//
// An unknown category is a logged no-op returning the unchanged state;
// validation with an explicit error belongs to Handler.ProcessFeedback.
func (c *Calculator) UpdateScore(ctx context.Context, key Key, category Category) (UpdateResult, error) {
	base, known := baseDeltas[category]
	if !known {
		c.logger.Warn("ignoring unknown feedback category",
			"key", key.String(), "category", string(category))
		st, err := c.State(ctx, key)
		if err != nil {
			return UpdateResult{}, err
		}
		return UpdateResult{
			Category:       category,
			PreviousScore:  st.Score,
			NewScore:       st.Score,
			PreviousLevel:  st.Level,
			NewLevel:       st.Level,
			AdjustmentType: AdjustNormal,
			State:          st,
		}, nil
	}

	var result UpdateResult
	st, err := c.store.Update(ctx, key, func(s *ComprehensionState) error {
		prevScore, prevLevel := s.Score, s.Level

		delta := base * scaleFactor(s.Score)
		s.Score = clampScore(s.Score + delta)
		s.Level = nextLevel(prevLevel, s.Score)

		s.TotalFeedback++
		if category.Positive() {
			s.PositiveFeedback++
			s.ConsecutivePositive++
			s.ConsecutiveNegative = 0
		} else {
			s.NegativeFeedback++
			s.ConsecutiveNegative++
			s.ConsecutivePositive = 0
		}
		s.LastFeedbackAt = c.now()

		result = UpdateResult{
			Category:       category,
			PreviousScore:  prevScore,
			Delta:          delta,
			NewScore:       s.Score,
			PreviousLevel:  prevLevel,
			NewLevel:       s.Level,
			LevelChanged:   s.Level != prevLevel,
			AdjustmentType: classifyAdjustment(category, s.Score, s.ConsecutivePositive, s.ConsecutiveNegative),
		}
		return nil
	})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("updating score for %s: %w", key, err)
	}
	result.State = st

	c.logger.Debug("score updated",
		"key", key.String(),
		"category", string(category),
		"delta", result.Delta,
		"score", result.NewScore,
		"level", string(result.NewLevel),
		"adjustment", string(result.AdjustmentType))
	return result, nil
}

// scaleFactor returns the adaptive multiplier for the current score.
func scaleFactor(score float64) float64 {
	switch {
	case score >= dampenAbove:
		return dampenFactor
	case score <= boostBelow:
		return boostFactor
	default:
		return 1.0
	}
}

// clampScore keeps the comprehension score inside [0,100].
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// classifyAdjustment picks the adjustment type for an update.
// First match wins, in this order.
func classifyAdjustment(category Category, newScore float64, consecPos, consecNeg int) AdjustmentType {
	switch {
	case consecNeg >= immediateDropStreak:
		return AdjustImmediateDrop
	case consecPos >= immediateRaiseStreak:
		return AdjustImmediateRaise
	case newScore >= dampenAbove && category.Positive():
		return AdjustProactiveIncrease
	case newScore < reactiveBelow || !category.Positive():
		return AdjustReactiveDecrease
	default:
		return AdjustNormal
	}
}
