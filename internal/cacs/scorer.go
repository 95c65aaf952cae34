// Package cacs implements Conversation-Aware Content Scoring: a stateless
// multi-factor document scorer blending the upstream retrieval score with
// personal, community, and conversational-context signals.
//
// CACS shares no state with the comprehension engine but follows the same
// design rules: weighted blending, normalized feedback, and graceful
// degradation: ranking must never hard-fail because of a scoring bug.
package cacs

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Weights are the four blending factors. They are normalized to sum to 1.0
// at construction.
type Weights struct {
	Base     float64 `json:"base"`
	Personal float64 `json:"personal"`
	Global   float64 `json:"global"`
	Context  float64 `json:"context"`
}

// DefaultWeights returns the tuned production weights.
func DefaultWeights() Weights {
	return Weights{Base: 0.30, Personal: 0.25, Global: 0.25, Context: 0.20}
}

// sum returns the total of the four weights.
func (w Weights) sum() float64 { return w.Base + w.Personal + w.Global + w.Context }

// normalizeTolerance is how far the weight sum may drift from 1.0 before
// auto-normalization kicks in.
const normalizeTolerance = 0.01

// maxContextQueries bounds how much conversation history feeds the context
// score.
const maxContextQueries = 5

// FeedbackSignal is one piece of recorded feedback on a document. Either a
// numeric score (1–5 scale or already in [0,1]) or a categorical value.
type FeedbackSignal struct {
	Score    *float64 `json:"score,omitempty"`
	Category string   `json:"category,omitempty"`
}

// StudentProfile carries the per-student inputs of the personal factor.
// A nil profile means "no information": all personal signals default.
type StudentProfile struct {
	// DifficultyPreference is a stated preference ("struggling",
	// "challenging", ...). Any non-empty value nudges the personal score up.
	DifficultyPreference string

	// SuccessRate is the student's overall success fraction in [0,1].
	SuccessRate float64

	// DocumentFeedback maps document ID to that student's feedback history.
	DocumentFeedback map[string][]FeedbackSignal
}

// GlobalFeedback is the community-wide feedback tally for a document.
type GlobalFeedback struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Result is the per-document score breakdown, returned in full for
// explainability.
type Result struct {
	DocID         string  `json:"doc_id"`
	FinalScore    float64 `json:"final_score"`
	BaseScore     float64 `json:"base_score"`
	PersonalScore float64 `json:"personal_score"`
	GlobalScore   float64 `json:"global_score"`
	ContextScore  float64 `json:"context_score"`
	Weights       Weights `json:"weights"`
	CACSEnabled   bool    `json:"cacs_enabled"`
}

// Scorer blends the four factors. Stateless and safe for concurrent use.
type Scorer struct {
	weights Weights
	logger  *slog.Logger

	// Overridable for fault-injection in tests.
	personalFn func(docID string, profile *StudentProfile) float64
	globalFn   func(docID string, global map[string]GlobalFeedback) float64
}

// NewScorer creates a Scorer. Weights not summing to 1.0 (within 0.01) are
// auto-normalized with a warning; non-positive sums fall back to the
// defaults. A nil logger falls back to slog.Default().
func NewScorer(w Weights, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}

	sum := w.sum()
	switch {
	case sum <= 0:
		logger.Warn("non-positive CACS weights, using defaults", "sum", sum)
		w = DefaultWeights()
	case math.Abs(sum-1.0) > normalizeTolerance:
		logger.Warn("normalizing CACS weights", "sum", fmt.Sprintf("%.3f", sum))
		w = Weights{
			Base:     w.Base / sum,
			Personal: w.Personal / sum,
			Global:   w.Global / sum,
			Context:  w.Context / sum,
		}
	}

	s := &Scorer{weights: w, logger: logger}
	s.personalFn = s.personalScore
	s.globalFn = s.globalScore
	return s
}

// Weights returns the normalized weights in use.
func (s *Scorer) Weights() Weights { return s.weights }

// Score computes the blended score for one document.
//
// baseScore is passed through as-is (already computed by upstream
// retrieval); the final score is the clamped weighted sum of the four
// factors. Any internal fault degrades to returning baseScore with weights
// (1,0,0,0) and CACSEnabled=false instead of propagating.
func (s *Scorer) Score(docID string, baseScore float64, profile *StudentProfile, history []string, global map[string]GlobalFeedback, query string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CACS scoring fault, degrading to base score",
				"doc_id", docID, "panic", r)
			result = Result{
				DocID:       docID,
				FinalScore:  clamp01(baseScore),
				BaseScore:   baseScore,
				Weights:     Weights{Base: 1},
				CACSEnabled: false,
			}
		}
	}()

	personal := s.personalFn(docID, profile)
	globalScore := s.globalFn(docID, global)
	context := s.contextScore(query, history)

	final := s.weights.Base*baseScore +
		s.weights.Personal*personal +
		s.weights.Global*globalScore +
		s.weights.Context*context

	return Result{
		DocID:         docID,
		FinalScore:    clamp01(final),
		BaseScore:     baseScore,
		PersonalScore: personal,
		GlobalScore:   globalScore,
		ContextScore:  context,
		Weights:       s.weights,
		CACSEnabled:   true,
	}
}

// personalScore averages the student's normalized feedback for the
// document, defaulting to 0.5 with no history. Students with a stated
// difficulty preference are boosted ×1.1, and students with an overall
// success rate above 0.7 another ×1.05. Recently-successful students are
// nudged toward slightly more challenging material at the ranking level,
// not only the prompt level. Capped at 1.0.
func (s *Scorer) personalScore(docID string, profile *StudentProfile) float64 {
	score := 0.5
	if profile == nil {
		return score
	}

	if signals := profile.DocumentFeedback[docID]; len(signals) > 0 {
		total := 0.0
		for _, sig := range signals {
			total += normalizeFeedback(sig)
		}
		score = total / float64(len(signals))
	}

	if profile.DifficultyPreference != "" {
		score *= 1.1
	}
	if profile.SuccessRate > 0.7 {
		score *= 1.05
	}
	return math.Min(score, 1.0)
}

// globalScore computes the community positive ratio, confidence-weighted
// toward 0.5 when the tally is small: a document with one piece of feedback
// must not rank as confidently as one with fifty.
func (s *Scorer) globalScore(docID string, global map[string]GlobalFeedback) float64 {
	fb, ok := global[docID]
	total := fb.Positive + fb.Negative
	if !ok || total == 0 {
		return 0.5
	}

	ratio := float64(fb.Positive) / float64(total)
	confidence := math.Min(float64(total)/10.0, 1.0)
	return 0.5 + (ratio-0.5)*confidence
}

// contextScore measures topical continuity: Jaccard word overlap between
// the current query and each of the last five queries, averaged and
// rescaled into [0.5, 1.0]. 0.5 means no detectable continuity.
func (s *Scorer) contextScore(query string, history []string) float64 {
	if len(history) == 0 || query == "" {
		return 0.5
	}
	if len(history) > maxContextQueries {
		history = history[len(history)-maxContextQueries:]
	}

	current := wordSet(query)
	total := 0.0
	for _, prev := range history {
		total += jaccard(current, wordSet(prev))
	}
	avg := total / float64(len(history))
	return 0.5 + avg*0.5
}

// Normalize maps a raw feedback signal into [0,1]. Exposed for callers
// that tally feedback polarity outside the scorer.
func Normalize(sig FeedbackSignal) float64 { return normalizeFeedback(sig) }

// normalizeFeedback maps a raw feedback signal into [0,1]:
// numeric 1–5 → linear map, numeric already in [0,1] → pass-through,
// out-of-range numeric → clamp, known categories → fixed table,
// anything else → 0.5 neutral.
func normalizeFeedback(sig FeedbackSignal) float64 {
	if sig.Score != nil {
		v := *sig.Score
		switch {
		case v >= 0 && v <= 1:
			return v
		case v >= 1 && v <= 5:
			return (v - 1) / 4
		case v < 0:
			return 0
		default:
			return 1
		}
	}

	switch sig.Category {
	case "excellent":
		return 1.0
	case "good":
		return 0.7
	case "confused":
		return 0.2
	case "negative":
		return 0.0
	default:
		return 0.5
	}
}

// wordSet tokenizes a query into a lowercase word set.
func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// jaccard computes |a∩b| / |a∪b| for two word sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// clamp01 keeps a score inside [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
