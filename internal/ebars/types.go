package ebars

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category is a canonical feedback category. The HTTP layer maps raw emoji
// to one of these before calling into the core.
type Category string

const (
	CategoryExcellent Category = "excellent" // 👍 fully understood
	CategoryGood      Category = "good"      // 😊 mostly understood
	CategoryConfused  Category = "confused"  // 😐 partially lost
	CategoryNegative  Category = "negative"  // ❌ did not understand
)

// baseDeltas maps each category to its raw score delta. Positive feedback
// moves the score faster than negative feedback lowers it: encouragement
// should dominate over discouragement for sustained engagement.
var baseDeltas = map[Category]float64{
	CategoryExcellent: +5,
	CategoryGood:      +2,
	CategoryConfused:  -3,
	CategoryNegative:  -5,
}

// categoryEmoji maps the emoji shown in the UI to canonical categories.
var categoryEmoji = map[string]Category{
	"👍": CategoryExcellent,
	"😊": CategoryGood,
	"😐": CategoryConfused,
	"❌": CategoryNegative,
}

// ParseCategory resolves a raw feedback value (category name or emoji) to a
// canonical Category. The boolean reports whether the value was recognized.
func ParseCategory(raw string) (Category, bool) {
	if c, ok := categoryEmoji[raw]; ok {
		return c, true
	}
	c := Category(raw)
	_, ok := baseDeltas[c]
	return c, ok
}

// Positive reports whether the category is an encouraging signal.
func (c Category) Positive() bool {
	return c == CategoryExcellent || c == CategoryGood
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	_, ok := baseDeltas[c]
	return ok
}

// Key identifies the comprehension state of one student within one session.
type Key struct {
	StudentID string
	SessionID string
}

// String renders the key in student:session form for logging.
func (k Key) String() string { return fmt.Sprintf("%s:%s", k.StudentID, k.SessionID) }

// DefaultScore is the comprehension score assigned to a brand-new state.
const DefaultScore = 50.0

// ComprehensionState is the persistent record the score algorithm operates
// on. It is created lazily with defaults on first access and mutated only by
// Calculator.UpdateScore. The feedback history is a side-effect log; the
// score itself is the only state the algorithm depends on.
type ComprehensionState struct {
	StudentID string
	SessionID string

	Score float64
	Level Level

	// Mutually exclusive streak counters: incrementing one resets the other.
	ConsecutivePositive int
	ConsecutiveNegative int

	TotalFeedback    int
	PositiveFeedback int
	NegativeFeedback int

	CreatedAt      time.Time
	LastFeedbackAt time.Time
}

// NewState returns the default state for a key: score 50.0 classified by the
// static table (normal).
func NewState(key Key, now time.Time) ComprehensionState {
	return ComprehensionState{
		StudentID: key.StudentID,
		SessionID: key.SessionID,
		Score:     DefaultScore,
		Level:     ClassifyStatic(DefaultScore),
		CreatedAt: now,
	}
}

// AdjustmentType classifies an update for analytics and monitoring.
type AdjustmentType string

const (
	AdjustImmediateDrop     AdjustmentType = "immediate_drop"     // ≥3 consecutive negatives
	AdjustImmediateRaise    AdjustmentType = "immediate_raise"    // ≥4 consecutive positives
	AdjustProactiveIncrease AdjustmentType = "proactive_increase" // high score, positive feedback
	AdjustReactiveDecrease  AdjustmentType = "reactive_decrease"  // low score or negative feedback
	AdjustNormal            AdjustmentType = "normal_update"
)

// UpdateResult describes a single score update.
type UpdateResult struct {
	Category       Category
	PreviousScore  float64
	Delta          float64
	NewScore       float64
	PreviousLevel  Level
	NewLevel       Level
	LevelChanged   bool
	AdjustmentType AdjustmentType
	State          ComprehensionState
}

// FeedbackEvent is the append-only audit record emitted after each processed
// feedback. It is never read back into the score computation.
type FeedbackEvent struct {
	ID             uuid.UUID      `json:"id"`
	StudentID      string         `json:"student_id"`
	SessionID      string         `json:"session_id"`
	InteractionID  string         `json:"interaction_id,omitempty"`
	Category       Category       `json:"category"`
	PreviousScore  float64        `json:"previous_score"`
	Delta          float64        `json:"score_delta"`
	NewScore       float64        `json:"new_score"`
	PreviousLevel  Level          `json:"previous_difficulty"`
	NewLevel       Level          `json:"new_difficulty"`
	LevelChanged   bool           `json:"difficulty_changed"`
	AdjustmentType AdjustmentType `json:"adjustment_type"`
	CreatedAt      time.Time      `json:"created_at"`
}

// FeedbackResult is what Handler.ProcessFeedback returns to the API layer.
type FeedbackResult struct {
	Update     UpdateResult
	Parameters DifficultyParameters
	Event      FeedbackEvent
}

// StateSnapshot is the read-only view returned by Handler.CurrentState.
type StateSnapshot struct {
	Key        Key
	Score      float64
	Level      Level
	Parameters DifficultyParameters
	Statistics FeedbackStatistics
}

// FeedbackStatistics summarizes the counters of a state.
type FeedbackStatistics struct {
	Total               int       `json:"total"`
	Positive            int       `json:"positive"`
	Negative            int       `json:"negative"`
	ConsecutivePositive int       `json:"consecutive_positive"`
	ConsecutiveNegative int       `json:"consecutive_negative"`
	LastFeedbackAt      time.Time `json:"last_feedback_at"`
}

// StateStore abstracts comprehension-state persistence. Implementations must
// serialize Update calls for the same key (per-key lock or transactional
// read-modify-write); updates for different keys are independent.
//
// Interface defined here by the consumer; implementations live in
// internal/state.
type StateStore interface {
	// Get returns the state for key. The boolean reports whether the key
	// existed; a missing key is not an error.
	Get(ctx context.Context, key Key) (ComprehensionState, bool, error)

	// Update atomically applies fn to the state for key, creating the
	// default state first if the key is new, and persists the result.
	Update(ctx context.Context, key Key, fn func(*ComprehensionState) error) (ComprehensionState, error)
}

// EventRecorder receives audit events. Persistence is an external concern:
// the core only emits.
type EventRecorder interface {
	Record(ctx context.Context, ev FeedbackEvent) error
}

// NopRecorder discards events. Used when audit logging is disabled.
type NopRecorder struct{}

// Record implements EventRecorder.
func (NopRecorder) Record(context.Context, FeedbackEvent) error { return nil }
