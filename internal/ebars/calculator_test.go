package ebars

import (
	"context"
	"sync"
	"testing"
	"time"
)

// memStore is a minimal in-memory StateStore for unit tests. The production
// implementations live in internal/state.
type memStore struct {
	mu     sync.Mutex
	states map[Key]ComprehensionState
	// failUpdate forces Update to return an error when set.
	failUpdate error
}

func newMemStore() *memStore {
	return &memStore{states: make(map[Key]ComprehensionState)}
}

func (m *memStore) Get(_ context.Context, key Key) (ComprehensionState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[key]
	return st, ok, nil
}

func (m *memStore) Update(_ context.Context, key Key, fn func(*ComprehensionState) error) (ComprehensionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return ComprehensionState{}, m.failUpdate
	}
	st, ok := m.states[key]
	if !ok {
		st = NewState(key, time.Now())
	}
	if err := fn(&st); err != nil {
		return ComprehensionState{}, err
	}
	m.states[key] = st
	return st, nil
}

func testKey() Key { return Key{StudentID: "s1", SessionID: "sess1"} }

func newTestCalculator(t *testing.T) (*Calculator, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewCalculator(store, testLogger(t)), store
}

func TestScoreLazyCreation(t *testing.T) {
	calc, store := newTestCalculator(t)
	ctx := context.Background()

	score, err := calc.Score(ctx, testKey())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score != DefaultScore {
		t.Errorf("Score() = %v, want %v", score, DefaultScore)
	}

	// Lazy creation persisted the default state.
	st, found, _ := store.Get(ctx, testKey())
	if !found {
		t.Fatal("state was not created on first read")
	}
	if st.Level != LevelNormal {
		t.Errorf("initial level = %q, want %q", st.Level, LevelNormal)
	}
}

func TestUpdateScoreFirstExcellent(t *testing.T) {
	// New student, first feedback "excellent": +5 with no dampening at 50.
	calc, _ := newTestCalculator(t)
	ctx := context.Background()

	res, err := calc.UpdateScore(ctx, testKey(), CategoryExcellent)
	if err != nil {
		t.Fatalf("UpdateScore() error = %v", err)
	}
	if res.PreviousScore != 50.0 {
		t.Errorf("PreviousScore = %v, want 50.0", res.PreviousScore)
	}
	if res.NewScore != 55.0 {
		t.Errorf("NewScore = %v, want 55.0", res.NewScore)
	}
	if res.NewLevel != LevelNormal {
		t.Errorf("NewLevel = %q, want %q (hysteresis keeps normal)", res.NewLevel, LevelNormal)
	}
	if res.LevelChanged {
		t.Error("LevelChanged = true, want false")
	}
}

func TestUpdateScoreAdaptiveScaling(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		category  Category
		wantDelta float64
	}{
		{"dampened near ceiling", 72, CategoryExcellent, 5 * 0.7},
		{"boosted near floor", 25, CategoryExcellent, 5 * 1.3},
		{"unscaled mid-range", 50, CategoryConfused, -3},
		{"dampened negative near ceiling", 80, CategoryNegative, -5 * 0.7},
		{"boosted negative near floor", 20, CategoryNegative, -5 * 1.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, store := newTestCalculator(t)
			seedState(store, testKey(), tt.start, ClassifyStatic(tt.start))

			res, err := calc.UpdateScore(context.Background(), testKey(), tt.category)
			if err != nil {
				t.Fatalf("UpdateScore() error = %v", err)
			}
			if res.Delta != tt.wantDelta {
				t.Errorf("Delta = %v, want %v", res.Delta, tt.wantDelta)
			}
		})
	}
}

func TestUpdateScoreClamping(t *testing.T) {
	calc, store := newTestCalculator(t)
	ctx := context.Background()

	// Drive the score to the floor and keep pushing.
	seedState(store, testKey(), 2, LevelVeryStruggling)
	for i := 0; i < 10; i++ {
		res, err := calc.UpdateScore(ctx, testKey(), CategoryNegative)
		if err != nil {
			t.Fatalf("UpdateScore() error = %v", err)
		}
		if res.NewScore < 0 || res.NewScore > 100 {
			t.Fatalf("score escaped [0,100]: %v", res.NewScore)
		}
	}
	if score, _ := calc.Score(ctx, testKey()); score != 0 {
		t.Errorf("floor score = %v, want 0", score)
	}

	// Same at the ceiling.
	seedState(store, testKey(), 99, LevelExcellent)
	for i := 0; i < 10; i++ {
		res, err := calc.UpdateScore(ctx, testKey(), CategoryExcellent)
		if err != nil {
			t.Fatalf("UpdateScore() error = %v", err)
		}
		if res.NewScore > 100 {
			t.Fatalf("score escaped ceiling: %v", res.NewScore)
		}
	}
	if score, _ := calc.Score(ctx, testKey()); score != 100 {
		t.Errorf("ceiling score = %v, want 100", score)
	}
}

func TestHysteresisDeadZone(t *testing.T) {
	// A score oscillating between ~48 and ~52 around the naive 50 boundary
	// must never change the level. This is the regression test against
	// threshold flipping.
	calc, _ := newTestCalculator(t)
	ctx := context.Background()

	// Repeating good,confused,good,confused,good (+2,-3,+2,-3,+2) sums to
	// zero over five events, so the score cycles through 50→52→49→51→48→50
	// indefinitely.
	for i := 0; i < 30; i++ {
		cat := CategoryGood
		if (i%5)%2 == 1 {
			cat = CategoryConfused
		}
		res, err := calc.UpdateScore(ctx, testKey(), cat)
		if err != nil {
			t.Fatalf("UpdateScore() error = %v", err)
		}
		if res.NewLevel != LevelNormal {
			t.Fatalf("step %d: level flipped to %q at score %v", i, res.NewLevel, res.NewScore)
		}
	}
}

func TestOneLevelPerEvent(t *testing.T) {
	// However the score moves, the level after an update is unchanged or
	// exactly adjacent to the previous one.
	calc, store := newTestCalculator(t)
	ctx := context.Background()

	seedState(store, testKey(), 90, LevelExcellent)
	sequence := []Category{
		CategoryNegative, CategoryNegative, CategoryNegative, CategoryNegative,
		CategoryNegative, CategoryNegative, CategoryNegative, CategoryNegative,
		CategoryExcellent, CategoryExcellent, CategoryNegative, CategoryConfused,
	}
	for i, cat := range sequence {
		res, err := calc.UpdateScore(ctx, testKey(), cat)
		if err != nil {
			t.Fatalf("UpdateScore() error = %v", err)
		}
		gap := res.NewLevel.Rank() - res.PreviousLevel.Rank()
		if gap < -1 || gap > 1 {
			t.Fatalf("step %d: level jumped %d bands (%q → %q)", i, gap, res.PreviousLevel, res.NewLevel)
		}
	}
}

func TestConsecutiveNegativesFromGood(t *testing.T) {
	// Student at 72 (good) takes four consecutive negatives. Verifies the
	// per-step dampening, the good→normal down-transition at the 75 exit
	// threshold, and immediate_drop on the third consecutive negative.
	calc, store := newTestCalculator(t)
	ctx := context.Background()
	seedState(store, testKey(), 72, LevelGood)

	steps := []struct {
		wantScore      float64
		wantLevel      Level
		wantAdjustment AdjustmentType
	}{
		// 72 ≥ 70: dampened to -3.5. 68.5 < 75 exits good.
		{68.5, LevelNormal, AdjustReactiveDecrease},
		{63.5, LevelNormal, AdjustReactiveDecrease},
		{58.5, LevelNormal, AdjustImmediateDrop},
		{53.5, LevelNormal, AdjustImmediateDrop},
	}
	for i, want := range steps {
		res, err := calc.UpdateScore(ctx, testKey(), CategoryNegative)
		if err != nil {
			t.Fatalf("step %d: UpdateScore() error = %v", i, err)
		}
		if res.NewScore != want.wantScore {
			t.Errorf("step %d: score = %v, want %v", i, res.NewScore, want.wantScore)
		}
		if res.NewLevel != want.wantLevel {
			t.Errorf("step %d: level = %q, want %q", i, res.NewLevel, want.wantLevel)
		}
		if res.AdjustmentType != want.wantAdjustment {
			t.Errorf("step %d: adjustment = %q, want %q", i, res.AdjustmentType, want.wantAdjustment)
		}
	}
}

func TestImmediateRaiseAfterFourPositives(t *testing.T) {
	calc, _ := newTestCalculator(t)
	ctx := context.Background()

	var last UpdateResult
	for i := 0; i < 4; i++ {
		res, err := calc.UpdateScore(ctx, testKey(), CategoryGood)
		if err != nil {
			t.Fatalf("UpdateScore() error = %v", err)
		}
		last = res
	}
	if last.AdjustmentType != AdjustImmediateRaise {
		t.Errorf("adjustment after 4 positives = %q, want %q", last.AdjustmentType, AdjustImmediateRaise)
	}
}

func TestCounterInvariants(t *testing.T) {
	calc, _ := newTestCalculator(t)
	ctx := context.Background()

	sequence := []Category{
		CategoryExcellent, CategoryGood, CategoryNegative, CategoryConfused,
		CategoryExcellent, CategoryNegative, CategoryGood, CategoryGood,
	}
	prevTotal := 0
	for i, cat := range sequence {
		res, err := calc.UpdateScore(ctx, testKey(), cat)
		if err != nil {
			t.Fatalf("UpdateScore() error = %v", err)
		}
		st := res.State

		if st.TotalFeedback != prevTotal+1 {
			t.Errorf("step %d: total = %d, want %d", i, st.TotalFeedback, prevTotal+1)
		}
		prevTotal = st.TotalFeedback

		if st.PositiveFeedback+st.NegativeFeedback > st.TotalFeedback {
			t.Errorf("step %d: positive+negative (%d) exceeds total (%d)",
				i, st.PositiveFeedback+st.NegativeFeedback, st.TotalFeedback)
		}
		if st.ConsecutivePositive > 0 && st.ConsecutiveNegative > 0 {
			t.Errorf("step %d: both streak counters positive (%d, %d)",
				i, st.ConsecutivePositive, st.ConsecutiveNegative)
		}
	}
}

func TestUnknownCategoryIsNoOp(t *testing.T) {
	calc, _ := newTestCalculator(t)
	ctx := context.Background()

	before, _ := calc.State(ctx, testKey())
	res, err := calc.UpdateScore(ctx, testKey(), Category("shrug"))
	if err != nil {
		t.Fatalf("UpdateScore() error = %v, want nil (unknown category is a no-op)", err)
	}
	if res.NewScore != before.Score {
		t.Errorf("score changed on unknown category: %v → %v", before.Score, res.NewScore)
	}
	after, _ := calc.State(ctx, testKey())
	if after.TotalFeedback != before.TotalFeedback {
		t.Errorf("counters changed on unknown category")
	}
}

func TestIdempotentRead(t *testing.T) {
	calc, _ := newTestCalculator(t)
	ctx := context.Background()

	if _, err := calc.UpdateScore(ctx, testKey(), CategoryGood); err != nil {
		t.Fatalf("UpdateScore() error = %v", err)
	}

	first, err := calc.State(ctx, testKey())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	second, err := calc.State(ctx, testKey())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if first != second {
		t.Errorf("repeated reads differ:\n first = %+v\nsecond = %+v", first, second)
	}
}

// seedState installs a state with a given score and level, bypassing the
// update algorithm.
func seedState(store *memStore, key Key, score float64, level Level) {
	store.mu.Lock()
	defer store.mu.Unlock()
	st := NewState(key, time.Now())
	st.Score = score
	st.Level = level
	store.states[key] = st
}
