package personalize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/egitsel/aprag/internal/ebars"
	"github.com/egitsel/aprag/internal/log"
	"github.com/egitsel/aprag/internal/pedagogy"
	"github.com/egitsel/aprag/internal/state"
)

type stubGenerator struct {
	answer string
	err    error

	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = prompt
	return s.answer, s.err
}

func newTestService(gen Generator, monitors pedagogy.Monitors) (*Service, *ebars.Handler) {
	logger := log.NewNop()
	calc := ebars.NewCalculator(state.NewMemoryStore(), logger)
	adapter := ebars.NewPromptAdapter(calc, logger)
	handler := ebars.NewHandler(calc, adapter, nil, logger)
	return NewService(handler, monitors, gen, logger), handler
}

func TestPersonalizeAnswersQuery(t *testing.T) {
	gen := &stubGenerator{answer: "Cells are the smallest living units."}
	svc, _ := newTestService(gen, pedagogy.Monitors{
		ZPD:   pedagogy.NewZPD(),
		Bloom: pedagogy.NewBloom(),
		Load:  pedagogy.NewLoad(),
	})

	resp, err := svc.Personalize(context.Background(), Request{
		StudentID: "s1", SessionID: "sess", Query: "Explain what a cell is.",
	})
	if err != nil {
		t.Fatalf("Personalize() error = %v", err)
	}
	if resp.Answer != gen.answer {
		t.Errorf("Answer = %q, want generator output", resp.Answer)
	}
	if resp.Score != ebars.DefaultScore {
		t.Errorf("Score = %v, want default %v", resp.Score, ebars.DefaultScore)
	}
	if resp.Level != ebars.LevelNormal {
		t.Errorf("Level = %q, want normal for a fresh student", resp.Level)
	}
	if resp.Bloom.Level != pedagogy.BloomUnderstand {
		t.Errorf("Bloom.Level = %q, want understand for an explain query", resp.Bloom.Level)
	}
	if len(resp.Chunks) != 1 || resp.Chunks[0] != gen.answer {
		t.Errorf("Chunks = %v, want the single unsplit answer", resp.Chunks)
	}
	if gen.lastSystem == "" {
		t.Error("generator received no system prompt")
	}
}

func TestPersonalizeEmptyQuery(t *testing.T) {
	svc, _ := newTestService(&stubGenerator{}, pedagogy.Monitors{})
	if _, err := svc.Personalize(context.Background(), Request{StudentID: "s1", SessionID: "x"}); err == nil {
		t.Fatal("Personalize() error = nil, want rejection of empty query")
	}
}

func TestPersonalizeGeneratorFailure(t *testing.T) {
	svc, _ := newTestService(&stubGenerator{err: errors.New("model offline")}, pedagogy.Monitors{})
	_, err := svc.Personalize(context.Background(), Request{
		StudentID: "s1", SessionID: "x", Query: "why",
	})
	if err == nil {
		t.Fatal("Personalize() error = nil, want generator error")
	}
}

func TestPersonalizeIncludesContext(t *testing.T) {
	gen := &stubGenerator{answer: "ok"}
	svc, _ := newTestService(gen, pedagogy.Monitors{})

	_, err := svc.Personalize(context.Background(), Request{
		StudentID: "s1", SessionID: "x",
		Query:   "What is osmosis?",
		Context: "Osmosis is diffusion of water.",
	})
	if err != nil {
		t.Fatalf("Personalize() error = %v", err)
	}
	if !strings.Contains(gen.lastPrompt, "Reference material") ||
		!strings.Contains(gen.lastPrompt, "Osmosis is diffusion of water.") {
		t.Errorf("prompt missing retrieved context:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "What is osmosis?") {
		t.Errorf("prompt missing the question:\n%s", gen.lastPrompt)
	}
}

func TestPersonalizeZPDStepUp(t *testing.T) {
	gen := &stubGenerator{answer: "ok"}
	svc, _ := newTestService(gen, pedagogy.Monitors{ZPD: pedagogy.NewZPD()})

	// High success on hard material recommends stepping up from normal.
	interactions := make([]pedagogy.Interaction, 10)
	for i := range interactions {
		interactions[i] = pedagogy.Interaction{Positive: true, Difficulty: 0.8}
	}

	resp, err := svc.Personalize(context.Background(), Request{
		StudentID: "s1", SessionID: "x", Query: "harder please",
		Interactions: interactions,
	})
	if err != nil {
		t.Fatalf("Personalize() error = %v", err)
	}
	if resp.ZPD.Recommendation != pedagogy.StepUp {
		t.Fatalf("ZPD.Recommendation = %v, want StepUp", resp.ZPD.Recommendation)
	}
	if resp.Level != ebars.LevelGood {
		t.Errorf("Level = %q, want good after a one-step override from normal", resp.Level)
	}
}

func TestPersonalizeChunksHeavyAnswer(t *testing.T) {
	// A long answer of long words trips the load estimator and gets split.
	heavy := strings.TrimSpace(strings.Repeat("thermodynamically ", 200)) +
		"\n\n" + strings.TrimSpace(strings.Repeat("thermodynamically ", 200))
	gen := &stubGenerator{answer: heavy}
	svc, _ := newTestService(gen, pedagogy.Monitors{Load: pedagogy.NewLoad()})

	resp, err := svc.Personalize(context.Background(), Request{
		StudentID: "s1", SessionID: "x", Query: "explain entropy",
	})
	if err != nil {
		t.Fatalf("Personalize() error = %v", err)
	}
	if !resp.Load.NeedsSimplification {
		t.Fatal("Load.NeedsSimplification = false, want true for heavy answer")
	}
	if len(resp.Chunks) < 2 {
		t.Errorf("Chunks = %d pieces, want the answer split", len(resp.Chunks))
	}
}

func TestLevelOverride(t *testing.T) {
	tests := []struct {
		name    string
		current ebars.Level
		dir     pedagogy.Direction
		want    *ebars.Level
	}{
		{"hold returns nil", ebars.LevelNormal, pedagogy.Hold, nil},
		{"step up from normal", ebars.LevelNormal, pedagogy.StepUp, levelPtr(ebars.LevelGood)},
		{"step down from normal", ebars.LevelNormal, pedagogy.StepDown, levelPtr(ebars.LevelStruggling)},
		{"step up from excellent capped", ebars.LevelExcellent, pedagogy.StepUp, nil},
		{"step down from very_struggling capped", ebars.LevelVeryStruggling, pedagogy.StepDown, nil},
		{"unknown level", ebars.Level("weird"), pedagogy.StepUp, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := levelOverride(tt.current, tt.dir)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("levelOverride() = %q, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("levelOverride() = nil, want %q", *tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("levelOverride() = %q, want %q", *got, *tt.want)
			}
		})
	}
}

func levelPtr(l ebars.Level) *ebars.Level { return &l }
