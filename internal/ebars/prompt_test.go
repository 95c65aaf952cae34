package ebars

import (
	"context"
	"strings"
	"testing"
)

func newTestAdapter(t *testing.T) (*PromptAdapter, *memStore) {
	t.Helper()
	store := newMemStore()
	calc := NewCalculator(store, testLogger(t))
	return NewPromptAdapter(calc, testLogger(t)), store
}

func TestRenderInstructionsDeterministic(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	p := DefaultParameters()

	first := adapter.RenderInstructions(p)
	second := adapter.RenderInstructions(p)
	if first != second {
		t.Error("RenderInstructions is not deterministic")
	}
	if first == "" {
		t.Fatal("RenderInstructions returned empty text")
	}
}

func TestRenderInstructionsDistinctPerLevel(t *testing.T) {
	// The three strategy axes are varied independently by the parameter
	// table; every level must therefore render distinct instruction text.
	adapter, _ := newTestAdapter(t)

	seen := make(map[string]Level)
	for _, lvl := range Levels {
		p, err := ParametersFor(lvl)
		if err != nil {
			t.Fatalf("ParametersFor(%q) error = %v", lvl, err)
		}
		text := adapter.RenderInstructions(p)
		if other, dup := seen[text]; dup {
			t.Errorf("levels %q and %q render identical instructions", lvl, other)
		}
		seen[text] = lvl

		for _, section := range []string{"## Adaptation strategy", "## Detail level", "## Examples"} {
			if !strings.Contains(text, section) {
				t.Errorf("%q instructions missing section %q", lvl, section)
			}
		}
	}
}

func TestParametersOverride(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	lvl := LevelExcellent
	p, err := adapter.Parameters(ctx, testKey(), &lvl)
	if err != nil {
		t.Fatalf("Parameters() error = %v", err)
	}
	if p.Level != LevelExcellent {
		t.Errorf("override ignored: level = %q", p.Level)
	}

	// Unknown override degrades to normal rather than failing.
	bad := Level("bogus")
	p, err = adapter.Parameters(ctx, testKey(), &bad)
	if err != nil {
		t.Fatalf("Parameters() with bad override error = %v", err)
	}
	if p.Level != LevelNormal {
		t.Errorf("bad override fallback = %q, want %q", p.Level, LevelNormal)
	}
}

func TestRenderAdaptivePromptComposesBase(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	prompt, err := adapter.RenderAdaptivePrompt(ctx, testKey(), "Explain photosynthesis.")
	if err != nil {
		t.Fatalf("RenderAdaptivePrompt() error = %v", err)
	}
	if !strings.Contains(prompt, "Explain photosynthesis.") {
		t.Error("base prompt not included")
	}
	if !strings.Contains(prompt, string(LevelNormal)) {
		t.Error("difficulty level not mentioned for a fresh student")
	}
}
