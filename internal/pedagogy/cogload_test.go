package pedagogy

import (
	"strings"
	"testing"
)

func TestEstimateEmptyText(t *testing.T) {
	got := NewLoad().Estimate("")
	if got.Total != 0 || got.NeedsSimplification {
		t.Errorf("Estimate(\"\") = %+v, want zero load", got)
	}
}

func TestEstimateShortSimpleText(t *testing.T) {
	got := NewLoad().Estimate("The cat sat. The dog ran.")
	if got.NeedsSimplification {
		t.Errorf("short simple text flagged for simplification: %+v", got)
	}
	if got.Total <= 0 {
		t.Errorf("Total = %v, want > 0 for non-empty text", got.Total)
	}
	if got.WordCount != 6 {
		t.Errorf("WordCount = %d, want 6", got.WordCount)
	}
}

func TestEstimateDenseTextNeedsSimplification(t *testing.T) {
	// One long unpunctuated sentence of long words: every factor saturates.
	words := make([]string, 600)
	for i := range words {
		words[i] = "thermodynamically"
	}
	got := NewLoad().Estimate(strings.Join(words, " "))

	if got.LengthLoad != 1.0 || got.ComplexityLoad != 1.0 || got.TechnicalLoad != 1.0 {
		t.Errorf("saturated loads = %v/%v/%v, want 1/1/1",
			got.LengthLoad, got.ComplexityLoad, got.TechnicalLoad)
	}
	if got.Total != 1.0 {
		t.Errorf("Total = %v, want 1.0", got.Total)
	}
	if !got.NeedsSimplification {
		t.Error("dense text not flagged for simplification")
	}
}

func TestEstimateBlendWeights(t *testing.T) {
	// A text saturating only the length factor contributes exactly its 0.4
	// weight when the other factors are near zero... verified by bounds.
	short := NewLoad().Estimate("Go is fun.")
	if short.Total >= simplificationAbove {
		t.Errorf("trivial text total = %v, want well under %v", short.Total, simplificationAbove)
	}
}

func TestChunkParagraphAligned(t *testing.T) {
	l := NewLoad()

	paragraph := strings.Repeat("word ", 40) // 40 words
	text := strings.TrimSpace(paragraph) + "\n\n" + strings.TrimSpace(paragraph) + "\n\n" + strings.TrimSpace(paragraph)

	chunks := l.Chunk(text, 90)
	if len(chunks) != 2 {
		t.Fatalf("Chunk() produced %d chunks, want 2", len(chunks))
	}
	// First chunk holds two paragraphs (80 words), second the rest.
	if got := len(strings.Fields(chunks[0])); got != 80 {
		t.Errorf("first chunk = %d words, want 80", got)
	}
	if got := len(strings.Fields(chunks[1])); got != 40 {
		t.Errorf("second chunk = %d words, want 40", got)
	}
}

func TestChunkOversizedParagraphKeptWhole(t *testing.T) {
	l := NewLoad()

	big := strings.TrimSpace(strings.Repeat("word ", 100))
	chunks := l.Chunk(big+"\n\nshort tail", 50)
	if len(chunks) != 2 {
		t.Fatalf("Chunk() produced %d chunks, want 2", len(chunks))
	}
	if got := len(strings.Fields(chunks[0])); got != 100 {
		t.Errorf("oversized paragraph split: %d words in first chunk", got)
	}
}

func TestChunkNoBudgetReturnsWhole(t *testing.T) {
	chunks := NewLoad().Chunk("anything at all", 0)
	if len(chunks) != 1 || chunks[0] != "anything at all" {
		t.Errorf("Chunk(.., 0) = %v, want the original text", chunks)
	}
}

func TestNopLoadNeutral(t *testing.T) {
	if got := (NopLoad{}).Estimate(strings.Repeat("thermodynamically ", 600)); got.Total != 0 {
		t.Errorf("NopLoad.Estimate() total = %v, want 0", got.Total)
	}
	if got := (NopLoad{}).Chunk("abc", 1); len(got) != 1 || got[0] != "abc" {
		t.Errorf("NopLoad.Chunk() = %v, want [abc]", got)
	}
}
