// Package personalize composes the comprehension engine, the pedagogical
// monitors, and the language model into the answer-personalization
// pipeline: classify the query, build the adaptive prompt, generate, then
// post-process the answer for cognitive load.
package personalize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/egitsel/aprag/internal/ebars"
	"github.com/egitsel/aprag/internal/pedagogy"
)

// Generator produces an answer from a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Request is one personalization call.
type Request struct {
	StudentID string `json:"student_id"`
	SessionID string `json:"session_id"`
	Query     string `json:"query"`

	// OriginalResponse, when set, is rewritten for the student's level
	// instead of answering the query from scratch.
	OriginalResponse string `json:"original_response,omitempty"`

	// Context is optional retrieved material prepended to the prompt.
	Context string `json:"context,omitempty"`

	// Interactions feed the ZPD assessment. Empty means no history.
	Interactions []pedagogy.Interaction `json:"interactions,omitempty"`
}

// Response is the personalized answer with the pedagogical breakdown that
// produced it.
type Response struct {
	Answer string      `json:"answer"`
	Score  float64     `json:"score"`
	Level  ebars.Level `json:"level"`

	Bloom pedagogy.BloomResult   `json:"bloom"`
	ZPD   pedagogy.ZPDAssessment `json:"zpd"`
	Load  pedagogy.LoadEstimate  `json:"load"`

	// Chunks is the answer split for progressive delivery when the load
	// estimate called for simplification. Single-element otherwise.
	Chunks []string `json:"chunks,omitempty"`
}

// chunkWords is the per-chunk word budget applied when an answer needs
// simplification.
const chunkWords = 150

// Service runs the personalization pipeline.
type Service struct {
	handler   *ebars.Handler
	monitors  pedagogy.Monitors
	generator Generator
	logger    *slog.Logger
}

// NewService wires the pipeline. Nil monitors are replaced by no-ops; a
// nil logger falls back to slog.Default().
func NewService(handler *ebars.Handler, monitors pedagogy.Monitors, generator Generator, logger *slog.Logger) *Service {
	if monitors.ZPD == nil {
		monitors.ZPD = pedagogy.NopZPD{}
	}
	if monitors.Bloom == nil {
		monitors.Bloom = pedagogy.NopBloom{}
	}
	if monitors.Load == nil {
		monitors.Load = pedagogy.NopLoad{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		handler:   handler,
		monitors:  monitors,
		generator: generator,
		logger:    logger,
	}
}

// Personalize answers (or rewrites) for the student at their current
// difficulty level. A ZPD step recommendation overrides the level one step
// in the advised direction before the prompt is built.
func (s *Service) Personalize(ctx context.Context, req Request) (Response, error) {
	if req.Query == "" {
		return Response{}, fmt.Errorf("query must not be empty")
	}
	key := ebars.Key{StudentID: req.StudentID, SessionID: req.SessionID}

	snapshot, err := s.handler.CurrentState(ctx, key)
	if err != nil {
		return Response{}, fmt.Errorf("loading comprehension state: %w", err)
	}

	bloom := s.monitors.Bloom.Detect(req.Query)
	zpd := s.monitors.ZPD.Assess(req.Interactions)

	override := levelOverride(snapshot.Level, zpd.Recommendation)
	if override != nil {
		s.logger.Info("ZPD level override",
			"key", key.String(), "from", snapshot.Level, "to", *override,
			"success_rate", zpd.SuccessRate)
	}

	system, err := s.handler.GenerateAdaptivePrompt(ctx, key, req.Query, req.OriginalResponse, override)
	if err != nil {
		return Response{}, fmt.Errorf("building adaptive prompt: %w", err)
	}

	prompt := req.Query
	if req.Context != "" {
		prompt = fmt.Sprintf("## Reference material\n%s\n\n## Question\n%s", req.Context, req.Query)
	}

	answer, err := s.generator.Generate(ctx, system, prompt)
	if err != nil {
		return Response{}, fmt.Errorf("generating answer: %w", err)
	}

	load := s.monitors.Load.Estimate(answer)
	chunks := []string{answer}
	if load.NeedsSimplification {
		chunks = s.monitors.Load.Chunk(answer, chunkWords)
		s.logger.Debug("chunked heavy answer",
			"key", key.String(), "load", load.Total, "chunks", len(chunks))
	}

	level := snapshot.Level
	if override != nil {
		level = *override
	}
	return Response{
		Answer: answer,
		Score:  snapshot.Score,
		Level:  level,
		Bloom:  bloom,
		ZPD:    zpd,
		Load:   load,
		Chunks: chunks,
	}, nil
}

// levelOverride maps a ZPD recommendation onto the difficulty ladder,
// returning nil when the level should stand. Moves past either end of the
// ladder are dropped.
func levelOverride(current ebars.Level, dir pedagogy.Direction) *ebars.Level {
	if dir == pedagogy.Hold {
		return nil
	}
	rank := current.Rank()
	if rank < 0 {
		return nil
	}
	next := rank + int(dir)
	if next < 0 || next >= len(ebars.Levels) {
		return nil
	}
	level := ebars.Levels[next]
	return &level
}
