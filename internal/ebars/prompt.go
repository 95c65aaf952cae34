package ebars

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// difficultyStrategies holds the difficulty-specific instruction block per
// level. The wording is deliberately verbose and imperative: the consuming
// model is a general-purpose chat model, so prompt engineering substitutes
// for fine-tuning.
var difficultyStrategies = map[Level]string{
	LevelVeryStruggling: `The student is struggling severely with this material.
- You MUST explain everything from first principles, assuming no prior knowledge.
- You MUST break the answer into small numbered steps, one idea per step.
- You MUST use everyday analogies to anchor each new concept.
- You MUST keep every sentence short (roughly 8-12 words).
- Do NOT use technical vocabulary; replace it with plain language.`,
	LevelStruggling: `The student is having difficulty with this material.
- You MUST simplify the explanation and move slowly from known to unknown.
- You MUST define every technical term immediately when it appears.
- You MUST include two or three concrete examples.
- Prefer short sentences (roughly 10-15 words) and an encouraging tone.`,
	LevelNormal: `The student has an average grasp of this material.
- Give a balanced explanation: neither oversimplified nor dense.
- Define technical terms on first use, then use them normally.
- Include one or two examples where they clarify the point.
- Target medium-length sentences (roughly 12-18 words).`,
	LevelGood: `The student understands this material well.
- Be concise; skip introductory background the student already has.
- Use technical vocabulary freely without definitions.
- Include at most one example, and only if it adds real value.
- Longer, information-dense sentences (roughly 15-22 words) are appropriate.`,
	LevelExcellent: `The student has mastered this material.
- Answer at an academic register with full technical precision.
- Do NOT include examples, analogies, or scaffolding of any kind.
- Do NOT simplify; prefer depth, edge cases, and connections to adjacent topics.
- Long technical sentences (roughly 18-30 words) are appropriate.`,
}

// detailStrategies holds the detail-level instruction block.
var detailStrategies = map[DetailLevel]string{
	DetailVeryHigh: "Provide maximum detail: unpack every intermediate step and state the obvious explicitly.",
	DetailHigh:     "Provide generous detail: explain the reasoning behind each claim, not only the claim.",
	DetailBalanced: "Provide balanced detail: explain the core reasoning and omit peripheral tangents.",
	DetailLow:      "Keep detail low: state the key points and trust the student to fill in routine steps.",
	DetailMinimal:  "Keep detail minimal: deliver the essential content only, with no padding.",
}

// exampleStrategies holds the example-count instruction block.
var exampleStrategies = map[ExamplePolicy]string{
	ExamplesMany:     "Include at least three worked examples drawn from everyday situations.",
	ExamplesSeveral:  "Include two or three concrete examples.",
	ExamplesModerate: "Include one or two examples where they genuinely clarify the point.",
	ExamplesFew:      "Include at most one example, and only if it adds value beyond the explanation.",
	ExamplesNone:     "Do not include examples unless the student explicitly asks for one.",
}

// PromptAdapter renders natural-language instruction blocks for a difficulty
// level. Rendering is pure templating: no state, no side effects,
// deterministic given the parameters.
type PromptAdapter struct {
	calc   *Calculator
	logger *slog.Logger
}

// NewPromptAdapter creates a PromptAdapter resolving difficulty through the
// given calculator. A nil logger falls back to slog.Default().
func NewPromptAdapter(calc *Calculator, logger *slog.Logger) *PromptAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PromptAdapter{calc: calc, logger: logger}
}

// Parameters resolves the difficulty parameters for key. A non-nil override
// bypasses the calculator. On a resolution fault the adapter degrades to the
// normal-level row rather than failing the caller.
func (a *PromptAdapter) Parameters(ctx context.Context, key Key, override *Level) (DifficultyParameters, error) {
	if override != nil {
		p, err := ParametersFor(*override)
		if err != nil {
			a.logger.Warn("unknown difficulty override, using normal",
				"key", key.String(), "override", string(*override))
			return DefaultParameters(), nil
		}
		return p, nil
	}

	level, err := a.calc.CurrentLevel(ctx, key)
	if err != nil {
		a.logger.Warn("failed to resolve difficulty, using normal",
			"key", key.String(), "error", err)
		return DefaultParameters(), nil
	}
	p, err := ParametersFor(level)
	if err != nil {
		return DefaultParameters(), nil
	}
	return p, nil
}

// RenderInstructions produces the structured instruction block for a
// parameter row. Three subsections are looked up independently (difficulty
// strategy, detail strategy, example strategy) because the parameter table
// varies these axes independently.
func (a *PromptAdapter) RenderInstructions(p DifficultyParameters) string {
	var b strings.Builder

	b.WriteString("## Adaptation strategy\n")
	b.WriteString(difficultyStrategies[p.Level])
	b.WriteString("\n\n## Detail level\n")
	b.WriteString(detailStrategies[p.Detail])
	b.WriteString("\n\n## Examples\n")
	b.WriteString(exampleStrategies[p.Examples])

	if p.StepByStep {
		b.WriteString("\n\nFormat the core of the answer as numbered steps.")
	}
	if p.UseAnalogies {
		b.WriteString("\nAnchor abstract concepts with everyday analogies.")
	}

	return b.String()
}

// RenderAdaptivePrompt composes the instruction block with an optional
// caller-supplied base prompt. Used when no original response exists yet to
// adapt.
func (a *PromptAdapter) RenderAdaptivePrompt(ctx context.Context, key Key, basePrompt string) (string, error) {
	params, err := a.Parameters(ctx, key, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("You are answering a student currently at the %q difficulty level.\n\n", params.Level))
	b.WriteString(a.RenderInstructions(params))
	if basePrompt != "" {
		b.WriteString("\n\n## Task\n")
		b.WriteString(basePrompt)
	}
	return b.String(), nil
}
