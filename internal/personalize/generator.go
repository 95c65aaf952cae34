package personalize

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitGenerator is the production Generator backed by a Genkit model.
type GenkitGenerator struct {
	g     *genkit.Genkit
	model ai.Model
}

// NewGenkitGenerator creates a generator for the given model.
func NewGenkitGenerator(g *genkit.Genkit, model ai.Model) *GenkitGenerator {
	return &GenkitGenerator{g: g, model: model}
}

// Generate implements Generator.
func (gg *GenkitGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModel(gg.model),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("model generation failed: %w", err)
	}
	return resp.Text(), nil
}
