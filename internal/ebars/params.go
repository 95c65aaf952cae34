package ebars

import "fmt"

// DetailLevel controls how much explanatory depth the model should produce.
type DetailLevel string

const (
	DetailVeryHigh DetailLevel = "very_high"
	DetailHigh     DetailLevel = "high"
	DetailBalanced DetailLevel = "balanced"
	DetailLow      DetailLevel = "low"
	DetailMinimal  DetailLevel = "minimal"
)

// ExamplePolicy controls how many worked examples the model should include.
type ExamplePolicy string

const (
	ExamplesMany     ExamplePolicy = "many"     // 3+ examples, everyday analogies
	ExamplesSeveral  ExamplePolicy = "several"  // 2-3 examples
	ExamplesModerate ExamplePolicy = "moderate" // 1-2 examples
	ExamplesFew      ExamplePolicy = "few"      // at most 1, only if it adds value
	ExamplesNone     ExamplePolicy = "none"     // no examples unless asked
)

// ExplanationStyle names the overall register of the answer.
type ExplanationStyle string

const (
	StyleStepByStep ExplanationStyle = "step_by_step"
	StyleSimplified ExplanationStyle = "simplified"
	StyleBalanced   ExplanationStyle = "balanced"
	StyleConcise    ExplanationStyle = "concise"
	StyleAcademic   ExplanationStyle = "academic"
)

// TermPolicy controls how technical vocabulary is handled.
type TermPolicy string

const (
	TermsAvoid      TermPolicy = "avoid"            // replace with plain language
	TermsDefineAll  TermPolicy = "define_all"       // use but define every term
	TermsDefineNew  TermPolicy = "define_new"       // define terms on first use
	TermsUseFreely  TermPolicy = "use_freely"       // assume familiarity
	TermsExpert     TermPolicy = "expert"           // full technical register
)

// SentenceBand is the target sentence length range in words.
type SentenceBand struct {
	MinWords int
	MaxWords int
}

// DifficultyParameters is one row of the static difficulty table: the bundle
// of prompt-shaping parameters for a level. Immutable configuration, five
// rows.
type DifficultyParameters struct {
	Level            Level
	Detail           DetailLevel
	Examples         ExamplePolicy
	Style            ExplanationStyle
	Terms            TermPolicy
	Sentences        SentenceBand
	ConceptDensity   float64 // 0..1, concepts introduced per answer
	StepByStep       bool
	VisualAids       bool
	UseAnalogies     bool
}

// parameterTable holds the five rows. The scaffolding inverts monotonically
// across the levels: very_struggling gets maximum support (many examples,
// step-by-step, analogies, short sentences) and excellent gets none of it.
var parameterTable = map[Level]DifficultyParameters{
	LevelVeryStruggling: {
		Level:          LevelVeryStruggling,
		Detail:         DetailVeryHigh,
		Examples:       ExamplesMany,
		Style:          StyleStepByStep,
		Terms:          TermsAvoid,
		Sentences:      SentenceBand{MinWords: 8, MaxWords: 12},
		ConceptDensity: 0.2,
		StepByStep:     true,
		VisualAids:     true,
		UseAnalogies:   true,
	},
	LevelStruggling: {
		Level:          LevelStruggling,
		Detail:         DetailHigh,
		Examples:       ExamplesSeveral,
		Style:          StyleSimplified,
		Terms:          TermsDefineAll,
		Sentences:      SentenceBand{MinWords: 10, MaxWords: 15},
		ConceptDensity: 0.4,
		StepByStep:     true,
		VisualAids:     true,
		UseAnalogies:   true,
	},
	LevelNormal: {
		Level:          LevelNormal,
		Detail:         DetailBalanced,
		Examples:       ExamplesModerate,
		Style:          StyleBalanced,
		Terms:          TermsDefineNew,
		Sentences:      SentenceBand{MinWords: 12, MaxWords: 18},
		ConceptDensity: 0.6,
		StepByStep:     false,
		VisualAids:     true,
		UseAnalogies:   false,
	},
	LevelGood: {
		Level:          LevelGood,
		Detail:         DetailLow,
		Examples:       ExamplesFew,
		Style:          StyleConcise,
		Terms:          TermsUseFreely,
		Sentences:      SentenceBand{MinWords: 15, MaxWords: 22},
		ConceptDensity: 0.8,
		StepByStep:     false,
		VisualAids:     false,
		UseAnalogies:   false,
	},
	LevelExcellent: {
		Level:          LevelExcellent,
		Detail:         DetailMinimal,
		Examples:       ExamplesNone,
		Style:          StyleAcademic,
		Terms:          TermsExpert,
		Sentences:      SentenceBand{MinWords: 18, MaxWords: 30},
		ConceptDensity: 1.0,
		StepByStep:     false,
		VisualAids:     false,
		UseAnalogies:   false,
	},
}

// ParametersFor returns the parameter row for a level.
func ParametersFor(level Level) (DifficultyParameters, error) {
	p, ok := parameterTable[level]
	if !ok {
		return DifficultyParameters{}, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	return p, nil
}

// DefaultParameters returns the row for the normal level, the fallback used
// when difficulty cannot be resolved.
func DefaultParameters() DifficultyParameters {
	return parameterTable[LevelNormal]
}
