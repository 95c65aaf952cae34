// Package pedagogy provides the heuristic classifiers feeding the
// personalization prompt: a Zone-of-Proximal-Development calculator, a
// Bloom-taxonomy level detector, and a cognitive-load estimator.
//
// All monitors are pure functions of their inputs. Disabling one swaps in a
// no-op implementation at composition time: call sites stay unconditional
// and never check feature flags themselves.
package pedagogy

// Interaction is one past student interaction as seen by the ZPD
// calculator.
type Interaction struct {
	// Positive reports whether the interaction carried a positive feedback
	// signal.
	Positive bool

	// Difficulty is the difficulty of the material in [0,1].
	Difficulty float64
}

// Direction is an advisory one-step level move.
type Direction int

const (
	StepDown Direction = -1
	Hold     Direction = 0
	StepUp   Direction = +1
)

// ZPDAssessment summarizes recent interactions and recommends a level move.
type ZPDAssessment struct {
	SuccessRate    float64   `json:"success_rate"`
	AvgDifficulty  float64   `json:"avg_difficulty"`
	SampleSize     int       `json:"sample_size"`
	Recommendation Direction `json:"recommendation"`
}

// ZPDCalculator recommends advisory difficulty moves from interaction
// history.
type ZPDCalculator interface {
	Assess(interactions []Interaction) ZPDAssessment
}

// BloomLevel is one of the six ordered cognitive levels of Bloom's
// taxonomy.
type BloomLevel string

const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

// BloomLevels lists the taxonomy from lowest to highest cognitive demand.
var BloomLevels = []BloomLevel{
	BloomRemember, BloomUnderstand, BloomApply,
	BloomAnalyze, BloomEvaluate, BloomCreate,
}

// BloomResult is the classification of one query.
type BloomResult struct {
	Level      BloomLevel         `json:"level"`
	Confidence float64            `json:"confidence"`
	Matches    map[BloomLevel]int `json:"matches,omitempty"`
}

// BloomDetector classifies the cognitive level of a query.
type BloomDetector interface {
	Detect(query string) BloomResult
}

// LoadEstimate is the cognitive-load breakdown of a response text.
type LoadEstimate struct {
	Total               float64 `json:"total"`
	LengthLoad          float64 `json:"length_load"`
	ComplexityLoad      float64 `json:"complexity_load"`
	TechnicalLoad       float64 `json:"technical_load"`
	WordCount           int     `json:"word_count"`
	NeedsSimplification bool    `json:"needs_simplification"`
}

// LoadEstimator estimates cognitive load and can chunk long responses.
type LoadEstimator interface {
	Estimate(text string) LoadEstimate

	// Chunk splits text into paragraph-aligned pieces of at most
	// maxWords words each.
	Chunk(text string, maxWords int) []string
}

// Monitors bundles the three classifiers for injection into the
// personalization pipeline.
type Monitors struct {
	ZPD   ZPDCalculator
	Bloom BloomDetector
	Load  LoadEstimator
}

// NopZPD is the disabled ZPD calculator: always recommends holding.
type NopZPD struct{}

// Assess implements ZPDCalculator with a neutral result.
func (NopZPD) Assess([]Interaction) ZPDAssessment {
	return ZPDAssessment{Recommendation: Hold}
}

// NopBloom is the disabled Bloom detector: always "understand" with zero
// confidence.
type NopBloom struct{}

// Detect implements BloomDetector with the neutral default.
func (NopBloom) Detect(string) BloomResult {
	return BloomResult{Level: BloomUnderstand}
}

// NopLoad is the disabled load estimator: zero load, no chunking.
type NopLoad struct{}

// Estimate implements LoadEstimator with a neutral result.
func (NopLoad) Estimate(string) LoadEstimate { return LoadEstimate{} }

// Chunk implements LoadEstimator by returning the text unsplit.
func (NopLoad) Chunk(text string, _ int) []string { return []string{text} }
