package pedagogy

import "strings"

// Cognitive-load tuning. The blend weights sum to 1; the reference values
// mark where each factor saturates at load 1.0.
const (
	loadWeightLength     = 0.4
	loadWeightComplexity = 0.3
	loadWeightTechnical  = 0.3

	refWordCount        = 500.0 // responses this long max out the length factor
	refSentenceWords    = 30.0  // average sentence length that maxes complexity
	refLongWordDensity  = 0.3   // share of long words that maxes the technical factor
	longWordRuneCount   = 8     // a word this long counts as technical vocabulary
	simplificationAbove = 0.7
)

// Load estimates cognitive load from surface features of a response text.
type Load struct{}

// NewLoad creates the production load estimator.
func NewLoad() *Load { return &Load{} }

// Estimate blends three factors: word-count length load (0.4), average
// sentence length complexity load (0.3), and long-word density technical
// load (0.3). Responses blending above 0.7 are flagged for simplification.
func (l *Load) Estimate(text string) LoadEstimate {
	words := strings.Fields(text)
	if len(words) == 0 {
		return LoadEstimate{}
	}

	lengthLoad := capAt1(float64(len(words)) / refWordCount)

	sentences := countSentences(text)
	avgSentence := float64(len(words)) / float64(sentences)
	complexityLoad := capAt1(avgSentence / refSentenceWords)

	long := 0
	for _, w := range words {
		if len([]rune(strings.Trim(w, ".,;:!?\"'()"))) >= longWordRuneCount {
			long++
		}
	}
	density := float64(long) / float64(len(words))
	technicalLoad := capAt1(density / refLongWordDensity)

	total := loadWeightLength*lengthLoad +
		loadWeightComplexity*complexityLoad +
		loadWeightTechnical*technicalLoad

	return LoadEstimate{
		Total:               total,
		LengthLoad:          lengthLoad,
		ComplexityLoad:      complexityLoad,
		TechnicalLoad:       technicalLoad,
		WordCount:           len(words),
		NeedsSimplification: total > simplificationAbove,
	}
}

// Chunk splits text into paragraph-aligned pieces of at most maxWords words
// each. A single paragraph over the budget becomes its own chunk rather
// than being split mid-paragraph.
func (l *Load) Chunk(text string, maxWords int) []string {
	if maxWords <= 0 {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current []string
	currentWords := 0

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		words := len(strings.Fields(p))

		if currentWords > 0 && currentWords+words > maxWords {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			currentWords = 0
		}
		current = append(current, p)
		currentWords += words
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// countSentences counts terminator-delimited sentences, never returning
// less than 1.
func countSentences(text string) int {
	n := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

func capAt1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
