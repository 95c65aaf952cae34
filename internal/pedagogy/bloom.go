package pedagogy

import "strings"

// bloomKeywords maps each cognitive level to the verbs and phrasings that
// signal it. Matching is counted, not weighted: the level with the most
// keyword hits wins.
var bloomKeywords = map[BloomLevel][]string{
	BloomRemember: {
		"define", "list", "name", "recall", "identify", "state",
		"what is", "who is", "when did",
	},
	BloomUnderstand: {
		"explain", "describe", "summarize", "interpret", "paraphrase",
		"why does", "what does", "in your own words",
	},
	BloomApply: {
		"apply", "use", "solve", "calculate", "demonstrate", "implement",
		"how would you use", "compute",
	},
	BloomAnalyze: {
		"analyze", "analyse", "differentiate", "distinguish", "examine",
		"break down", "compare", "contrast", "what is the relationship",
	},
	BloomEvaluate: {
		"evaluate", "judge", "justify", "critique", "assess", "argue",
		"which is better", "do you agree",
	},
	BloomCreate: {
		"create", "design", "develop", "compose", "invent", "construct",
		"propose", "come up with", "build a",
	},
}

// Bloom classifies queries into the six cognitive levels by keyword count.
type Bloom struct{}

// NewBloom creates the production Bloom detector.
func NewBloom() *Bloom { return &Bloom{} }

// Detect scores each level by counted keyword matches in the query, picks
// the maximum, and sets confidence to the winner's share of all matches.
// A query with no matches anywhere defaults to "understand" with zero
// confidence. Ties resolve to the lower cognitive level.
func (b *Bloom) Detect(query string) BloomResult {
	q := strings.ToLower(query)

	matches := make(map[BloomLevel]int)
	total := 0
	for level, keywords := range bloomKeywords {
		for _, kw := range keywords {
			n := strings.Count(q, kw)
			matches[level] += n
			total += n
		}
	}

	if total == 0 {
		return BloomResult{Level: BloomUnderstand, Matches: matches}
	}

	// Iterate in taxonomy order so ties resolve deterministically.
	winner := BloomUnderstand
	best := 0
	for _, level := range BloomLevels {
		if matches[level] > best {
			best = matches[level]
			winner = level
		}
	}

	return BloomResult{
		Level:      winner,
		Confidence: float64(best) / float64(total),
		Matches:    matches,
	}
}
