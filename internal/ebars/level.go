package ebars

// Level is one of the five ordered difficulty bands derived from the
// comprehension score. The ordering matters: transitions move at most one
// band per feedback event.
type Level string

const (
	LevelVeryStruggling Level = "very_struggling"
	LevelStruggling     Level = "struggling"
	LevelNormal         Level = "normal"
	LevelGood           Level = "good"
	LevelExcellent      Level = "excellent"
)

// Levels lists all difficulty levels from lowest to highest comprehension.
var Levels = []Level{
	LevelVeryStruggling,
	LevelStruggling,
	LevelNormal,
	LevelGood,
	LevelExcellent,
}

// Rank returns the position of the level in the five-band order
// (very_struggling=0 … excellent=4), or -1 for an unknown level.
func (l Level) Rank() int {
	for i, lvl := range Levels {
		if lvl == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is one of the five known levels.
func (l Level) Valid() bool { return l.Rank() >= 0 }

// Static classification thresholds. Used for the initial classification of a
// freshly created state and for read-only level queries; the authoritative
// stored level transitions only through the hysteresis rule below.
const (
	staticVeryStrugglingMax = 30.0
	staticStrugglingMax     = 45.0
	staticNormalMax         = 70.0
	staticGoodMax           = 80.0
)

// ClassifyStatic maps a score to a level using the static threshold table:
//
//	very_struggling [0,30], struggling (30,45], normal (45,70],
//	good (70,80], excellent (80,100]
func ClassifyStatic(score float64) Level {
	switch {
	case score <= staticVeryStrugglingMax:
		return LevelVeryStruggling
	case score <= staticStrugglingMax:
		return LevelStruggling
	case score <= staticNormalMax:
		return LevelNormal
	case score <= staticGoodMax:
		return LevelGood
	default:
		return LevelExcellent
	}
}

// Hysteresis thresholds. Each level keeps the student until the score
// crosses an exit threshold toward a neighbor; the dead zone between enter
// and exit absorbs small oscillations so the prompt style doesn't flip on
// every other interaction.
const (
	hysVeryStrugglingExit = 35.0 // leave very_struggling upward
	hysStrugglingEnter    = 40.0 // enter struggling from either side
	hysStrugglingExit     = 50.0 // leave struggling upward / enter normal
	hysGoodEnter          = 75.0 // enter good / leave normal upward
	hysExcellentEnter     = 85.0 // enter excellent / leave good upward
)

// nextLevel applies the hysteresis transition rule: given the current level
// and the freshly computed score, it returns the level after this event.
// The result is always the current level or an adjacent one; cascades over
// multiple bands take multiple feedback events.
func nextLevel(current Level, score float64) Level {
	switch current {
	case LevelVeryStruggling:
		if score >= hysVeryStrugglingExit && score >= hysStrugglingEnter {
			return LevelStruggling
		}
	case LevelStruggling:
		if score >= hysStrugglingExit {
			return LevelNormal
		}
		if score < hysStrugglingEnter {
			return LevelVeryStruggling
		}
	case LevelNormal:
		if score >= hysGoodEnter {
			return LevelGood
		}
		// Down-exit uses struggling's enter threshold, not normal's own
		// entry boundary at 50: otherwise a score oscillating around 50
		// would flip the level on every other interaction.
		if score < hysStrugglingEnter {
			return LevelStruggling
		}
	case LevelGood:
		if score >= hysExcellentEnter {
			return LevelExcellent
		}
		if score < hysGoodEnter {
			return LevelNormal
		}
	case LevelExcellent:
		if score < hysExcellentEnter {
			return LevelGood
		}
	default:
		// Unknown stored level: fall back to the static table.
		return ClassifyStatic(score)
	}
	return current
}
