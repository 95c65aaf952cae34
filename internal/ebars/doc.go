// Package ebars implements the Emoji-Based Adaptive Response System: a
// per-(student, session) comprehension score that evolves under categorical
// feedback, a hysteresis-based difficulty classifier, and the prompt
// adaptation built on top of both.
//
// Components:
//   - Calculator: owns the score update algorithm and level classification
//   - ParameterTable: static difficulty → prompt-shaping parameter mapping
//   - PromptAdapter: renders difficulty-specific instruction blocks
//   - Handler: the façade the outside world (API layer, simulation harness)
//     talks to
//
// State lives behind the StateStore interface; this package never touches a
// database directly. The only error surfaced to callers of Handler is
// ErrInvalidFeedbackCategory; every other fault is absorbed with logged
// fallback values so the surrounding request pipeline keeps working.
package ebars
