package ebars

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Handler is the façade over Calculator and PromptAdapter, and the only
// component the outside world should call directly.
type Handler struct {
	calc     *Calculator
	adapter  *PromptAdapter
	recorder EventRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler wires the façade. A nil recorder disables audit logging; a nil
// logger falls back to slog.Default().
func NewHandler(calc *Calculator, adapter *PromptAdapter, recorder EventRecorder, logger *slog.Logger) *Handler {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		calc:     calc,
		adapter:  adapter,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// ProcessFeedback validates the category, updates the score, resolves the
// updated prompt parameters, and emits the audit event.
//
// This is the one place an explicit error is surfaced: an unknown category
// fails with ErrInvalidFeedbackCategory instead of being silently absorbed.
// A failing event recorder is logged and does not fail the call; the audit
// log is a side effect, not part of the contract.
func (h *Handler) ProcessFeedback(ctx context.Context, key Key, category Category, interactionID string) (FeedbackResult, error) {
	if !category.Valid() {
		return FeedbackResult{}, fmt.Errorf("%w: %q", ErrInvalidFeedbackCategory, category)
	}

	update, err := h.calc.UpdateScore(ctx, key, category)
	if err != nil {
		return FeedbackResult{}, err
	}

	params, err := h.adapter.Parameters(ctx, key, &update.NewLevel)
	if err != nil {
		return FeedbackResult{}, err
	}

	ev := FeedbackEvent{
		ID:             uuid.New(),
		StudentID:      key.StudentID,
		SessionID:      key.SessionID,
		InteractionID:  interactionID,
		Category:       category,
		PreviousScore:  update.PreviousScore,
		Delta:          update.Delta,
		NewScore:       update.NewScore,
		PreviousLevel:  update.PreviousLevel,
		NewLevel:       update.NewLevel,
		LevelChanged:   update.LevelChanged,
		AdjustmentType: update.AdjustmentType,
		CreatedAt:      h.now(),
	}
	if err := h.recorder.Record(ctx, ev); err != nil {
		h.logger.Error("failed to record feedback event",
			"key", key.String(), "event_id", ev.ID, "error", err)
	}

	return FeedbackResult{Update: update, Parameters: params, Event: ev}, nil
}

// CurrentState returns the read-only combination of score, difficulty,
// prompt parameters and feedback statistics. It must not mutate state beyond
// the lazy creation of a brand-new key.
func (h *Handler) CurrentState(ctx context.Context, key Key) (StateSnapshot, error) {
	st, err := h.calc.State(ctx, key)
	if err != nil {
		return StateSnapshot{}, err
	}
	params, err := ParametersFor(st.Level)
	if err != nil {
		params = DefaultParameters()
	}
	return StateSnapshot{
		Key:        key,
		Score:      st.Score,
		Level:      st.Level,
		Parameters: params,
		Statistics: FeedbackStatistics{
			Total:               st.TotalFeedback,
			Positive:            st.PositiveFeedback,
			Negative:            st.NegativeFeedback,
			ConsecutivePositive: st.ConsecutivePositive,
			ConsecutiveNegative: st.ConsecutiveNegative,
			LastFeedbackAt:      st.LastFeedbackAt,
		},
	}, nil
}

// GenerateAdaptivePrompt is the full prompt-composition entry point used by
// the personalization pipeline.
//
// With an original response present, the prompt instructs the model to
// rewrite it for the student's level and carries two guards: the model must
// not invent facts beyond the original response, and it must visibly alter
// the text. The second guard appears twice on purpose: models tend to echo
// the input verbatim, and the duplication measurably reduces that.
func (h *Handler) GenerateAdaptivePrompt(ctx context.Context, key Key, query, originalResponse string, override *Level) (string, error) {
	params, err := h.adapter.Parameters(ctx, key, override)
	if err != nil {
		return "", err
	}
	st, err := h.calc.State(ctx, key)
	if err != nil {
		return "", err
	}

	if originalResponse == "" {
		return h.adapter.RenderAdaptivePrompt(ctx, key, query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are rewriting an answer for a student with comprehension score %.1f/100, difficulty level %q.\n\n", st.Score, params.Level)
	b.WriteString(h.adapter.RenderInstructions(params))
	b.WriteString("\n\n## Original question\n")
	b.WriteString(query)
	b.WriteString("\n\n## Original response\n")
	b.WriteString(originalResponse)
	b.WriteString("\n\n## Critical instructions\n")
	b.WriteString("- You MUST NOT invent facts beyond the original response; rewrite only what is there.\n")
	b.WriteString("- You MUST NOT return the response unchanged. Visibly alter the phrasing, length, and terminology to match the difficulty level above.\n")
	b.WriteString("\nRemember: returning the original response unchanged, or with only cosmetic edits, is a failure. The rewrite must be clearly different.")
	return b.String(), nil
}
