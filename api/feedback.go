package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/egitsel/aprag/internal/ebars"
	"github.com/egitsel/aprag/internal/log"
)

// Input length bounds shared by the endpoints.
const (
	MaxIDLength    = 128
	MaxQueryLength = 4096
)

// FeedbackHandler handles comprehension feedback and state endpoints.
type FeedbackHandler struct {
	feedback *ebars.Handler
	logger   log.Logger
}

// NewFeedbackHandler creates a feedback handler.
func NewFeedbackHandler(feedback *ebars.Handler, logger log.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, logger: logger}
}

// RegisterRoutes registers feedback routes on the given mux.
func (h *FeedbackHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/feedback", h.process)
	mux.HandleFunc("GET /api/state", h.state)
}

// FeedbackRequest is the request body for POST /api/feedback. Feedback may
// be a category name ("excellent", "good", "confused", "negative") or the
// matching UI emoji.
type FeedbackRequest struct {
	StudentID     string `json:"student_id"`
	SessionID     string `json:"session_id"`
	Feedback      string `json:"feedback"`
	InteractionID string `json:"interaction_id,omitempty"`
}

// FeedbackResponse is the response body for POST /api/feedback.
type FeedbackResponse struct {
	Score          float64                    `json:"score"`
	PreviousScore  float64                    `json:"previous_score"`
	Delta          float64                    `json:"score_delta"`
	Level          ebars.Level                `json:"level"`
	LevelChanged   bool                       `json:"level_changed"`
	AdjustmentType ebars.AdjustmentType       `json:"adjustment_type"`
	Parameters     ebars.DifficultyParameters `json:"parameters"`
}

// process applies one feedback signal to the student's comprehension state.
func (h *FeedbackHandler) process(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	key, ok := parseKey(w, req.StudentID, req.SessionID)
	if !ok {
		return
	}

	// The emoji-to-category mapping lives at this boundary: the core only
	// sees canonical categories.
	category, ok := ebars.ParseCategory(req.Feedback)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_feedback",
			"feedback must be one of: excellent, good, confused, negative, or the matching emoji")
		return
	}

	result, err := h.feedback.ProcessFeedback(r.Context(), key, category, req.InteractionID)
	if err != nil {
		if errors.Is(err, ebars.ErrInvalidFeedbackCategory) {
			writeError(w, http.StatusBadRequest, "invalid_feedback", err.Error())
			return
		}
		h.logger.Error("failed to process feedback", "key", key.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to process feedback")
		return
	}

	writeJSON(w, http.StatusOK, FeedbackResponse{
		Score:          result.Update.NewScore,
		PreviousScore:  result.Update.PreviousScore,
		Delta:          result.Update.Delta,
		Level:          result.Update.NewLevel,
		LevelChanged:   result.Update.LevelChanged,
		AdjustmentType: result.Update.AdjustmentType,
		Parameters:     result.Parameters,
	})
}

// StateResponse is the response body for GET /api/state.
type StateResponse struct {
	StudentID  string                     `json:"student_id"`
	SessionID  string                     `json:"session_id"`
	Score      float64                    `json:"score"`
	Level      ebars.Level                `json:"level"`
	Parameters ebars.DifficultyParameters `json:"parameters"`
	Statistics ebars.FeedbackStatistics   `json:"statistics"`
}

// state returns the current comprehension state for
// ?student_id=...&session_id=...
func (h *FeedbackHandler) state(w http.ResponseWriter, r *http.Request) {
	key, ok := parseKey(w, r.URL.Query().Get("student_id"), r.URL.Query().Get("session_id"))
	if !ok {
		return
	}

	snapshot, err := h.feedback.CurrentState(r.Context(), key)
	if err != nil {
		h.logger.Error("failed to load state", "key", key.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to load state")
		return
	}

	writeJSON(w, http.StatusOK, StateResponse{
		StudentID:  key.StudentID,
		SessionID:  key.SessionID,
		Score:      snapshot.Score,
		Level:      snapshot.Level,
		Parameters: snapshot.Parameters,
		Statistics: snapshot.Statistics,
	})
}

// parseKey validates the student and session identifiers, writing the
// error response itself when they are unusable.
func parseKey(w http.ResponseWriter, studentID, sessionID string) (ebars.Key, bool) {
	if studentID == "" || sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_key", "student_id and session_id are required")
		return ebars.Key{}, false
	}
	if len(studentID) > MaxIDLength || len(sessionID) > MaxIDLength {
		writeError(w, http.StatusBadRequest, "invalid_key", "student_id and session_id must be at most 128 characters")
		return ebars.Key{}, false
	}
	return ebars.Key{StudentID: studentID, SessionID: sessionID}, true
}
