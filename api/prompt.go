package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/egitsel/aprag/internal/ebars"
	"github.com/egitsel/aprag/internal/log"
	"github.com/egitsel/aprag/internal/pedagogy"
	"github.com/egitsel/aprag/internal/personalize"
	"github.com/egitsel/aprag/internal/retrieval"
)

// contextDocuments is how many ranked documents feed the reference
// material of a personalize call when the caller supplies no context.
const contextDocuments = 3

// PromptHandler handles prompt composition and the full personalization
// pipeline.
type PromptHandler struct {
	feedback *ebars.Handler
	service  *personalize.Service
	ranker   *retrieval.Ranker
	logger   log.Logger
}

// NewPromptHandler creates a prompt handler. ranker may be nil; without it
// the personalize endpoint uses only caller-supplied context.
func NewPromptHandler(feedback *ebars.Handler, service *personalize.Service, ranker *retrieval.Ranker, logger log.Logger) *PromptHandler {
	return &PromptHandler{feedback: feedback, service: service, ranker: ranker, logger: logger}
}

// RegisterRoutes registers prompt routes on the given mux.
func (h *PromptHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/prompt", h.prompt)
	mux.HandleFunc("POST /api/personalize", h.personalize)
}

// PromptRequest is the request body for POST /api/prompt.
type PromptRequest struct {
	StudentID        string `json:"student_id"`
	SessionID        string `json:"session_id"`
	Query            string `json:"query"`
	OriginalResponse string `json:"original_response,omitempty"`

	// LevelOverride forces a difficulty level instead of the student's
	// current one. Accepts the five level names.
	LevelOverride string `json:"level_override,omitempty"`
}

// PromptResponse is the response body for POST /api/prompt.
type PromptResponse struct {
	Prompt string      `json:"prompt"`
	Level  ebars.Level `json:"level"`
	Score  float64     `json:"score"`
}

// prompt builds the adaptive prompt without calling the model. Useful for
// callers that run their own generation.
func (h *PromptHandler) prompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	key, ok := parseKey(w, req.StudentID, req.SessionID)
	if !ok {
		return
	}
	if req.Query == "" || len(req.Query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_query", "query is required and at most 4096 characters")
		return
	}

	var override *ebars.Level
	if req.LevelOverride != "" {
		level := ebars.Level(req.LevelOverride)
		if !level.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_level",
				"level_override must be one of: very_struggling, struggling, normal, good, excellent")
			return
		}
		override = &level
	}

	prompt, err := h.feedback.GenerateAdaptivePrompt(r.Context(), key, req.Query, req.OriginalResponse, override)
	if err != nil {
		h.logger.Error("failed to build prompt", "key", key.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to build prompt")
		return
	}

	snapshot, err := h.feedback.CurrentState(r.Context(), key)
	if err != nil {
		h.logger.Error("failed to load state", "key", key.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to load state")
		return
	}

	level := snapshot.Level
	if override != nil {
		level = *override
	}
	writeJSON(w, http.StatusOK, PromptResponse{
		Prompt: prompt,
		Level:  level,
		Score:  snapshot.Score,
	})
}

// PersonalizeRequest is the request body for POST /api/personalize.
type PersonalizeRequest struct {
	StudentID        string                 `json:"student_id"`
	SessionID        string                 `json:"session_id"`
	Query            string                 `json:"query"`
	OriginalResponse string                 `json:"original_response,omitempty"`
	Context          string                 `json:"context,omitempty"`
	Interactions     []pedagogy.Interaction `json:"interactions,omitempty"`
}

// personalize runs the full pipeline: classify, build the adaptive prompt,
// generate, estimate load, chunk.
func (h *PromptHandler) personalize(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "personalization service not configured")
		return
	}

	var req PersonalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	key, ok := parseKey(w, req.StudentID, req.SessionID)
	if !ok {
		return
	}
	if req.Query == "" || len(req.Query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_query", "query is required and at most 4096 characters")
		return
	}

	docContext := req.Context
	if docContext == "" && h.ranker != nil {
		docContext = h.retrieveContext(r, key, req.Query)
	}

	resp, err := h.service.Personalize(r.Context(), personalize.Request{
		StudentID:        key.StudentID,
		SessionID:        key.SessionID,
		Query:            req.Query,
		OriginalResponse: req.OriginalResponse,
		Context:          docContext,
		Interactions:     req.Interactions,
	})
	if err != nil {
		h.logger.Error("personalization failed", "key", key.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "personalization failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// retrieveContext ranks documents for the query and joins the best ones
// into a reference block. Retrieval failure degrades to no context; the
// generation call still proceeds.
func (h *PromptHandler) retrieveContext(r *http.Request, key ebars.Key, query string) string {
	ranked, err := h.ranker.Rank(r.Context(), query, key.StudentID, key.SessionID, nil, contextDocuments)
	if err != nil {
		h.logger.Warn("personalizing without retrieved context", "key", key.String(), "error", err)
		return ""
	}
	if len(ranked) == 0 {
		return ""
	}

	parts := make([]string, 0, len(ranked))
	for _, doc := range ranked {
		parts = append(parts, doc.Document.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}
