package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/egitsel/aprag/internal/cacs"
	"github.com/egitsel/aprag/internal/log"
	"github.com/egitsel/aprag/internal/retrieval"
)

// Ranking bounds.
const (
	DefaultRankTopK = 5
	MaxRankTopK     = 50
)

// RankHandler handles document storage and ranking endpoints.
type RankHandler struct {
	ranker    *retrieval.Ranker
	documents *retrieval.Store
	logger    log.Logger
}

// NewRankHandler creates a rank handler.
func NewRankHandler(ranker *retrieval.Ranker, documents *retrieval.Store, logger log.Logger) *RankHandler {
	return &RankHandler{ranker: ranker, documents: documents, logger: logger}
}

// RegisterRoutes registers ranking routes on the given mux.
func (h *RankHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/rank", h.rank)
	mux.HandleFunc("POST /api/documents", h.addDocument)
	mux.HandleFunc("POST /api/documents/feedback", h.documentFeedback)
}

// RankRequest is the request body for POST /api/rank.
type RankRequest struct {
	StudentID string `json:"student_id"`
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
	TopK      int    `json:"top_k,omitempty"`

	// SuccessRate and DifficultyPreference feed the personal scoring
	// factor when known to the caller.
	SuccessRate          float64 `json:"success_rate,omitempty"`
	DifficultyPreference string  `json:"difficulty_preference,omitempty"`
}

// RankResponse is the response body for POST /api/rank.
type RankResponse struct {
	Results []retrieval.RankedDocument `json:"results"`
	Total   int                        `json:"total"`
}

// rank searches and rescores documents for the student, then records the
// query into the session history for future context scoring.
func (h *RankHandler) rank(w http.ResponseWriter, r *http.Request) {
	if h.ranker == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "ranking service not configured")
		return
	}

	var req RankRequest
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
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultRankTopK
	}
	if topK > MaxRankTopK {
		topK = MaxRankTopK
	}

	profile := &cacs.StudentProfile{
		SuccessRate:          req.SuccessRate,
		DifficultyPreference: req.DifficultyPreference,
	}
	results, err := h.ranker.Rank(r.Context(), req.Query, key.StudentID, key.SessionID, profile, topK)
	if err != nil {
		h.logger.Error("ranking failed", "key", key.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "ranking failed")
		return
	}

	// Record after ranking: the current query must not count toward its
	// own context score.
	if h.documents != nil {
		if err := h.documents.RecordQuery(r.Context(), key.StudentID, key.SessionID, req.Query); err != nil {
			h.logger.Warn("failed to record query", "key", key.String(), "error", err)
		}
	}

	writeJSON(w, http.StatusOK, RankResponse{Results: results, Total: len(results)})
}

// AddDocumentRequest is the request body for POST /api/documents.
type AddDocumentRequest struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Topics     []string          `json:"topics,omitempty"`
	Difficulty float64           `json:"difficulty,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// addDocument embeds and stores a new document.
func (h *RankHandler) addDocument(w http.ResponseWriter, r *http.Request) {
	if h.documents == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "document store not configured")
		return
	}

	var req AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_document", "content is required")
		return
	}
	if req.Difficulty < 0 || req.Difficulty > 1 {
		writeError(w, http.StatusBadRequest, "invalid_document", "difficulty must be in [0,1]")
		return
	}

	id, err := h.documents.Add(r.Context(), retrieval.Document{
		Title:      req.Title,
		Content:    req.Content,
		Topics:     req.Topics,
		Difficulty: req.Difficulty,
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.logger.Error("failed to add document", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to add document")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// DocumentFeedbackRequest is the request body for POST
// /api/documents/feedback. Either a numeric score (1-5) or a category.
type DocumentFeedbackRequest struct {
	DocumentID string   `json:"document_id"`
	StudentID  string   `json:"student_id"`
	Score      *float64 `json:"score,omitempty"`
	Category   string   `json:"category,omitempty"`
}

// documentFeedback records one feedback signal against a document.
func (h *RankHandler) documentFeedback(w http.ResponseWriter, r *http.Request) {
	if h.documents == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "document store not configured")
		return
	}

	var req DocumentFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_document_id", "document_id must be a UUID")
		return
	}
	if req.StudentID == "" || len(req.StudentID) > MaxIDLength {
		writeError(w, http.StatusBadRequest, "invalid_key", "student_id is required and at most 128 characters")
		return
	}
	if req.Score == nil && req.Category == "" {
		writeError(w, http.StatusBadRequest, "invalid_feedback", "either score or category is required")
		return
	}
	if req.Score != nil && (*req.Score < 0 || *req.Score > 5) {
		writeError(w, http.StatusBadRequest, "invalid_feedback", "score must be in [0,5]")
		return
	}

	sig := cacs.FeedbackSignal{Score: req.Score, Category: req.Category}
	if err := h.documents.RecordFeedback(r.Context(), docID, req.StudentID, sig); err != nil {
		h.logger.Error("failed to record document feedback", "document", docID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to record feedback")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}
