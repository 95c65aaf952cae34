package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/egitsel/aprag/internal/cacs"
	"github.com/egitsel/aprag/internal/log"
	"github.com/egitsel/aprag/internal/retrieval"
)

type cannedSource struct {
	results []retrieval.SearchResult
}

func (s cannedSource) Search(context.Context, string, int) ([]retrieval.SearchResult, error) {
	return s.results, nil
}

func (cannedSource) StudentFeedback(context.Context, string) (map[string][]cacs.FeedbackSignal, error) {
	return nil, nil
}

func (cannedSource) GlobalFeedback(context.Context, []uuid.UUID) (map[string]cacs.GlobalFeedback, error) {
	return nil, nil
}

func (cannedSource) RecentQueries(context.Context, string, string, int) ([]string, error) {
	return nil, nil
}

func newRankServer(results []retrieval.SearchResult) http.Handler {
	logger := log.NewNop()
	ranker := retrieval.NewRanker(cannedSource{results: results},
		cacs.NewScorer(cacs.DefaultWeights(), logger), logger)
	return NewServer(Deps{Ranker: ranker, Logger: logger}).Handler()
}

func TestRankEndpoint(t *testing.T) {
	results := []retrieval.SearchResult{
		{Document: retrieval.Document{ID: uuid.New(), Title: "A"}, Similarity: 0.9},
		{Document: retrieval.Document{ID: uuid.New(), Title: "B"}, Similarity: 0.4},
	}
	srv := newRankServer(results)

	rec := postJSON(t, srv, "/api/rank",
		`{"student_id":"s1","session_id":"sess","query":"fractions","top_k":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var resp RankResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}
	if resp.Results[0].Document.Title != "A" {
		t.Errorf("top result = %q, want the more similar document", resp.Results[0].Document.Title)
	}
}

func TestRankEndpointRequiresQuery(t *testing.T) {
	srv := newRankServer(nil)

	rec := postJSON(t, srv, "/api/rank", `{"student_id":"s1","session_id":"sess"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without query", rec.Code)
	}
}

func TestRankEndpointUnavailableWithoutRanker(t *testing.T) {
	srv := NewServer(Deps{}).Handler()

	rec := postJSON(t, srv, "/api/rank",
		`{"student_id":"s1","session_id":"sess","query":"q"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without ranker", rec.Code)
	}
}

func TestAddDocumentUnavailableWithoutStore(t *testing.T) {
	srv := NewServer(Deps{}).Handler()

	rec := postJSON(t, srv, "/api/documents", `{"content":"abc"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without store", rec.Code)
	}
}

func TestDocumentFeedbackUnavailableWithoutStore(t *testing.T) {
	srv := NewServer(Deps{}).Handler()

	rec := postJSON(t, srv, "/api/documents/feedback",
		`{"document_id":"not-a-uuid","student_id":"s1","category":"good"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without store", rec.Code)
	}
}
