package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/egitsel/aprag/internal/cacs"
)

// candidateFactor widens the vector search ahead of rescoring, so a
// document just outside the topK by raw similarity can still win on the
// blended score.
const candidateFactor = 3

// RankSource is what the ranker needs from the document store.
type RankSource interface {
	Search(ctx context.Context, query string, topK int) ([]SearchResult, error)
	StudentFeedback(ctx context.Context, studentID string) (map[string][]cacs.FeedbackSignal, error)
	GlobalFeedback(ctx context.Context, docIDs []uuid.UUID) (map[string]cacs.GlobalFeedback, error)
	RecentQueries(ctx context.Context, studentID, sessionID string, limit int) ([]string, error)
}

// Ranker rescores raw similarity results with conversation-aware scoring.
// Signal loading failures degrade to ranking without that signal; only a
// failed search itself is an error.
type Ranker struct {
	source RankSource
	scorer *cacs.Scorer
	logger *slog.Logger
}

// NewRanker creates a Ranker. A nil logger falls back to slog.Default().
func NewRanker(source RankSource, scorer *cacs.Scorer, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{source: source, scorer: scorer, logger: logger}
}

// Rank searches for query and returns the topK documents ordered by
// blended score. profile may be nil; when given, its DocumentFeedback is
// filled from the store unless already set.
func (r *Ranker) Rank(ctx context.Context, query, studentID, sessionID string, profile *cacs.StudentProfile, topK int) ([]RankedDocument, error) {
	if topK <= 0 {
		topK = 5
	}

	candidates, err := r.source.Search(ctx, query, topK*candidateFactor)
	if err != nil {
		return nil, fmt.Errorf("searching candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if profile == nil {
		profile = &cacs.StudentProfile{}
	}
	if profile.DocumentFeedback == nil && studentID != "" {
		feedback, err := r.source.StudentFeedback(ctx, studentID)
		if err != nil {
			r.logger.Warn("ranking without personal feedback", "student", studentID, "error", err)
		} else {
			profile.DocumentFeedback = feedback
		}
	}

	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Document.ID
	}
	global, err := r.source.GlobalFeedback(ctx, ids)
	if err != nil {
		r.logger.Warn("ranking without global feedback", "error", err)
		global = nil
	}

	var history []string
	if studentID != "" && sessionID != "" {
		history, err = r.source.RecentQueries(ctx, studentID, sessionID, 5)
		if err != nil {
			r.logger.Warn("ranking without query history",
				"student", studentID, "session", sessionID, "error", err)
			history = nil
		}
	}

	ranked := make([]RankedDocument, len(candidates))
	for i, c := range candidates {
		scoring := r.scorer.Score(c.Document.ID.String(), clampSimilarity(c.Similarity),
			profile, history, global, query)
		ranked[i] = RankedDocument{
			Document:   c.Document,
			Similarity: c.Similarity,
			Scoring:    scoring,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scoring.FinalScore > ranked[j].Scoring.FinalScore
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// clampSimilarity keeps cosine similarity inside [0,1]. Opposed vectors
// produce negative values that would distort the weighted blend.
func clampSimilarity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
