package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/egitsel/aprag/internal/cacs"
)

// searchTimeout bounds vector search queries so a slow embedder or index
// cannot block a request indefinitely.
const searchTimeout = 10 * time.Second

// Store manages documents and their feedback in PostgreSQL. Content is
// embedded on write via the configured embedder and searched with pgvector
// cosine distance.
//
// Safe for concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewStore creates a Store. A nil logger falls back to slog.Default().
func NewStore(pool *pgxpool.Pool, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embedder: embedder, logger: logger}
}

// Add embeds and inserts a document, returning its generated ID.
func (s *Store) Add(ctx context.Context, doc Document) (uuid.UUID, error) {
	if doc.Content == "" {
		return uuid.Nil, fmt.Errorf("document content must not be empty")
	}

	vec, err := s.embed(ctx, doc.Content)
	if err != nil {
		return uuid.Nil, fmt.Errorf("embedding document: %w", err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling metadata: %w", err)
	}

	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	topics := doc.Topics
	if topics == nil {
		topics = []string{}
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO documents (id, title, content, topics, difficulty, metadata, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Title, doc.Content, topics, doc.Difficulty, metadataJSON, vec)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting document: %w", err)
	}

	s.logger.Debug("added document", "id", doc.ID, "content_length", len(doc.Content))
	return doc.ID, nil
}

// Search embeds the query and returns the topK most similar documents,
// ordered by cosine similarity descending.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	vec, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.pool.Query(queryCtx, `
SELECT id, title, content, topics, difficulty, metadata, created_at,
       1 - (embedding <=> $1) AS similarity
FROM documents
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1
LIMIT $2`, vec, topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timeout: %w", err)
		}
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var doc Document
		var metadataJSON []byte
		var similarity float64
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Topics,
			&doc.Difficulty, &metadataJSON, &doc.CreatedAt, &similarity); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			s.logger.Warn("unparseable document metadata", "id", doc.ID, "error", err)
			doc.Metadata = nil
		}
		results = append(results, SearchResult{Document: doc, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}
	return results, nil
}

// RecordFeedback appends one feedback signal for a document.
func (s *Store) RecordFeedback(ctx context.Context, docID uuid.UUID, studentID string, sig cacs.FeedbackSignal) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO document_feedback (document_id, student_id, score, category)
VALUES ($1, $2, $3, $4)`,
		docID, studentID, sig.Score, sig.Category)
	if err != nil {
		return fmt.Errorf("recording document feedback: %w", err)
	}
	return nil
}

// RecordQuery appends a query to the student's session history.
func (s *Store) RecordQuery(ctx context.Context, studentID, sessionID, query string) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO query_history (student_id, session_id, query)
VALUES ($1, $2, $3)`,
		studentID, sessionID, query)
	if err != nil {
		return fmt.Errorf("recording query: %w", err)
	}
	return nil
}

// RecentQueries returns the student's last queries in the session, oldest
// first.
func (s *Store) RecentQueries(ctx context.Context, studentID, sessionID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx, `
SELECT query FROM query_history
WHERE student_id = $1 AND session_id = $2
ORDER BY created_at DESC
LIMIT $3`, studentID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading query history: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scanning query row: %w", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query rows: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(queries)-1; i < j; i, j = i+1, j-1 {
		queries[i], queries[j] = queries[j], queries[i]
	}
	return queries, nil
}

// StudentFeedback loads all of one student's document feedback, keyed by
// document ID.
func (s *Store) StudentFeedback(ctx context.Context, studentID string) (map[string][]cacs.FeedbackSignal, error) {
	rows, err := s.pool.Query(ctx, `
SELECT document_id, score, category FROM document_feedback
WHERE student_id = $1
ORDER BY created_at`, studentID)
	if err != nil {
		return nil, fmt.Errorf("loading student feedback: %w", err)
	}
	defer rows.Close()

	feedback := make(map[string][]cacs.FeedbackSignal)
	for rows.Next() {
		var docID uuid.UUID
		var sig cacs.FeedbackSignal
		if err := rows.Scan(&docID, &sig.Score, &sig.Category); err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		feedback[docID.String()] = append(feedback[docID.String()], sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback rows: %w", err)
	}
	return feedback, nil
}

// GlobalFeedback tallies community feedback polarity for the given
// documents. Signals normalizing above 0.5 count positive, below count
// negative, exactly neutral signals are skipped.
func (s *Store) GlobalFeedback(ctx context.Context, docIDs []uuid.UUID) (map[string]cacs.GlobalFeedback, error) {
	if len(docIDs) == 0 {
		return map[string]cacs.GlobalFeedback{}, nil
	}

	rows, err := s.pool.Query(ctx, `
SELECT document_id, score, category FROM document_feedback
WHERE document_id = ANY($1)`, docIDs)
	if err != nil {
		return nil, fmt.Errorf("loading global feedback: %w", err)
	}
	defer rows.Close()

	global := make(map[string]cacs.GlobalFeedback)
	for rows.Next() {
		var docID uuid.UUID
		var sig cacs.FeedbackSignal
		if err := rows.Scan(&docID, &sig.Score, &sig.Category); err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		tally := global[docID.String()]
		switch v := cacs.Normalize(sig); {
		case v > 0.5:
			tally.Positive++
		case v < 0.5:
			tally.Negative++
		}
		global[docID.String()] = tally
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback rows: %w", err)
	}
	return global, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// Delete removes a document. Feedback rows cascade.
func (s *Store) Delete(ctx context.Context, docID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", docID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	s.logger.Debug("deleted document", "id", docID)
	return nil
}

// embed runs the embedder on a single text and returns a pgvector value.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding returned")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
