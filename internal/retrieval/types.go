// Package retrieval stores learning documents with vector search and ranks
// search results with conversation-aware scoring. The store handles
// embedding generation and PostgreSQL + pgvector persistence; the ranker
// layers cacs scoring on top of raw similarity.
package retrieval

import (
	"time"

	"github.com/google/uuid"

	"github.com/egitsel/aprag/internal/cacs"
)

// Document is one piece of learning content.
type Document struct {
	ID         uuid.UUID         `json:"id"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Topics     []string          `json:"topics,omitempty"`
	Difficulty float64           `json:"difficulty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// SearchResult is a document with its raw vector similarity in [0,1].
type SearchResult struct {
	Document   Document `json:"document"`
	Similarity float64  `json:"similarity"`
}

// RankedDocument is a search result after conversation-aware rescoring.
// Scoring carries the full factor breakdown for explainability.
type RankedDocument struct {
	Document   Document    `json:"document"`
	Similarity float64     `json:"similarity"`
	Scoring    cacs.Result `json:"scoring"`
}
