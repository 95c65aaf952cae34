package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/egitsel/aprag/internal/ebars"
)

// PostgresStore persists comprehension states and the feedback audit log in
// PostgreSQL. Update runs inside a transaction with SELECT ... FOR UPDATE,
// so concurrent feedback for the same key is serialized by the database
// while different keys stay independent.
//
// Schema is managed by the embedded migrations in db/.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore creates a store backed by the given pool. A nil logger
// falls back to slog.Default().
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

const selectStateSQL = `
SELECT score, level,
       consecutive_positive, consecutive_negative,
       total_feedback, positive_feedback, negative_feedback,
       created_at, last_feedback_at
FROM comprehension_states
WHERE student_id = $1 AND session_id = $2`

// Get implements ebars.StateStore.
func (p *PostgresStore) Get(ctx context.Context, key ebars.Key) (ebars.ComprehensionState, bool, error) {
	st, err := p.scanState(ctx, p.pool, key, selectStateSQL)
	if errors.Is(err, pgx.ErrNoRows) {
		return ebars.ComprehensionState{}, false, nil
	}
	if err != nil {
		return ebars.ComprehensionState{}, false, fmt.Errorf("selecting state %s: %w", key, err)
	}
	return st, true, nil
}

// Update implements ebars.StateStore with a transactional
// read-modify-write.
func (p *PostgresStore) Update(ctx context.Context, key ebars.Key, fn func(*ebars.ComprehensionState) error) (ebars.ComprehensionState, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return ebars.ComprehensionState{}, fmt.Errorf("beginning state update for %s: %w", key, err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			p.logger.Warn("rollback failed", "key", key.String(), "error", rbErr)
		}
	}()

	st, err := p.scanState(ctx, tx, key, selectStateSQL+" FOR UPDATE")
	created := false
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		st = ebars.NewState(key, time.Now())
		created = true
	case err != nil:
		return ebars.ComprehensionState{}, fmt.Errorf("locking state %s: %w", key, err)
	}

	if err := fn(&st); err != nil {
		return ebars.ComprehensionState{}, err
	}

	if created {
		_, err = tx.Exec(ctx, `
INSERT INTO comprehension_states
  (student_id, session_id, score, level,
   consecutive_positive, consecutive_negative,
   total_feedback, positive_feedback, negative_feedback,
   created_at, last_feedback_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			key.StudentID, key.SessionID, st.Score, string(st.Level),
			st.ConsecutivePositive, st.ConsecutiveNegative,
			st.TotalFeedback, st.PositiveFeedback, st.NegativeFeedback,
			st.CreatedAt, nullableTime(st.LastFeedbackAt))
	} else {
		_, err = tx.Exec(ctx, `
UPDATE comprehension_states
SET score = $3, level = $4,
    consecutive_positive = $5, consecutive_negative = $6,
    total_feedback = $7, positive_feedback = $8, negative_feedback = $9,
    last_feedback_at = $10
WHERE student_id = $1 AND session_id = $2`,
			key.StudentID, key.SessionID, st.Score, string(st.Level),
			st.ConsecutivePositive, st.ConsecutiveNegative,
			st.TotalFeedback, st.PositiveFeedback, st.NegativeFeedback,
			nullableTime(st.LastFeedbackAt))
	}
	if err != nil {
		return ebars.ComprehensionState{}, fmt.Errorf("writing state %s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ebars.ComprehensionState{}, fmt.Errorf("committing state %s: %w", key, err)
	}
	return st, nil
}

// Record implements ebars.EventRecorder by appending to the audit table.
func (p *PostgresStore) Record(ctx context.Context, ev ebars.FeedbackEvent) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO feedback_events
  (id, student_id, session_id, interaction_id, category,
   previous_score, score_delta, new_score,
   previous_level, new_level, level_changed, adjustment_type, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		ev.ID, ev.StudentID, ev.SessionID, ev.InteractionID, string(ev.Category),
		ev.PreviousScore, ev.Delta, ev.NewScore,
		string(ev.PreviousLevel), string(ev.NewLevel), ev.LevelChanged,
		string(ev.AdjustmentType), ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting feedback event %s: %w", ev.ID, err)
	}
	return nil
}

// querier is the subset of pgx shared by pool and transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *PostgresStore) scanState(ctx context.Context, q querier, key ebars.Key, sql string) (ebars.ComprehensionState, error) {
	st := ebars.ComprehensionState{StudentID: key.StudentID, SessionID: key.SessionID}
	var level string
	var lastFeedback *time.Time

	err := q.QueryRow(ctx, sql, key.StudentID, key.SessionID).Scan(
		&st.Score, &level,
		&st.ConsecutivePositive, &st.ConsecutiveNegative,
		&st.TotalFeedback, &st.PositiveFeedback, &st.NegativeFeedback,
		&st.CreatedAt, &lastFeedback)
	if err != nil {
		return ebars.ComprehensionState{}, err
	}

	st.Level = ebars.Level(level)
	if !st.Level.Valid() {
		// A row with an unknown level is reclassified from its score.
		p.logger.Warn("invalid stored level, reclassifying",
			"key", key.String(), "level", level)
		st.Level = ebars.ClassifyStatic(st.Score)
	}
	if lastFeedback != nil {
		st.LastFeedbackAt = *lastFeedback
	}
	return st, nil
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
