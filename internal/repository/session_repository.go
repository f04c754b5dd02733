package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles assessment session rows. The "at most one
// ACTIVE session per (user, target)" invariant lives here as a partial
// unique index, so concurrent starts cannot both succeed.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, user_id, course_id, target_type, target_key, chapter_id,
	passing_score, status, snapshot, started_at, expires_at, finished_at, score`

// Create inserts a new ACTIVE session. Returns pgx.ErrNoRows when another
// ACTIVE session for the same (user, target) won the race.
func (r *SessionRepository) Create(ctx context.Context, s *model.AssessmentSession) error {
	snapshot, err := json.Marshal(s.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO assessment_sessions
		     (id, user_id, course_id, target_type, target_key, chapter_id, passing_score, status, snapshot, started_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id, target_key) WHERE status = 'ACTIVE' DO NOTHING
		 RETURNING id, started_at`,
		s.ID, s.UserID, s.CourseID, s.TargetType, s.TargetKey, s.ChapterID,
		s.PassingScore, model.SessionStatusActive, snapshot, s.StartedAt, s.ExpiresAt,
	).Scan(&s.ID, &s.StartedAt)
}

// GetByID retrieves a session including its frozen snapshot.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AssessmentSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM assessment_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// GetActiveByTarget retrieves the caller's ACTIVE session for a target, if any.
func (r *SessionRepository) GetActiveByTarget(ctx context.Context, userID int, targetKey string) (*model.AssessmentSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM assessment_sessions
		 WHERE user_id = $1 AND target_key = $2 AND status = 'ACTIVE'`, userID, targetKey)
	return scanSession(row)
}

// FinishTx transitions an ACTIVE session to a terminal status inside the
// caller's transaction. Returns pgx.ErrNoRows if the session was no longer
// ACTIVE — a concurrent touch already terminated it.
func (r *SessionRepository) FinishTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.SessionStatus, score *int, finishedAt time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE assessment_sessions
		 SET status = $2, score = $3, finished_at = $4
		 WHERE id = $1 AND status = 'ACTIVE'`,
		id, status, score, finishedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ArchiveBatch moves terminal sessions into the audit archive and removes
// the live rows. ACTIVE sessions are never touched.
func (r *SessionRepository) ArchiveBatch(ctx context.Context, ids []uuid.UUID) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO assessment_session_archive
		     (id, user_id, course_id, target_type, target_key, chapter_id, passing_score, status, snapshot, started_at, expires_at, finished_at, score)
		 SELECT id, user_id, course_id, target_type, target_key, chapter_id, passing_score, status, snapshot, started_at, expires_at, finished_at, score
		 FROM assessment_sessions
		 WHERE id = ANY($1) AND status <> 'ACTIVE'
		 ON CONFLICT (id) DO NOTHING`, ids)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM assessment_sessions WHERE id = ANY($1) AND status <> 'ACTIVE'`, ids); err != nil {
		return 0, err
	}

	return tag.RowsAffected(), tx.Commit(ctx)
}

func scanSession(row pgx.Row) (*model.AssessmentSession, error) {
	s := &model.AssessmentSession{}
	var snapshot []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.CourseID, &s.TargetType, &s.TargetKey, &s.ChapterID,
		&s.PassingScore, &s.Status, &snapshot, &s.StartedAt, &s.ExpiresAt, &s.FinishedAt, &s.Score,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &s.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}
