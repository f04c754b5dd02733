package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caredemy/certpath-backend/internal/config"
	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/caredemy/certpath-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionService owns the assessment session lifecycle:
// start → submit/abandon/lazy expiry. It consults the access guard and the
// cooldown policy on start, the scoring engine on submit, and writes back to
// the progress store. A passing final exam that closes the course's last
// gate triggers certificate issuance in the same transaction.
type SessionService struct {
	pool         *pgxpool.Pool
	sessionRepo  *repository.SessionRepository
	progressRepo *repository.ProgressRepository
	catalog      *CatalogService
	access       *AccessService
	certificates *CertificateService
	rdb          *redis.Client
	cfg          *config.Config
	log          zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	pool *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	progressRepo *repository.ProgressRepository,
	catalog *CatalogService,
	access *AccessService,
	certificates *CertificateService,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		pool:         pool,
		sessionRepo:  sessionRepo,
		progressRepo: progressRepo,
		catalog:      catalog,
		access:       access,
		certificates: certificates,
		rdb:          rdb,
		cfg:          cfg,
		log:          log.With().Str("component", "session_service").Logger(),
	}
}

// SubmitResult is the graded outcome of a submission, extended with course
// completion state when the submission was a final exam.
type SubmitResult struct {
	GradeResult
	CooldownUntil     *time.Time             `json:"cooldown_until,omitempty"`
	CourseCompleted   bool                   `json:"course_completed"`
	CertificateIssued bool                   `json:"certificate_issued"`
	Certificates      *model.CertificatePair `json:"certificates,omitempty"`
}

// StartChapterTest starts a timed session for a chapter test.
func (s *SessionService) StartChapterTest(ctx context.Context, identity model.Identity, chapterID uuid.UUID) (*model.AssessmentSession, error) {
	chapter, err := s.catalog.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("get chapter: %w", err)
	}

	decision, err := s.access.CheckChapterTest(ctx, identity, chapterID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &AccessDeniedError{Reason: decision.Reason}
	}

	view, err := s.progressRepo.GetView(ctx, identity.UserID, chapter.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get progress view: %w", err)
	}
	cp := view.Chapters[chapterID]
	if err := CanStartNow(cp.TestPassed, cp.CooldownUntil, time.Now(), false); err != nil {
		return nil, err
	}

	questions, err := s.catalog.TestQuestions(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("load test questions: %w", err)
	}

	chID := chapterID
	return s.startSession(ctx, identity, &model.AssessmentSession{
		UserID:       identity.UserID,
		CourseID:     chapter.CourseID,
		TargetType:   model.TargetChapterTest,
		TargetKey:    model.ChapterTestTargetKey(chapterID),
		ChapterID:    &chID,
		PassingScore: chapter.PassingScore,
	}, questions)
}

// StartFinalExam starts a timed session for the course's final exam.
func (s *SessionService) StartFinalExam(ctx context.Context, identity model.Identity, courseID uuid.UUID) (*model.AssessmentSession, error) {
	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}

	decision, err := s.access.CheckFinalExam(ctx, identity, courseID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &AccessDeniedError{Reason: decision.Reason}
	}

	view, err := s.progressRepo.GetView(ctx, identity.UserID, courseID)
	if err != nil {
		return nil, fmt.Errorf("get progress view: %w", err)
	}
	if err := CanStartNow(view.Course.ExamPassed, view.Course.ExamCooldownUntil, time.Now(), false); err != nil {
		return nil, err
	}

	questions, err := s.catalog.ExamQuestions(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load exam questions: %w", err)
	}

	return s.startSession(ctx, identity, &model.AssessmentSession{
		UserID:       identity.UserID,
		CourseID:     courseID,
		TargetType:   model.TargetFinalExam,
		TargetKey:    model.FinalExamTargetKey(courseID),
		PassingScore: course.ExamPassingScore,
	}, questions)
}

// startSession resolves existing-session state, freezes the snapshot and
// atomically creates the ACTIVE row. The partial unique index is the real
// guard; the pre-check only exists to lazily expire a stale session and to
// fail fast with a useful error.
func (s *SessionService) startSession(ctx context.Context, identity model.Identity, session *model.AssessmentSession, questions []model.Question) (*model.AssessmentSession, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	now := time.Now()

	existing, err := s.sessionRepo.GetActiveByTarget(ctx, identity.UserID, session.TargetKey)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}
	if existing != nil {
		if !existing.IsExpired(now) {
			return nil, ErrSessionConflict
		}
		// A session squatting past its deadline is graded as a failed
		// attempt (score 0) before the slot is reused.
		cooldown, err := s.expireSession(ctx, existing)
		if err != nil {
			return nil, fmt.Errorf("expire stale session: %w", err)
		}
		// The failed attempt just opened a cooldown window; timing out
		// must not grant a faster retry than submitting a failure would.
		if err := CanStartNow(false, cooldown, now, false); err != nil {
			return nil, err
		}
	}

	session.ID = uuid.New()
	session.Status = model.SessionStatusActive
	session.StartedAt = now
	session.ExpiresAt = now.Add(time.Duration(s.cfg.SessionMinutesPerQuestion*len(questions)) * time.Minute)
	session.Snapshot = freezeSnapshot(questions)

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent start won the unique-index race.
			return nil, ErrSessionConflict
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Int("user_id", identity.UserID).
		Str("target", session.TargetKey).
		Int("questions", len(session.Snapshot)).
		Time("expires_at", session.ExpiresAt).
		Msg("Assessment session started")

	return session, nil
}

// Submit grades the caller's ACTIVE session against its frozen snapshot and
// writes the attempt back to progress in one transaction.
func (s *SessionService) Submit(ctx context.Context, identity model.Identity, sessionID uuid.UUID, answers []model.AnswerSubmission) (*SubmitResult, error) {
	session, err := s.ownedSession(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if session.IsExpired(now) {
		if _, err := s.expireSession(ctx, session); err != nil {
			return nil, fmt.Errorf("expire session: %w", err)
		}
		return nil, ErrInvalidSession
	}

	// Malformed payloads reject before the attempt is consumed.
	if err := ValidateAnswers(session.Snapshot, answers); err != nil {
		return nil, err
	}

	grade := Grade(session.Snapshot, answers, session.PassingScore)

	result := &SubmitResult{GradeResult: grade}
	err = s.finishScoredAttempt(ctx, session, model.SessionStatusSubmitted, grade, now, result)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("user_id", identity.UserID).
		Str("target", session.TargetKey).
		Int("score", grade.Score).
		Bool("passed", grade.Passed).
		Msg("Assessment submitted")

	return result, nil
}

// SubmitFinalExam resolves the caller's ACTIVE final-exam session for the
// course and submits it. The wire contract carries no session id.
func (s *SessionService) SubmitFinalExam(ctx context.Context, identity model.Identity, courseID uuid.UUID, answers []model.AnswerSubmission) (*SubmitResult, error) {
	session, err := s.sessionRepo.GetActiveByTarget(ctx, identity.UserID, model.FinalExamTargetKey(courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("resolve exam session: %w", err)
	}
	return s.Submit(ctx, identity, session.ID, answers)
}

// Abandon marks the caller's ACTIVE session Abandoned. By policy this is a
// withdrawal, not a failed submission: it consumes no attempt and sets no
// cooldown.
func (s *SessionService) Abandon(ctx context.Context, identity model.Identity, sessionID uuid.UUID) error {
	session, err := s.ownedSession(ctx, identity, sessionID)
	if err != nil {
		return err
	}

	now := time.Now()
	if session.IsExpired(now) {
		if _, err := s.expireSession(ctx, session); err != nil {
			return fmt.Errorf("expire session: %w", err)
		}
		return ErrInvalidSession
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.sessionRepo.FinishTx(ctx, tx, session.ID, model.SessionStatusAbandoned, nil, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidSession
		}
		return fmt.Errorf("finish session: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.enqueueArchive(ctx, session.ID)

	s.log.Info().
		Int("user_id", identity.UserID).
		Str("target", session.TargetKey).
		Msg("Assessment session abandoned")

	return nil
}

// GetOwnedSession returns the caller's session, applying lazy expiry first.
// Used by the live countdown stream and state reads.
func (s *SessionService) GetOwnedSession(ctx context.Context, identity model.Identity, sessionID uuid.UUID) (*model.AssessmentSession, error) {
	session, err := s.ownedSession(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		if _, err := s.expireSession(ctx, session); err != nil {
			return nil, fmt.Errorf("expire session: %w", err)
		}
		session.Status = model.SessionStatusExpired
	}
	return session, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func (s *SessionService) ownedSession(ctx context.Context, identity model.Identity, sessionID uuid.UUID) (*model.AssessmentSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	// A foreign session reads the same as a missing one.
	if session.UserID != identity.UserID {
		return nil, ErrInvalidSession
	}
	if session.Status != model.SessionStatusActive {
		return nil, ErrInvalidSession
	}
	return session, nil
}

// expireSession transitions an overdue ACTIVE session to Expired and records
// it as a failed attempt with score 0, so a dead session cannot squat on the
// one-active-session slot without cost. Returns the cooldown deadline that
// failed attempt set, if any.
func (s *SessionService) expireSession(ctx context.Context, session *model.AssessmentSession) (*time.Time, error) {
	grade := GradeResult{
		TotalQuestions: len(session.Snapshot),
		PassingScore:   session.PassingScore,
	}
	var discard SubmitResult
	err := s.finishScoredAttempt(ctx, session, model.SessionStatusExpired, grade, time.Now(), &discard)
	if err != nil && !errors.Is(err, ErrInvalidSession) {
		return nil, err
	}

	s.log.Info().
		Int("user_id", session.UserID).
		Str("target", session.TargetKey).
		Msg("Assessment session expired")

	return discard.CooldownUntil, nil
}

// finishScoredAttempt terminates the session and applies the graded attempt
// to progress atomically. For a passing final exam that closes the last
// gate, certificate issuance joins the same transaction.
func (s *SessionService) finishScoredAttempt(ctx context.Context, session *model.AssessmentSession, status model.SessionStatus, grade GradeResult, now time.Time, result *SubmitResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	score := grade.Score
	if err := s.sessionRepo.FinishTx(ctx, tx, session.ID, status, &score, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent touch already terminated this session.
			return ErrInvalidSession
		}
		return fmt.Errorf("finish session: %w", err)
	}

	cp, err := s.progressRepo.LockCourseTx(ctx, tx, session.UserID, session.CourseID)
	if err != nil {
		return fmt.Errorf("lock progress: %w", err)
	}

	switch session.TargetType {
	case model.TargetChapterTest:
		chapter, err := s.catalog.GetChapter(ctx, *session.ChapterID)
		if err != nil {
			return fmt.Errorf("get chapter: %w", err)
		}
		var cooldown *time.Time
		if !grade.Passed {
			cooldown = CooldownAfterFailure(now, chapter.CooldownHours, false)
		}
		result.CooldownUntil = cooldown
		if err := s.progressRepo.RecordChapterTestAttemptTx(ctx, tx, session.UserID, chapter.ID, grade.Score, grade.Passed, now, cooldown); err != nil {
			return fmt.Errorf("record test attempt: %w", err)
		}

	case model.TargetFinalExam:
		course, err := s.catalog.GetCourse(ctx, session.CourseID)
		if err != nil {
			return fmt.Errorf("get course: %w", err)
		}
		var cooldown *time.Time
		if !grade.Passed {
			cooldown = CooldownAfterFailure(now, course.ExamCooldownHours, false)
		}
		result.CooldownUntil = cooldown
		if err := s.progressRepo.RecordExamAttemptTx(ctx, tx, session.UserID, session.CourseID, grade.Score, grade.Passed, now, cooldown); err != nil {
			return fmt.Errorf("record exam attempt: %w", err)
		}

		if grade.Passed && !cp.CertificateIssued {
			allPassed, err := s.progressRepo.AllChaptersPassedTx(ctx, tx, session.UserID, session.CourseID)
			if err != nil {
				return fmt.Errorf("check gates: %w", err)
			}
			if allPassed {
				pair, err := s.certificates.IssueTx(ctx, tx, session.UserID, session.CourseID, grade.Score, now)
				if err != nil {
					return fmt.Errorf("issue certificates: %w", err)
				}
				result.CourseCompleted = true
				result.CertificateIssued = true
				result.Certificates = pair
			}
		} else if cp.CertificateIssued {
			result.CourseCompleted = true
			result.CertificateIssued = true
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.enqueueArchive(ctx, session.ID)
	s.refreshStoredPosition(ctx, session.UserID, session.CourseID)
	return nil
}

// refreshStoredPosition re-derives the current chapter/lesson numbers after
// a graded attempt, so the stored position tracks test and exam outcomes,
// not just lesson completions. Best effort: the position is always
// re-derivable from progress.
func (s *SessionService) refreshStoredPosition(ctx context.Context, userID int, courseID uuid.UUID) {
	outline, err := s.catalog.GetOutline(ctx, courseID)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to refresh stored position")
		return
	}
	view, err := s.progressRepo.GetView(ctx, userID, courseID)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to refresh stored position")
		return
	}
	next := PlanNextAction(outline, view)
	chapterNum, lessonNum := positionFromPlan(outline, next)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to refresh stored position")
		return
	}
	defer tx.Rollback(ctx)

	if err := s.progressRepo.UpdatePositionTx(ctx, tx, userID, courseID, chapterNum, lessonNum); err != nil {
		s.log.Warn().Err(err).Msg("Failed to refresh stored position")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to refresh stored position")
	}
}

// enqueueArchive hands a terminal session to the audit archive worker.
// Best effort: a lost enqueue leaves the row in place, nothing breaks.
func (s *SessionService) enqueueArchive(ctx context.Context, sessionID uuid.UUID) {
	if err := s.rdb.LPush(ctx, config.WorkerKey.ArchiveSessionsQueue, sessionID.String()).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to enqueue session for archiving")
	}
}

func freezeSnapshot(questions []model.Question) []model.SnapshotQuestion {
	snapshot := make([]model.SnapshotQuestion, 0, len(questions))
	for _, q := range questions {
		snapshot = append(snapshot, model.SnapshotQuestion{
			ID:            q.ID,
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return snapshot
}
