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
	"github.com/rs/zerolog"
)

// ErrCourseNotCompleted guards direct issuance calls: no certificate before
// the final exam is passed.
var ErrCourseNotCompleted = errors.New("final exam not passed, nothing to certify")

// CertificateService issues the paired main + HIPAA certificates exactly
// once per (user, course). Rendering and email delivery are external; the
// engine's responsibility ends at persisting the records.
type CertificateService struct {
	pool         *pgxpool.Pool
	certRepo     *repository.CertificateRepository
	progressRepo *repository.ProgressRepository
	cfg          *config.Config
	log          zerolog.Logger
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(
	pool *pgxpool.Pool,
	certRepo *repository.CertificateRepository,
	progressRepo *repository.ProgressRepository,
	cfg *config.Config,
	log zerolog.Logger,
) *CertificateService {
	return &CertificateService{
		pool:         pool,
		certRepo:     certRepo,
		progressRepo: progressRepo,
		cfg:          cfg,
		log:          log.With().Str("component", "certificate_service").Logger(),
	}
}

// FormatCertificateNumber renders a monotonically-assigned number,
// e.g. CPC-2026-000042.
func FormatCertificateNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}

// Issue creates both certificates for a completed course, idempotently.
// A second call (or a concurrent one) observes certificate_issued=true on
// the locked progress row and short-circuits to the existing records.
func (s *CertificateService) Issue(ctx context.Context, userID int, courseID uuid.UUID) (*model.CertificatePair, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	cp, err := s.progressRepo.LockCourseTx(ctx, tx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("lock progress: %w", err)
	}

	if cp.CertificateIssued {
		// Idempotent read path; the records already exist.
		return s.certRepo.GetPairByUserAndCourse(ctx, userID, courseID)
	}
	if !cp.ExamPassed {
		return nil, ErrCourseNotCompleted
	}

	score := 0
	if cp.ExamBestScore != nil {
		score = *cp.ExamBestScore
	}

	pair, err := s.IssueTx(ctx, tx, userID, courseID, score, time.Now())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return pair, nil
}

// IssueTx performs the issuance inside a caller-owned transaction that
// already holds the course_progress row lock with certificate_issued=false.
// Both certificate inserts and the progress flip commit or roll back
// together.
func (s *CertificateService) IssueTx(ctx context.Context, tx pgx.Tx, userID int, courseID uuid.UUID, examScore int, now time.Time) (*model.CertificatePair, error) {
	verificationCode := uuid.New().String()
	year := now.UTC().Year()

	mainSeq, err := s.certRepo.NextSequenceTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("next certificate number: %w", err)
	}
	main := &model.Certificate{
		ID:                uuid.New(),
		CertificateNumber: FormatCertificateNumber(s.cfg.CertNumberPrefix, year, mainSeq),
		VerificationCode:  verificationCode,
		UserID:            userID,
		CourseID:          courseID,
		Type:              model.CertificateTypeMain,
		FinalExamScore:    examScore,
	}
	if err := s.certRepo.InsertTx(ctx, tx, main); err != nil {
		return nil, fmt.Errorf("insert main certificate: %w", err)
	}

	hipaaSeq, err := s.certRepo.NextSequenceTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("next certificate number: %w", err)
	}
	hipaa := &model.Certificate{
		ID:                uuid.New(),
		CertificateNumber: FormatCertificateNumber(s.cfg.CertNumberPrefix, year, hipaaSeq),
		VerificationCode:  verificationCode,
		UserID:            userID,
		CourseID:          courseID,
		Type:              model.CertificateTypeHIPAA,
		FinalExamScore:    examScore,
	}
	if err := s.certRepo.InsertTx(ctx, tx, hipaa); err != nil {
		return nil, fmt.Errorf("insert hipaa certificate: %w", err)
	}

	if err := s.progressRepo.MarkCourseCompletedTx(ctx, tx, userID, courseID, now); err != nil {
		return nil, fmt.Errorf("mark course completed: %w", err)
	}

	s.log.Info().
		Int("user_id", userID).
		Str("course_id", courseID.String()).
		Str("certificate_number", main.CertificateNumber).
		Msg("Certificates issued")

	return &model.CertificatePair{Main: main, HIPAA: hipaa}, nil
}

// ListByUser returns all certificates held by the caller.
func (s *CertificateService) ListByUser(ctx context.Context, userID int) ([]model.Certificate, error) {
	return s.certRepo.ListByUser(ctx, userID)
}

// VerifyByCode returns the paired records sharing a verification code.
func (s *CertificateService) VerifyByCode(ctx context.Context, code string) (*model.CertificatePair, error) {
	pair, err := s.certRepo.GetPairByVerificationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if pair.Main == nil && pair.HIPAA == nil {
		return nil, pgx.ErrNoRows
	}
	return pair, nil
}
