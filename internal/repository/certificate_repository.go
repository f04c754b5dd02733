package repository

import (
	"context"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CertificateRepository handles immutable certificate records.
type CertificateRepository struct {
	pool *pgxpool.Pool
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(pool *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{pool: pool}
}

// NextSequenceTx draws the next value from the certificate number sequence.
// Runs on the issue transaction so numbers stay monotonic per issuance.
func (r *CertificateRepository) NextSequenceTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRow(ctx, `SELECT nextval('certificate_number_seq')`).Scan(&seq)
	return seq, err
}

// InsertTx persists one certificate inside the issue transaction.
func (r *CertificateRepository) InsertTx(ctx context.Context, tx pgx.Tx, cert *model.Certificate) error {
	return tx.QueryRow(ctx,
		`INSERT INTO certificates
		     (id, certificate_number, verification_code, user_id, course_id, cert_type, final_exam_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING issued_at`,
		cert.ID, cert.CertificateNumber, cert.VerificationCode,
		cert.UserID, cert.CourseID, cert.Type, cert.FinalExamScore,
	).Scan(&cert.IssuedAt)
}

// GetPairByUserAndCourse retrieves both certificates for a completion.
func (r *CertificateRepository) GetPairByUserAndCourse(ctx context.Context, userID int, courseID uuid.UUID) (*model.CertificatePair, error) {
	certs, err := r.list(ctx,
		`SELECT id, certificate_number, verification_code, user_id, course_id, cert_type, final_exam_score, issued_at
		 FROM certificates
		 WHERE user_id = $1 AND course_id = $2
		 ORDER BY cert_type ASC`, userID, courseID)
	if err != nil {
		return nil, err
	}
	return buildPair(certs), nil
}

// GetPairByVerificationCode retrieves the paired records sharing a code.
func (r *CertificateRepository) GetPairByVerificationCode(ctx context.Context, code string) (*model.CertificatePair, error) {
	certs, err := r.list(ctx,
		`SELECT id, certificate_number, verification_code, user_id, course_id, cert_type, final_exam_score, issued_at
		 FROM certificates
		 WHERE verification_code = $1
		 ORDER BY cert_type ASC`, code)
	if err != nil {
		return nil, err
	}
	return buildPair(certs), nil
}

// ListByUser retrieves all certificates held by a user, newest first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID int) ([]model.Certificate, error) {
	return r.list(ctx,
		`SELECT id, certificate_number, verification_code, user_id, course_id, cert_type, final_exam_score, issued_at
		 FROM certificates
		 WHERE user_id = $1
		 ORDER BY issued_at DESC, cert_type ASC`, userID)
}

func (r *CertificateRepository) list(ctx context.Context, query string, args ...any) ([]model.Certificate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []model.Certificate
	for rows.Next() {
		var cert model.Certificate
		if err := rows.Scan(
			&cert.ID, &cert.CertificateNumber, &cert.VerificationCode,
			&cert.UserID, &cert.CourseID, &cert.Type, &cert.FinalExamScore, &cert.IssuedAt,
		); err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}

func buildPair(certs []model.Certificate) *model.CertificatePair {
	pair := &model.CertificatePair{}
	for i := range certs {
		switch certs[i].Type {
		case model.CertificateTypeMain:
			pair.Main = &certs[i]
		case model.CertificateTypeHIPAA:
			pair.HIPAA = &certs[i]
		}
	}
	return pair
}
