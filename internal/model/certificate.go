package model

import (
	"time"

	"github.com/google/uuid"
)

// CertificateType distinguishes the paired records issued on completion.
type CertificateType string

const (
	CertificateTypeMain  CertificateType = "MAIN"
	CertificateTypeHIPAA CertificateType = "HIPAA"
)

// Certificate is an immutable completion record. The main and HIPAA
// certificates are created together in one transaction and share a
// verification code; each carries its own certificate number.
type Certificate struct {
	ID                uuid.UUID       `json:"id"`
	CertificateNumber string          `json:"certificate_number"`
	VerificationCode  string          `json:"verification_code"`
	UserID            int             `json:"user_id"`
	CourseID          uuid.UUID       `json:"course_id"`
	Type              CertificateType `json:"type"`
	FinalExamScore    int             `json:"final_exam_score"`
	IssuedAt          time.Time       `json:"issued_at"`
}

// CertificatePair groups the two records issued for one completion.
type CertificatePair struct {
	Main  *Certificate `json:"main"`
	HIPAA *Certificate `json:"hipaa"`
}
