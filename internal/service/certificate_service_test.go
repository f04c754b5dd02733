package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCertificateNumber(t *testing.T) {
	assert.Equal(t, "CPC-2026-000042", FormatCertificateNumber("CPC", 2026, 42))
	assert.Equal(t, "CPC-2026-000001", FormatCertificateNumber("CPC", 2026, 1))
	assert.Equal(t, "HC-2030-123456", FormatCertificateNumber("HC", 2030, 123456))

	// Sequences past six digits widen instead of truncating.
	assert.Equal(t, "CPC-2026-1234567", FormatCertificateNumber("CPC", 2026, 1234567))
}
