package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetKeys(t *testing.T) {
	id := uuid.MustParse("2b1c8f4e-0000-4000-8000-000000000001")
	assert.Equal(t, "chapter-test:2b1c8f4e-0000-4000-8000-000000000001", ChapterTestTargetKey(id))
	assert.Equal(t, "final-exam:2b1c8f4e-0000-4000-8000-000000000001", FinalExamTargetKey(id))
}

func TestRedactStripsAnswerKey(t *testing.T) {
	explanation := "because"
	snapshot := []SnapshotQuestion{
		{ID: uuid.New(), QuestionText: "q1", CorrectAnswer: "A", Explanation: &explanation},
		{ID: uuid.New(), QuestionText: "q2", CorrectAnswer: "B"},
	}

	paper := Redact(snapshot)
	require.Len(t, paper, 2)
	for i := range paper {
		assert.Equal(t, snapshot[i].ID, paper[i].ID)
		assert.Equal(t, snapshot[i].QuestionText, paper[i].QuestionText)
	}
}

func TestSessionTiming(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &AssessmentSession{
		Status:    SessionStatusActive,
		StartedAt: start,
		ExpiresAt: start.Add(20 * time.Minute),
	}

	assert.Equal(t, 20*time.Minute, s.RemainingTime(start))
	assert.Equal(t, 5*time.Minute, s.RemainingTime(start.Add(15*time.Minute)))
	assert.Equal(t, time.Duration(0), s.RemainingTime(start.Add(time.Hour)))

	assert.False(t, s.IsExpired(start.Add(20*time.Minute))) // boundary is still live
	assert.True(t, s.IsExpired(start.Add(20*time.Minute+time.Second)))

	// Terminal sessions never report expired.
	s.Status = SessionStatusSubmitted
	assert.False(t, s.IsExpired(start.Add(time.Hour)))
}
