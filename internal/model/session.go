package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates assessment session states. There is no persisted
// "not started" state — no row exists until start succeeds.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusSubmitted SessionStatus = "SUBMITTED"
	SessionStatusAbandoned SessionStatus = "ABANDONED"
	SessionStatusExpired   SessionStatus = "EXPIRED"
)

// TargetType distinguishes what a session is an attempt at.
type TargetType string

const (
	TargetChapterTest TargetType = "CHAPTER_TEST"
	TargetFinalExam   TargetType = "FINAL_EXAM"
)

// ChapterTestTargetKey builds the uniqueness key for a chapter test target.
func ChapterTestTargetKey(chapterID uuid.UUID) string {
	return fmt.Sprintf("chapter-test:%s", chapterID)
}

// FinalExamTargetKey builds the uniqueness key for a course's final exam.
func FinalExamTargetKey(courseID uuid.UUID) string {
	return fmt.Sprintf("final-exam:%s", courseID)
}

// SnapshotQuestion is a question frozen into a session at start time.
// Grading always runs against the snapshot, never the live question bank,
// so mid-attempt content edits cannot change what is being graded.
type SnapshotQuestion struct {
	ID            uuid.UUID       `json:"id"`
	QuestionText  string          `json:"question_text"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correct_answer"`
	Explanation   *string         `json:"explanation,omitempty"`
}

// PaperQuestion is the redacted snapshot form returned to callers.
type PaperQuestion struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options"`
}

// Redact strips the answer key from a snapshot for delivery to the caller.
func Redact(snapshot []SnapshotQuestion) []PaperQuestion {
	paper := make([]PaperQuestion, 0, len(snapshot))
	for _, q := range snapshot {
		paper = append(paper, PaperQuestion{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      q.Options,
		})
	}
	return paper
}

// AssessmentSession is a timed attempt at a chapter test or final exam.
// At most one ACTIVE session exists per (user, target), enforced by a
// partial unique index in storage rather than read-then-write.
type AssessmentSession struct {
	ID           uuid.UUID          `json:"id"`
	UserID       int                `json:"user_id"`
	CourseID     uuid.UUID          `json:"course_id"`
	TargetType   TargetType         `json:"target_type"`
	TargetKey    string             `json:"target_key"`
	ChapterID    *uuid.UUID         `json:"chapter_id,omitempty"`
	PassingScore int                `json:"passing_score"`
	Status       SessionStatus      `json:"status"`
	Snapshot     []SnapshotQuestion `json:"-"`
	StartedAt    time.Time          `json:"started_at"`
	ExpiresAt    time.Time          `json:"expires_at"`
	FinishedAt   *time.Time         `json:"finished_at,omitempty"`
	Score        *int               `json:"score,omitempty"`
}

// RemainingTime returns the time left before expiry, floored at zero.
func (s *AssessmentSession) RemainingTime(now time.Time) time.Duration {
	remaining := s.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired reports whether an ACTIVE session has outlived expires_at.
// Expiry is detected lazily at the next touch; there is no timer.
func (s *AssessmentSession) IsExpired(now time.Time) bool {
	return s.Status == SessionStatusActive && now.After(s.ExpiresAt)
}

// AnswerSubmission is one submitted answer, matched to a snapshot question.
type AnswerSubmission struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Answer     string    `json:"answer" binding:"required,max=2000"`
}

// SubmitAssessmentRequest is the payload for submitting a chapter test.
type SubmitAssessmentRequest struct {
	SessionID uuid.UUID          `json:"session_id" binding:"required"`
	Answers   []AnswerSubmission `json:"answers" binding:"required,dive"`
}

// AbandonAssessmentRequest is the payload for abandoning a chapter test.
type AbandonAssessmentRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
}

// SubmitExamRequest is the payload for the final exam submission. The engine
// resolves the caller's ACTIVE final-exam session itself, so no session id
// travels on the wire.
type SubmitExamRequest struct {
	Answers []AnswerSubmission `json:"answers" binding:"required,dive"`
}

// SubmitQuizRequest is the payload for a lesson quiz submission.
type SubmitQuizRequest struct {
	Answers []AnswerSubmission `json:"answers" binding:"required,dive"`
}
