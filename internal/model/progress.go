package model

import (
	"time"

	"github.com/google/uuid"
)

// LessonProgress is the per-lesson completion record.
type LessonProgress struct {
	UserID        int        `json:"user_id"`
	LessonID      uuid.UUID  `json:"lesson_id"`
	Completed     bool       `json:"completed"`
	BestScore     *int       `json:"best_score,omitempty"`
	Attempts      int        `json:"attempts"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// ChapterProgress is the per-chapter test gate record.
// TestPassed is monotonic: once true it is never reset by later attempts.
type ChapterProgress struct {
	UserID          int        `json:"user_id"`
	ChapterID       uuid.UUID  `json:"chapter_id"`
	TestPassed      bool       `json:"test_passed"`
	TestScore       *int       `json:"test_score,omitempty"`
	TestAttempts    int        `json:"test_attempts"`
	TestAttemptedAt *time.Time `json:"test_attempted_at,omitempty"`
	CooldownUntil   *time.Time `json:"cooldown_until,omitempty"`
}

// CourseProgress is the per-(user, course) root record. All gating reads
// and the certificate flip go through this row; writers lock it first.
type CourseProgress struct {
	UserID            int        `json:"user_id"`
	CourseID          uuid.UUID  `json:"course_id"`
	CurrentChapter    int        `json:"current_chapter"`
	CurrentLesson     int        `json:"current_lesson"`
	ExamAttempts      int        `json:"exam_attempts"`
	ExamBestScore     *int       `json:"exam_best_score,omitempty"`
	ExamPassed        bool       `json:"exam_passed"`
	ExamAttemptedAt   *time.Time `json:"exam_attempted_at,omitempty"`
	ExamCooldownUntil *time.Time `json:"exam_cooldown_until,omitempty"`
	CourseCompleted   bool       `json:"course_completed"`
	CertificateIssued bool       `json:"certificate_issued"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ProgressView is the assembled per-(user, course) snapshot that the access
// guard and the next-action planner read. It is immutable once assembled.
type ProgressView struct {
	Course   CourseProgress                `json:"course"`
	Lessons  map[uuid.UUID]LessonProgress  `json:"lessons"`
	Chapters map[uuid.UUID]ChapterProgress `json:"chapters"`
}

// LessonDone reports whether the lesson is marked completed.
func (v *ProgressView) LessonDone(lessonID uuid.UUID) bool {
	lp, ok := v.Lessons[lessonID]
	return ok && lp.Completed
}

// ChapterPassed reports whether the chapter's test gate is passed.
func (v *ProgressView) ChapterPassed(chapterID uuid.UUID) bool {
	cp, ok := v.Chapters[chapterID]
	return ok && cp.TestPassed
}

// NextActionType enumerates the planner's recommendation kinds.
type NextActionType string

const (
	NextActionLesson      NextActionType = "lesson"
	NextActionChapterTest NextActionType = "chapter-test"
	NextActionFinalExam   NextActionType = "final-exam"
	NextActionCompleted   NextActionType = "completed"
)

// NextAction is the single recommended next step for a learner.
type NextAction struct {
	Type          NextActionType `json:"type"`
	LessonID      *uuid.UUID     `json:"lesson_id,omitempty"`
	ChapterID     *uuid.UUID     `json:"chapter_id,omitempty"`
	ChapterNumber int            `json:"chapter_number,omitempty"`
	LessonNumber  int            `json:"lesson_number,omitempty"`
}
