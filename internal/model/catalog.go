package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Course is the root of the content hierarchy. Catalog entities are
// read-only inputs to the engine; authoring happens elsewhere.
type Course struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	ExamPassingScore  int       `json:"exam_passing_score"`
	ExamCooldownHours int       `json:"exam_cooldown_hours"`
	CreatedAt         time.Time `json:"created_at"`
}

// Chapter holds ordered lessons plus the gating test configuration.
// ChapterNumber is unique and sequential from 1 within a course.
type Chapter struct {
	ID            uuid.UUID `json:"id"`
	CourseID      uuid.UUID `json:"course_id"`
	ChapterNumber int       `json:"chapter_number"`
	Title         string    `json:"title"`
	PassingScore  int       `json:"passing_score"`
	CooldownHours int       `json:"cooldown_hours"`
}

// Lesson is a single content unit. LessonNumber is unique and sequential
// from 1 within its chapter.
type Lesson struct {
	ID           uuid.UUID `json:"id"`
	ChapterID    uuid.UUID `json:"chapter_id"`
	LessonNumber int       `json:"lesson_number"`
	Title        string    `json:"title"`
	ContentType  string    `json:"content_type"`
}

// QuestionKind distinguishes the assessment a question belongs to.
type QuestionKind string

const (
	QuestionKindQuiz QuestionKind = "QUIZ" // attached to a lesson
	QuestionKindTest QuestionKind = "TEST" // attached to a chapter
	QuestionKindExam QuestionKind = "EXAM" // attached to a course
)

// Question is a catalog question. Exactly one of LessonID/ChapterID/CourseID
// is set, matching Kind.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	Kind          QuestionKind    `json:"kind"`
	LessonID      *uuid.UUID      `json:"lesson_id,omitempty"`
	ChapterID     *uuid.UUID      `json:"chapter_id,omitempty"`
	CourseID      *uuid.UUID      `json:"course_id,omitempty"`
	QuestionText  string          `json:"question_text"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correct_answer"`
	Explanation   *string         `json:"explanation,omitempty"`
	Difficulty    *string         `json:"difficulty,omitempty"`
	OrderNum      int             `json:"order_num"`
}

// ChapterOutline is a chapter with its ordered lessons.
type ChapterOutline struct {
	Chapter
	Lessons []Lesson `json:"lessons"`
}

// CourseOutline is the full ordered structure gating decisions walk.
type CourseOutline struct {
	Course
	Chapters []ChapterOutline `json:"chapters"`
}
