package service

import (
	"fmt"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
)

// Decision is the access guard's answer: may this identity do X now?
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(format string, args ...any) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// CheckLessonAccess answers whether a lesson may be read. A lesson is open
// iff it is the very first lesson of the course, or its immediate
// predecessor (same chapter, or last lesson of the previous chapter) is
// completed. Bypass roles skip all gating.
func CheckLessonAccess(role model.Role, outline *model.CourseOutline, lessonID uuid.UUID, view *model.ProgressView) Decision {
	if role.IsBypass() {
		return allow()
	}

	for i := range outline.Chapters {
		chapter := &outline.Chapters[i]
		for j := range chapter.Lessons {
			lesson := &chapter.Lessons[j]
			if lesson.ID != lessonID {
				continue
			}

			prev := precedingLesson(outline, i, j)
			if prev == nil {
				return allow() // First lesson of the first chapter.
			}
			if view.LessonDone(prev.lesson.ID) {
				return allow()
			}
			return deny("lesson %d of chapter %d is not completed yet",
				prev.lesson.LessonNumber, prev.chapterNumber)
		}
	}

	return deny("lesson not found in this course")
}

// CheckChapterTestAccess answers whether a chapter test may start: every
// lesson of the chapter must be completed.
func CheckChapterTestAccess(role model.Role, outline *model.CourseOutline, chapterID uuid.UUID, view *model.ProgressView) Decision {
	if role.IsBypass() {
		return allow()
	}

	for i := range outline.Chapters {
		chapter := &outline.Chapters[i]
		if chapter.Chapter.ID != chapterID {
			continue
		}

		for j := range chapter.Lessons {
			lesson := &chapter.Lessons[j]
			if !view.LessonDone(lesson.ID) {
				return deny("lesson %d of chapter %d is not completed yet",
					lesson.LessonNumber, chapter.ChapterNumber)
			}
		}
		return allow()
	}

	return deny("chapter not found in this course")
}

// CheckFinalExamAccess answers whether the final exam may start: every
// chapter's test must be passed. The reason names the first unmet chapter.
func CheckFinalExamAccess(role model.Role, outline *model.CourseOutline, view *model.ProgressView) Decision {
	if role.IsBypass() {
		return allow()
	}

	for i := range outline.Chapters {
		chapter := &outline.Chapters[i]
		if !view.ChapterPassed(chapter.Chapter.ID) {
			return deny("chapter %d test is not passed yet", chapter.ChapterNumber)
		}
	}
	return allow()
}

type predecessor struct {
	lesson        *model.Lesson
	chapterNumber int
}

// precedingLesson returns the lesson immediately before (chapterIdx,
// lessonIdx) in course order, or nil for the very first lesson.
func precedingLesson(outline *model.CourseOutline, chapterIdx, lessonIdx int) *predecessor {
	if lessonIdx > 0 {
		chapter := &outline.Chapters[chapterIdx]
		return &predecessor{
			lesson:        &chapter.Lessons[lessonIdx-1],
			chapterNumber: chapter.ChapterNumber,
		}
	}

	// Walk back to the nearest earlier chapter that has lessons.
	for i := chapterIdx - 1; i >= 0; i-- {
		chapter := &outline.Chapters[i]
		if n := len(chapter.Lessons); n > 0 {
			return &predecessor{
				lesson:        &chapter.Lessons[n-1],
				chapterNumber: chapter.ChapterNumber,
			}
		}
	}
	return nil
}
