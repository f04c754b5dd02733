package service

import (
	"github.com/caredemy/certpath-backend/internal/model"
)

// PlanNextAction computes the single recommended next step from a progress
// snapshot. Pure function: no side effects, no state of its own, fully
// re-derivable from the outline and the view at any time.
//
// Order: first incomplete lesson, then the unpassed test of a fully-read
// chapter, then the final exam, then completed.
func PlanNextAction(outline *model.CourseOutline, view *model.ProgressView) model.NextAction {
	for i := range outline.Chapters {
		chapter := &outline.Chapters[i]

		for j := range chapter.Lessons {
			lesson := &chapter.Lessons[j]
			if !view.LessonDone(lesson.ID) {
				return model.NextAction{
					Type:          model.NextActionLesson,
					LessonID:      &lesson.ID,
					ChapterID:     &chapter.Chapter.ID,
					ChapterNumber: chapter.ChapterNumber,
					LessonNumber:  lesson.LessonNumber,
				}
			}
		}

		if !view.ChapterPassed(chapter.Chapter.ID) {
			return model.NextAction{
				Type:          model.NextActionChapterTest,
				ChapterID:     &chapter.Chapter.ID,
				ChapterNumber: chapter.ChapterNumber,
			}
		}
	}

	if !view.Course.ExamPassed {
		return model.NextAction{Type: model.NextActionFinalExam}
	}

	return model.NextAction{Type: model.NextActionCompleted}
}
