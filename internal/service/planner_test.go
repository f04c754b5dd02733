package service

import (
	"testing"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// courseFixture builds a two-chapter outline (two lessons each) and an empty
// progress view for it.
func courseFixture() (*model.CourseOutline, *model.ProgressView) {
	outline := &model.CourseOutline{
		Course: model.Course{ID: uuid.New(), Title: "fixture", ExamPassingScore: 70},
	}
	for c := 1; c <= 2; c++ {
		chapter := model.ChapterOutline{
			Chapter: model.Chapter{
				ID:            uuid.New(),
				CourseID:      outline.Course.ID,
				ChapterNumber: c,
				PassingScore:  70,
				CooldownHours: 3,
			},
		}
		for l := 1; l <= 2; l++ {
			chapter.Lessons = append(chapter.Lessons, model.Lesson{
				ID:           uuid.New(),
				ChapterID:    chapter.Chapter.ID,
				LessonNumber: l,
			})
		}
		outline.Chapters = append(outline.Chapters, chapter)
	}

	view := &model.ProgressView{
		Course:   model.CourseProgress{CurrentChapter: 1, CurrentLesson: 1},
		Lessons:  make(map[uuid.UUID]model.LessonProgress),
		Chapters: make(map[uuid.UUID]model.ChapterProgress),
	}
	return outline, view
}

func completeLesson(view *model.ProgressView, l model.Lesson) {
	view.Lessons[l.ID] = model.LessonProgress{LessonID: l.ID, Completed: true}
}

func passChapter(view *model.ProgressView, ch model.Chapter) {
	view.Chapters[ch.ID] = model.ChapterProgress{ChapterID: ch.ID, TestPassed: true}
}

func TestPlanNextAction_FreshLearnerGetsFirstLesson(t *testing.T) {
	outline, view := courseFixture()

	next := PlanNextAction(outline, view)

	assert.Equal(t, model.NextActionLesson, next.Type)
	require.NotNil(t, next.LessonID)
	assert.Equal(t, outline.Chapters[0].Lessons[0].ID, *next.LessonID)
	assert.Equal(t, 1, next.ChapterNumber)
	assert.Equal(t, 1, next.LessonNumber)
}

func TestPlanNextAction_MidChapterPointsToNextLesson(t *testing.T) {
	outline, view := courseFixture()
	completeLesson(view, outline.Chapters[0].Lessons[0])

	next := PlanNextAction(outline, view)

	assert.Equal(t, model.NextActionLesson, next.Type)
	assert.Equal(t, outline.Chapters[0].Lessons[1].ID, *next.LessonID)
	assert.Equal(t, 2, next.LessonNumber)
}

func TestPlanNextAction_AllLessonsReadPointsToChapterTest(t *testing.T) {
	outline, view := courseFixture()
	completeLesson(view, outline.Chapters[0].Lessons[0])
	completeLesson(view, outline.Chapters[0].Lessons[1])

	next := PlanNextAction(outline, view)

	assert.Equal(t, model.NextActionChapterTest, next.Type)
	require.NotNil(t, next.ChapterID)
	assert.Equal(t, outline.Chapters[0].Chapter.ID, *next.ChapterID)
	assert.Equal(t, 1, next.ChapterNumber)
}

func TestPlanNextAction_PassedChapterAdvancesToNext(t *testing.T) {
	outline, view := courseFixture()
	completeLesson(view, outline.Chapters[0].Lessons[0])
	completeLesson(view, outline.Chapters[0].Lessons[1])
	passChapter(view, outline.Chapters[0].Chapter)

	next := PlanNextAction(outline, view)

	assert.Equal(t, model.NextActionLesson, next.Type)
	assert.Equal(t, outline.Chapters[1].Lessons[0].ID, *next.LessonID)
	assert.Equal(t, 2, next.ChapterNumber)
}

func TestPlanNextAction_AllChaptersPassedPointsToFinalExam(t *testing.T) {
	outline, view := courseFixture()
	for _, ch := range outline.Chapters {
		for _, l := range ch.Lessons {
			completeLesson(view, l)
		}
		passChapter(view, ch.Chapter)
	}

	next := PlanNextAction(outline, view)
	assert.Equal(t, model.NextActionFinalExam, next.Type)
}

func TestPlanNextAction_ExamPassedMeansCompleted(t *testing.T) {
	outline, view := courseFixture()
	for _, ch := range outline.Chapters {
		for _, l := range ch.Lessons {
			completeLesson(view, l)
		}
		passChapter(view, ch.Chapter)
	}
	view.Course.ExamPassed = true

	next := PlanNextAction(outline, view)
	assert.Equal(t, model.NextActionCompleted, next.Type)
}

func TestPlanNextAction_SkippedLessonStillBlocks(t *testing.T) {
	outline, view := courseFixture()
	// Second lesson done, first not: the plan goes back to the gap.
	completeLesson(view, outline.Chapters[0].Lessons[1])

	next := PlanNextAction(outline, view)

	assert.Equal(t, model.NextActionLesson, next.Type)
	assert.Equal(t, outline.Chapters[0].Lessons[0].ID, *next.LessonID)
}
