package service

import (
	"testing"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestPositionFromPlan(t *testing.T) {
	outline, view := courseFixture()

	// Fresh learner: position at the first lesson.
	ch, l := positionFromPlan(outline, PlanNextAction(outline, view))
	assert.Equal(t, 1, ch)
	assert.Equal(t, 1, l)

	// All chapter-1 lessons read: position parks at the chapter's last lesson.
	completeLesson(view, outline.Chapters[0].Lessons[0])
	completeLesson(view, outline.Chapters[0].Lessons[1])
	ch, l = positionFromPlan(outline, PlanNextAction(outline, view))
	assert.Equal(t, 1, ch)
	assert.Equal(t, 2, l)

	// Chapter passed: position moves into chapter 2.
	passChapter(view, outline.Chapters[0].Chapter)
	ch, l = positionFromPlan(outline, PlanNextAction(outline, view))
	assert.Equal(t, 2, ch)
	assert.Equal(t, 1, l)

	// Everything done: position parks at the course's last lesson.
	ch, l = positionFromPlan(outline, model.NextAction{Type: model.NextActionCompleted})
	assert.Equal(t, 2, ch)
	assert.Equal(t, 2, l)
}
