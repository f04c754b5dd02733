package service

import (
	"testing"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCheckLessonAccess_FirstLessonIsOpen(t *testing.T) {
	outline, view := courseFixture()

	d := CheckLessonAccess(model.RoleStudent, outline, outline.Chapters[0].Lessons[0].ID, view)
	assert.True(t, d.Allowed)
}

func TestCheckLessonAccess_SecondLessonNeedsFirst(t *testing.T) {
	outline, view := courseFixture()

	d := CheckLessonAccess(model.RoleStudent, outline, outline.Chapters[0].Lessons[1].ID, view)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "lesson 1 of chapter 1")

	completeLesson(view, outline.Chapters[0].Lessons[0])
	d = CheckLessonAccess(model.RoleStudent, outline, outline.Chapters[0].Lessons[1].ID, view)
	assert.True(t, d.Allowed)
}

func TestCheckLessonAccess_ChapterBoundary(t *testing.T) {
	outline, view := courseFixture()
	completeLesson(view, outline.Chapters[0].Lessons[0])

	// First lesson of chapter 2 needs the last lesson of chapter 1.
	d := CheckLessonAccess(model.RoleStudent, outline, outline.Chapters[1].Lessons[0].ID, view)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "lesson 2 of chapter 1")

	completeLesson(view, outline.Chapters[0].Lessons[1])
	d = CheckLessonAccess(model.RoleStudent, outline, outline.Chapters[1].Lessons[0].ID, view)
	assert.True(t, d.Allowed)
}

func TestCheckLessonAccess_UnknownLesson(t *testing.T) {
	outline, view := courseFixture()

	d := CheckLessonAccess(model.RoleStudent, outline, uuid.New(), view)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "not found")
}

func TestCheckLessonAccess_BypassRoles(t *testing.T) {
	outline, view := courseFixture()

	for _, role := range []model.Role{model.RoleAdmin, model.RoleSuperVisor} {
		d := CheckLessonAccess(role, outline, outline.Chapters[1].Lessons[1].ID, view)
		assert.True(t, d.Allowed, "role %s", role)
	}
}

func TestCheckChapterTestAccess(t *testing.T) {
	outline, view := courseFixture()
	chapterID := outline.Chapters[0].Chapter.ID

	d := CheckChapterTestAccess(model.RoleStudent, outline, chapterID, view)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "lesson 1 of chapter 1")

	completeLesson(view, outline.Chapters[0].Lessons[0])
	d = CheckChapterTestAccess(model.RoleStudent, outline, chapterID, view)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "lesson 2 of chapter 1")

	completeLesson(view, outline.Chapters[0].Lessons[1])
	d = CheckChapterTestAccess(model.RoleStudent, outline, chapterID, view)
	assert.True(t, d.Allowed)
}

func TestCheckChapterTestAccess_UnknownChapter(t *testing.T) {
	outline, view := courseFixture()

	d := CheckChapterTestAccess(model.RoleStudent, outline, uuid.New(), view)
	assert.False(t, d.Allowed)
}

func TestCheckFinalExamAccess_NamesFirstUnmetChapter(t *testing.T) {
	outline, view := courseFixture()

	d := CheckFinalExamAccess(model.RoleStudent, outline, view)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "chapter 1")

	passChapter(view, outline.Chapters[0].Chapter)
	d = CheckFinalExamAccess(model.RoleStudent, outline, view)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "chapter 2")

	passChapter(view, outline.Chapters[1].Chapter)
	d = CheckFinalExamAccess(model.RoleStudent, outline, view)
	assert.True(t, d.Allowed)
}

func TestCheckFinalExamAccess_Bypass(t *testing.T) {
	outline, view := courseFixture()

	d := CheckFinalExamAccess(model.RoleAdmin, outline, view)
	assert.True(t, d.Allowed)
}
