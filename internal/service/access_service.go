package service

import (
	"context"
	"fmt"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/caredemy/certpath-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccessService is the access guard: it answers "can this identity do X
// now?" from the course outline and the caller's progress snapshot.
// The rules themselves are the pure functions in access.go.
type AccessService struct {
	catalog      *CatalogService
	progressRepo *repository.ProgressRepository
	log          zerolog.Logger
}

// NewAccessService creates a new AccessService.
func NewAccessService(catalog *CatalogService, progressRepo *repository.ProgressRepository, log zerolog.Logger) *AccessService {
	return &AccessService{
		catalog:      catalog,
		progressRepo: progressRepo,
		log:          log.With().Str("component", "access_service").Logger(),
	}
}

// CheckLesson resolves a lesson to its course and evaluates lesson gating.
func (s *AccessService) CheckLesson(ctx context.Context, identity model.Identity, lessonID uuid.UUID) (Decision, error) {
	lesson, err := s.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		return Decision{}, fmt.Errorf("get lesson: %w", err)
	}
	chapter, err := s.catalog.GetChapter(ctx, lesson.ChapterID)
	if err != nil {
		return Decision{}, fmt.Errorf("get chapter: %w", err)
	}

	outline, view, err := s.load(ctx, identity.UserID, chapter.CourseID)
	if err != nil {
		return Decision{}, err
	}
	return CheckLessonAccess(identity.Role, outline, lessonID, view), nil
}

// CheckChapterTest evaluates chapter test gating: all lessons completed.
func (s *AccessService) CheckChapterTest(ctx context.Context, identity model.Identity, chapterID uuid.UUID) (Decision, error) {
	chapter, err := s.catalog.GetChapter(ctx, chapterID)
	if err != nil {
		return Decision{}, fmt.Errorf("get chapter: %w", err)
	}

	outline, view, err := s.load(ctx, identity.UserID, chapter.CourseID)
	if err != nil {
		return Decision{}, err
	}
	return CheckChapterTestAccess(identity.Role, outline, chapterID, view), nil
}

// CheckFinalExam evaluates final exam gating: all chapter tests passed.
func (s *AccessService) CheckFinalExam(ctx context.Context, identity model.Identity, courseID uuid.UUID) (Decision, error) {
	outline, view, err := s.load(ctx, identity.UserID, courseID)
	if err != nil {
		return Decision{}, err
	}
	return CheckFinalExamAccess(identity.Role, outline, view), nil
}

func (s *AccessService) load(ctx context.Context, userID int, courseID uuid.UUID) (*model.CourseOutline, *model.ProgressView, error) {
	outline, err := s.catalog.GetOutline(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("get outline: %w", err)
	}
	view, err := s.progressRepo.GetView(ctx, userID, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("get progress view: %w", err)
	}
	return outline, view, nil
}
