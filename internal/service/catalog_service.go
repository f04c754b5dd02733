package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/caredemy/certpath-backend/internal/config"
	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/caredemy/certpath-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// catalogCacheTTL bounds how long outlines and question sets stay cached.
// Active sessions grade against their frozen snapshot, so a stale cache only
// delays new attempts seeing catalog edits, never mid-attempt drift.
const catalogCacheTTL = time.Hour

// CatalogService serves catalog reads through a Redis cache with PostgreSQL
// fallback and self-heal.
type CatalogService struct {
	catalogRepo *repository.CatalogRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalogRepo *repository.CatalogRepository, rdb *redis.Client, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "catalog_service").Logger(),
	}
}

// GetCourse retrieves a course by id (uncached; single-row read).
func (s *CatalogService) GetCourse(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return s.catalogRepo.GetCourse(ctx, id)
}

// GetChapter retrieves a chapter by id.
func (s *CatalogService) GetChapter(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	return s.catalogRepo.GetChapter(ctx, id)
}

// GetLesson retrieves a lesson by id.
func (s *CatalogService) GetLesson(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	return s.catalogRepo.GetLesson(ctx, id)
}

// GetOutline returns the ordered course structure, cache-first.
func (s *CatalogService) GetOutline(ctx context.Context, courseID uuid.UUID) (*model.CourseOutline, error) {
	key := config.CacheKey.CourseOutlineKey(courseID.String())

	val, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		outline := &model.CourseOutline{}
		if jsonErr := json.Unmarshal([]byte(val), outline); jsonErr == nil {
			return outline, nil
		}
		// Corrupt cache entry: fall through to the database and rewrite it.
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Outline cache read failed, falling back to database")
	}

	outline, err := s.catalogRepo.GetOutline(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(outline); jsonErr == nil {
		if cacheErr := s.rdb.Set(ctx, key, payload, catalogCacheTTL).Err(); cacheErr != nil {
			s.log.Warn().Err(cacheErr).Msg("Outline cache write failed")
		}
	}

	return outline, nil
}

// TestQuestions returns a chapter's test question set, cache-first.
func (s *CatalogService) TestQuestions(ctx context.Context, chapterID uuid.UUID) ([]model.Question, error) {
	key := config.CacheKey.QuestionSetKey(model.ChapterTestTargetKey(chapterID))
	return s.cachedQuestions(ctx, key, func() ([]model.Question, error) {
		return s.catalogRepo.ListTestQuestions(ctx, chapterID)
	})
}

// ExamQuestions returns a course's final exam question set, cache-first.
func (s *CatalogService) ExamQuestions(ctx context.Context, courseID uuid.UUID) ([]model.Question, error) {
	key := config.CacheKey.QuestionSetKey(model.FinalExamTargetKey(courseID))
	return s.cachedQuestions(ctx, key, func() ([]model.Question, error) {
		return s.catalogRepo.ListExamQuestions(ctx, courseID)
	})
}

// QuizQuestions returns a lesson's quiz question set, cache-first.
func (s *CatalogService) QuizQuestions(ctx context.Context, lessonID uuid.UUID) ([]model.Question, error) {
	key := config.CacheKey.QuizSetKey(lessonID.String())
	return s.cachedQuestions(ctx, key, func() ([]model.Question, error) {
		return s.catalogRepo.ListQuizQuestions(ctx, lessonID)
	})
}

func (s *CatalogService) cachedQuestions(ctx context.Context, key string, load func() ([]model.Question, error)) ([]model.Question, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var questions []model.Question
		if jsonErr := json.Unmarshal([]byte(val), &questions); jsonErr == nil {
			return questions, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Question cache read failed, falling back to database")
	}

	questions, err := load()
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(questions); jsonErr == nil {
		if cacheErr := s.rdb.Set(ctx, key, payload, catalogCacheTTL).Err(); cacheErr != nil {
			s.log.Warn().Err(cacheErr).Msg("Question cache write failed")
		}
	}

	return questions, nil
}
