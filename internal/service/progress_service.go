package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caredemy/certpath-backend/internal/config"
	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/caredemy/certpath-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ProgressService handles the lesson-level progress mutations (completion,
// quiz attempts) and assembles the detailed progress view.
type ProgressService struct {
	pool         *pgxpool.Pool
	progressRepo *repository.ProgressRepository
	catalog      *CatalogService
	access       *AccessService
	cfg          *config.Config
	log          zerolog.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(
	pool *pgxpool.Pool,
	progressRepo *repository.ProgressRepository,
	catalog *CatalogService,
	access *AccessService,
	cfg *config.Config,
	log zerolog.Logger,
) *ProgressService {
	return &ProgressService{
		pool:         pool,
		progressRepo: progressRepo,
		catalog:      catalog,
		access:       access,
		cfg:          cfg,
		log:          log.With().Str("component", "progress_service").Logger(),
	}
}

// LessonStatus is one lesson row of the detailed progress view.
type LessonStatus struct {
	model.Lesson
	Completed   bool       `json:"completed"`
	BestScore   *int       `json:"best_score,omitempty"`
	Attempts    int        `json:"attempts"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ChapterStatus is one chapter row of the detailed progress view.
type ChapterStatus struct {
	model.Chapter
	Lessons         []LessonStatus `json:"lessons"`
	TestPassed      bool           `json:"test_passed"`
	TestScore       *int           `json:"test_score,omitempty"`
	TestAttempts    int            `json:"test_attempts"`
	TestAttemptedAt *time.Time     `json:"test_attempted_at,omitempty"`
	CooldownUntil   *time.Time     `json:"cooldown_until,omitempty"`
}

// DetailedProgress is the full per-(user, course) progress report plus the
// planner's recommendation.
type DetailedProgress struct {
	Course     model.Course         `json:"course"`
	Chapters   []ChapterStatus      `json:"chapters"`
	Progress   model.CourseProgress `json:"progress"`
	NextAction model.NextAction     `json:"next_action"`
}

// CompleteLesson marks a lesson completed for the caller, provided the
// access guard allows reading it, and advances the stored position.
func (s *ProgressService) CompleteLesson(ctx context.Context, identity model.Identity, lessonID uuid.UUID) (*model.NextAction, error) {
	lesson, err := s.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	chapter, err := s.catalog.GetChapter(ctx, lesson.ChapterID)
	if err != nil {
		return nil, fmt.Errorf("get chapter: %w", err)
	}

	decision, err := s.access.CheckLesson(ctx, identity, lessonID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &AccessDeniedError{Reason: decision.Reason}
	}

	outline, err := s.catalog.GetOutline(ctx, chapter.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get outline: %w", err)
	}

	now := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.progressRepo.LockCourseTx(ctx, tx, identity.UserID, chapter.CourseID); err != nil {
		return nil, fmt.Errorf("lock progress: %w", err)
	}
	if err := s.progressRepo.CompleteLessonTx(ctx, tx, identity.UserID, lessonID, now); err != nil {
		return nil, fmt.Errorf("complete lesson: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	// Re-derive and store the position from the fresh snapshot.
	view, err := s.progressRepo.GetView(ctx, identity.UserID, chapter.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get progress view: %w", err)
	}
	next := PlanNextAction(outline, view)
	s.storePosition(ctx, identity.UserID, chapter.CourseID, outline, next)

	s.log.Info().
		Int("user_id", identity.UserID).
		Str("lesson_id", lessonID.String()).
		Msg("Lesson completed")

	return &next, nil
}

// QuizResult is a graded quiz attempt. Quizzes are practice: they never
// gate anything, but attempts and best scores are recorded.
type QuizResult struct {
	GradeResult
	BestScore int `json:"best_score"`
	Attempts  int `json:"attempts"`
}

// SubmitQuiz grades a lesson quiz against the live question bank. Quizzes
// have no sessions and, with unlimited retries enabled, no cooldown.
func (s *ProgressService) SubmitQuiz(ctx context.Context, identity model.Identity, lessonID uuid.UUID, answers []model.AnswerSubmission) (*QuizResult, error) {
	lesson, err := s.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	chapter, err := s.catalog.GetChapter(ctx, lesson.ChapterID)
	if err != nil {
		return nil, fmt.Errorf("get chapter: %w", err)
	}

	decision, err := s.access.CheckLesson(ctx, identity, lessonID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &AccessDeniedError{Reason: decision.Reason}
	}

	view, err := s.progressRepo.GetView(ctx, identity.UserID, chapter.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get progress view: %w", err)
	}
	now := time.Now()
	lp := view.Lessons[lessonID]
	// A completed quiz never closes; only the cooldown rule applies.
	if err := CanStartNow(false, lp.CooldownUntil, now, s.cfg.UnlimitedQuizRetries); err != nil {
		return nil, err
	}

	questions, err := s.catalog.QuizQuestions(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load quiz questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	snapshot := freezeSnapshot(questions)
	if err := ValidateAnswers(snapshot, answers); err != nil {
		return nil, err
	}
	grade := Grade(snapshot, answers, chapter.PassingScore)

	var cooldown *time.Time
	if !grade.Passed {
		cooldown = CooldownAfterFailure(now, chapter.CooldownHours, s.cfg.UnlimitedQuizRetries)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.progressRepo.LockCourseTx(ctx, tx, identity.UserID, chapter.CourseID); err != nil {
		return nil, fmt.Errorf("lock progress: %w", err)
	}
	if err := s.progressRepo.RecordQuizAttemptTx(ctx, tx, identity.UserID, lessonID, grade.Score, cooldown); err != nil {
		return nil, fmt.Errorf("record quiz attempt: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	best := grade.Score
	if lp.BestScore != nil && *lp.BestScore > best {
		best = *lp.BestScore
	}

	return &QuizResult{
		GradeResult: grade,
		BestScore:   best,
		Attempts:    lp.Attempts + 1,
	}, nil
}

// GetDetailedProgress assembles the full progress report for a course.
func (s *ProgressService) GetDetailedProgress(ctx context.Context, identity model.Identity, courseID uuid.UUID) (*DetailedProgress, error) {
	outline, err := s.catalog.GetOutline(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get outline: %w", err)
	}
	view, err := s.progressRepo.GetView(ctx, identity.UserID, courseID)
	if err != nil {
		return nil, fmt.Errorf("get progress view: %w", err)
	}

	report := &DetailedProgress{
		Course:     outline.Course,
		Progress:   view.Course,
		NextAction: PlanNextAction(outline, view),
		Chapters:   make([]ChapterStatus, 0, len(outline.Chapters)),
	}

	for i := range outline.Chapters {
		chapter := &outline.Chapters[i]
		cp := view.Chapters[chapter.Chapter.ID]

		status := ChapterStatus{
			Chapter:         chapter.Chapter,
			Lessons:         make([]LessonStatus, 0, len(chapter.Lessons)),
			TestPassed:      cp.TestPassed,
			TestScore:       cp.TestScore,
			TestAttempts:    cp.TestAttempts,
			TestAttemptedAt: cp.TestAttemptedAt,
			CooldownUntil:   cp.CooldownUntil,
		}
		for j := range chapter.Lessons {
			lesson := chapter.Lessons[j]
			lp := view.Lessons[lesson.ID]
			status.Lessons = append(status.Lessons, LessonStatus{
				Lesson:      lesson,
				Completed:   lp.Completed,
				BestScore:   lp.BestScore,
				Attempts:    lp.Attempts,
				CompletedAt: lp.CompletedAt,
			})
		}
		report.Chapters = append(report.Chapters, status)
	}

	return report, nil
}

// storePosition persists the derived current chapter/lesson numbers.
// Best effort: the position is always re-derivable from progress.
func (s *ProgressService) storePosition(ctx context.Context, userID int, courseID uuid.UUID, outline *model.CourseOutline, next model.NextAction) {
	chapterNum, lessonNum := positionFromPlan(outline, next)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to store position")
		return
	}
	defer tx.Rollback(ctx)

	if err := s.progressRepo.UpdatePositionTx(ctx, tx, userID, courseID, chapterNum, lessonNum); err != nil {
		s.log.Warn().Err(err).Msg("Failed to store position")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to store position")
	}
}

// positionFromPlan maps the planner's recommendation to (chapter, lesson)
// numbers for the stored position.
func positionFromPlan(outline *model.CourseOutline, next model.NextAction) (int, int) {
	switch next.Type {
	case model.NextActionLesson:
		return next.ChapterNumber, next.LessonNumber
	case model.NextActionChapterTest:
		return next.ChapterNumber, lastLessonNumber(outline, next.ChapterNumber)
	default:
		if n := len(outline.Chapters); n > 0 {
			last := outline.Chapters[n-1]
			return last.ChapterNumber, lastLessonNumber(outline, last.ChapterNumber)
		}
		return 1, 1
	}
}

func lastLessonNumber(outline *model.CourseOutline, chapterNumber int) int {
	for i := range outline.Chapters {
		if outline.Chapters[i].ChapterNumber == chapterNumber {
			if n := len(outline.Chapters[i].Lessons); n > 0 {
				return outline.Chapters[i].Lessons[n-1].LessonNumber
			}
		}
	}
	return 1
}
