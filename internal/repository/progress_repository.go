package repository

import (
	"context"
	"time"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository handles the durable per-(user, course) progress records.
// Mutations run inside caller-owned transactions that first lock the
// course_progress row, serializing writers per (user, course).
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// GetView assembles the progress snapshot for a (user, course). Missing rows
// read as zero values; nothing is created on the read path.
func (r *ProgressRepository) GetView(ctx context.Context, userID int, courseID uuid.UUID) (*model.ProgressView, error) {
	view := &model.ProgressView{
		Course:   model.CourseProgress{UserID: userID, CourseID: courseID, CurrentChapter: 1, CurrentLesson: 1},
		Lessons:  make(map[uuid.UUID]model.LessonProgress),
		Chapters: make(map[uuid.UUID]model.ChapterProgress),
	}

	err := r.pool.QueryRow(ctx,
		`SELECT user_id, course_id, current_chapter, current_lesson,
		        exam_attempts, exam_best_score, exam_passed, exam_attempted_at, exam_cooldown_until,
		        course_completed, certificate_issued, completed_at, updated_at
		 FROM course_progress
		 WHERE user_id = $1 AND course_id = $2`, userID, courseID,
	).Scan(
		&view.Course.UserID, &view.Course.CourseID, &view.Course.CurrentChapter, &view.Course.CurrentLesson,
		&view.Course.ExamAttempts, &view.Course.ExamBestScore, &view.Course.ExamPassed,
		&view.Course.ExamAttemptedAt, &view.Course.ExamCooldownUntil,
		&view.Course.CourseCompleted, &view.Course.CertificateIssued, &view.Course.CompletedAt, &view.Course.UpdatedAt,
	)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	lessonRows, err := r.pool.Query(ctx,
		`SELECT lp.user_id, lp.lesson_id, lp.completed, lp.best_score, lp.attempts, lp.cooldown_until, lp.completed_at
		 FROM lesson_progress lp
		 JOIN lessons l ON lp.lesson_id = l.id
		 JOIN chapters c ON l.chapter_id = c.id
		 WHERE lp.user_id = $1 AND c.course_id = $2`, userID, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer lessonRows.Close()
	for lessonRows.Next() {
		var lp model.LessonProgress
		if err := lessonRows.Scan(&lp.UserID, &lp.LessonID, &lp.Completed, &lp.BestScore, &lp.Attempts, &lp.CooldownUntil, &lp.CompletedAt); err != nil {
			return nil, err
		}
		view.Lessons[lp.LessonID] = lp
	}
	if err := lessonRows.Err(); err != nil {
		return nil, err
	}

	chapterRows, err := r.pool.Query(ctx,
		`SELECT cp.user_id, cp.chapter_id, cp.test_passed, cp.test_score, cp.test_attempts, cp.test_attempted_at, cp.cooldown_until
		 FROM chapter_progress cp
		 JOIN chapters c ON cp.chapter_id = c.id
		 WHERE cp.user_id = $1 AND c.course_id = $2`, userID, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer chapterRows.Close()
	for chapterRows.Next() {
		var cp model.ChapterProgress
		if err := chapterRows.Scan(&cp.UserID, &cp.ChapterID, &cp.TestPassed, &cp.TestScore, &cp.TestAttempts, &cp.TestAttemptedAt, &cp.CooldownUntil); err != nil {
			return nil, err
		}
		view.Chapters[cp.ChapterID] = cp
	}
	return view, chapterRows.Err()
}

// LockCourseTx creates the course_progress row if missing, then locks it
// for the duration of the transaction (single-writer discipline).
func (r *ProgressRepository) LockCourseTx(ctx context.Context, tx pgx.Tx, userID int, courseID uuid.UUID) (*model.CourseProgress, error) {
	_, err := tx.Exec(ctx,
		`INSERT INTO course_progress (user_id, course_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, course_id) DO NOTHING`, userID, courseID)
	if err != nil {
		return nil, err
	}

	cp := &model.CourseProgress{}
	err = tx.QueryRow(ctx,
		`SELECT user_id, course_id, current_chapter, current_lesson,
		        exam_attempts, exam_best_score, exam_passed, exam_attempted_at, exam_cooldown_until,
		        course_completed, certificate_issued, completed_at, updated_at
		 FROM course_progress
		 WHERE user_id = $1 AND course_id = $2
		 FOR UPDATE`, userID, courseID,
	).Scan(
		&cp.UserID, &cp.CourseID, &cp.CurrentChapter, &cp.CurrentLesson,
		&cp.ExamAttempts, &cp.ExamBestScore, &cp.ExamPassed, &cp.ExamAttemptedAt, &cp.ExamCooldownUntil,
		&cp.CourseCompleted, &cp.CertificateIssued, &cp.CompletedAt, &cp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// CompleteLessonTx marks a lesson completed. Completion is monotonic.
func (r *ProgressRepository) CompleteLessonTx(ctx context.Context, tx pgx.Tx, userID int, lessonID uuid.UUID, now time.Time) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO lesson_progress (user_id, lesson_id, completed, completed_at)
		 VALUES ($1, $2, TRUE, $3)
		 ON CONFLICT (user_id, lesson_id) DO UPDATE
		 SET completed = TRUE,
		     completed_at = COALESCE(lesson_progress.completed_at, EXCLUDED.completed_at)`,
		userID, lessonID, now)
	return err
}

// RecordQuizAttemptTx records a graded quiz attempt on lesson_progress.
// best_score only ever increases; cooldownUntil is nil when retries are free.
func (r *ProgressRepository) RecordQuizAttemptTx(ctx context.Context, tx pgx.Tx, userID int, lessonID uuid.UUID, score int, cooldownUntil *time.Time) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO lesson_progress (user_id, lesson_id, best_score, attempts, cooldown_until)
		 VALUES ($1, $2, $3, 1, $4)
		 ON CONFLICT (user_id, lesson_id) DO UPDATE
		 SET best_score = GREATEST(COALESCE(lesson_progress.best_score, 0), EXCLUDED.best_score),
		     attempts = lesson_progress.attempts + 1,
		     cooldown_until = EXCLUDED.cooldown_until`,
		userID, lessonID, score, cooldownUntil)
	return err
}

// RecordChapterTestAttemptTx records a graded chapter test attempt.
// test_passed is monotonic and test_score keeps the maximum; a failed
// retry after a pass can never flip the gate back.
func (r *ProgressRepository) RecordChapterTestAttemptTx(ctx context.Context, tx pgx.Tx, userID int, chapterID uuid.UUID, score int, passed bool, attemptedAt time.Time, cooldownUntil *time.Time) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO chapter_progress (user_id, chapter_id, test_passed, test_score, test_attempts, test_attempted_at, cooldown_until)
		 VALUES ($1, $2, $3, $4, 1, $5, $6)
		 ON CONFLICT (user_id, chapter_id) DO UPDATE
		 SET test_passed = chapter_progress.test_passed OR EXCLUDED.test_passed,
		     test_score = GREATEST(COALESCE(chapter_progress.test_score, 0), EXCLUDED.test_score),
		     test_attempts = chapter_progress.test_attempts + 1,
		     test_attempted_at = EXCLUDED.test_attempted_at,
		     cooldown_until = CASE
		         WHEN chapter_progress.test_passed OR EXCLUDED.test_passed THEN NULL
		         ELSE EXCLUDED.cooldown_until
		     END`,
		userID, chapterID, passed, score, attemptedAt, cooldownUntil)
	return err
}

// RecordExamAttemptTx records a graded final exam attempt on the locked
// course_progress row. exam_passed is monotonic.
func (r *ProgressRepository) RecordExamAttemptTx(ctx context.Context, tx pgx.Tx, userID int, courseID uuid.UUID, score int, passed bool, attemptedAt time.Time, cooldownUntil *time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE course_progress
		 SET exam_attempts = exam_attempts + 1,
		     exam_best_score = GREATEST(COALESCE(exam_best_score, 0), $3),
		     exam_passed = exam_passed OR $4,
		     exam_attempted_at = $5,
		     exam_cooldown_until = CASE WHEN exam_passed OR $4 THEN NULL ELSE $6 END,
		     updated_at = NOW()
		 WHERE user_id = $1 AND course_id = $2`,
		userID, courseID, score, passed, attemptedAt, cooldownUntil)
	return err
}

// AllChaptersPassedTx reports whether every chapter gate of the course is
// passed, read inside the caller's transaction after the course row lock so
// concurrent chapter submissions cannot race the final-exam completion check.
func (r *ProgressRepository) AllChaptersPassedTx(ctx context.Context, tx pgx.Tx, userID int, courseID uuid.UUID) (bool, error) {
	var pending int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM chapters c
		 LEFT JOIN chapter_progress cp ON cp.chapter_id = c.id AND cp.user_id = $1
		 WHERE c.course_id = $2 AND COALESCE(cp.test_passed, FALSE) = FALSE`,
		userID, courseID,
	).Scan(&pending)
	if err != nil {
		return false, err
	}
	return pending == 0, nil
}

// UpdatePositionTx stores the derived current chapter/lesson numbers.
func (r *ProgressRepository) UpdatePositionTx(ctx context.Context, tx pgx.Tx, userID int, courseID uuid.UUID, currentChapter, currentLesson int) error {
	_, err := tx.Exec(ctx,
		`UPDATE course_progress
		 SET current_chapter = $3, current_lesson = $4, updated_at = NOW()
		 WHERE user_id = $1 AND course_id = $2`,
		userID, courseID, currentChapter, currentLesson)
	return err
}

// MarkCourseCompletedTx flips the completion flags exactly once, in the same
// transaction as the certificate inserts.
func (r *ProgressRepository) MarkCourseCompletedTx(ctx context.Context, tx pgx.Tx, userID int, courseID uuid.UUID, completedAt time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE course_progress
		 SET course_completed = TRUE, certificate_issued = TRUE, completed_at = $3, updated_at = NOW()
		 WHERE user_id = $1 AND course_id = $2 AND certificate_issued = FALSE`,
		userID, courseID, completedAt)
	return err
}
