package repository

import (
	"context"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository reads the course/chapter/lesson/question catalog.
// The engine never writes catalog rows; authoring is an external concern.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// GetCourse retrieves a course by id.
func (r *CatalogRepository) GetCourse(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	course := &model.Course{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, exam_passing_score, exam_cooldown_hours, created_at
		 FROM courses WHERE id = $1`, id,
	).Scan(&course.ID, &course.Title, &course.ExamPassingScore, &course.ExamCooldownHours, &course.CreatedAt)
	if err != nil {
		return nil, err
	}
	return course, nil
}

// GetChapter retrieves a chapter by id.
func (r *CatalogRepository) GetChapter(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	ch := &model.Chapter{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, chapter_number, title, passing_score, cooldown_hours
		 FROM chapters WHERE id = $1`, id,
	).Scan(&ch.ID, &ch.CourseID, &ch.ChapterNumber, &ch.Title, &ch.PassingScore, &ch.CooldownHours)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// GetLesson retrieves a lesson by id.
func (r *CatalogRepository) GetLesson(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	l := &model.Lesson{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, chapter_id, lesson_number, title, content_type
		 FROM lessons WHERE id = $1`, id,
	).Scan(&l.ID, &l.ChapterID, &l.LessonNumber, &l.Title, &l.ContentType)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetOutline assembles the full ordered course structure that gating
// decisions walk: chapters by chapter_number, lessons by lesson_number.
func (r *CatalogRepository) GetOutline(ctx context.Context, courseID uuid.UUID) (*model.CourseOutline, error) {
	course, err := r.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, chapter_number, title, passing_score, cooldown_hours
		 FROM chapters
		 WHERE course_id = $1
		 ORDER BY chapter_number ASC`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outline := &model.CourseOutline{Course: *course}
	chapterIdx := make(map[uuid.UUID]int)
	for rows.Next() {
		var ch model.Chapter
		if err := rows.Scan(&ch.ID, &ch.CourseID, &ch.ChapterNumber, &ch.Title, &ch.PassingScore, &ch.CooldownHours); err != nil {
			return nil, err
		}
		chapterIdx[ch.ID] = len(outline.Chapters)
		outline.Chapters = append(outline.Chapters, model.ChapterOutline{Chapter: ch})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lessonRows, err := r.pool.Query(ctx,
		`SELECT l.id, l.chapter_id, l.lesson_number, l.title, l.content_type
		 FROM lessons l
		 JOIN chapters c ON l.chapter_id = c.id
		 WHERE c.course_id = $1
		 ORDER BY c.chapter_number ASC, l.lesson_number ASC`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer lessonRows.Close()

	for lessonRows.Next() {
		var l model.Lesson
		if err := lessonRows.Scan(&l.ID, &l.ChapterID, &l.LessonNumber, &l.Title, &l.ContentType); err != nil {
			return nil, err
		}
		if idx, ok := chapterIdx[l.ChapterID]; ok {
			outline.Chapters[idx].Lessons = append(outline.Chapters[idx].Lessons, l)
		}
	}
	return outline, lessonRows.Err()
}

// ListTestQuestions retrieves a chapter's test question set in order.
func (r *CatalogRepository) ListTestQuestions(ctx context.Context, chapterID uuid.UUID) ([]model.Question, error) {
	return r.listQuestions(ctx,
		`SELECT id, kind, lesson_id, chapter_id, course_id, question_text, options, correct_answer, explanation, difficulty, order_num
		 FROM questions
		 WHERE chapter_id = $1 AND kind = $2
		 ORDER BY order_num ASC`, chapterID, model.QuestionKindTest)
}

// ListExamQuestions retrieves a course's final exam question set in order.
func (r *CatalogRepository) ListExamQuestions(ctx context.Context, courseID uuid.UUID) ([]model.Question, error) {
	return r.listQuestions(ctx,
		`SELECT id, kind, lesson_id, chapter_id, course_id, question_text, options, correct_answer, explanation, difficulty, order_num
		 FROM questions
		 WHERE course_id = $1 AND kind = $2
		 ORDER BY order_num ASC`, courseID, model.QuestionKindExam)
}

// ListQuizQuestions retrieves a lesson's quiz question set in order.
func (r *CatalogRepository) ListQuizQuestions(ctx context.Context, lessonID uuid.UUID) ([]model.Question, error) {
	return r.listQuestions(ctx,
		`SELECT id, kind, lesson_id, chapter_id, course_id, question_text, options, correct_answer, explanation, difficulty, order_num
		 FROM questions
		 WHERE lesson_id = $1 AND kind = $2
		 ORDER BY order_num ASC`, lessonID, model.QuestionKindQuiz)
}

func (r *CatalogRepository) listQuestions(ctx context.Context, query string, args ...any) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(
			&q.ID, &q.Kind, &q.LessonID, &q.ChapterID, &q.CourseID,
			&q.QuestionText, &q.Options, &q.CorrectAnswer, &q.Explanation, &q.Difficulty, &q.OrderNum,
		); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
