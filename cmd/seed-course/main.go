package main

import (
	"context"
	"fmt"
	"time"

	"github.com/caredemy/certpath-backend/internal/config"
	"github.com/caredemy/certpath-backend/internal/database"
	"github.com/caredemy/certpath-backend/internal/logger"
	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Seeds a small demo course: two chapters with two lessons each, lesson
// quizzes, chapter tests and a final exam. Idempotent on the course title.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	const title = "Certified Phlebotomy Technician"

	var existing uuid.UUID
	err = pool.QueryRow(ctx, `SELECT id FROM courses WHERE title = $1`, title).Scan(&existing)
	if err == nil {
		fmt.Printf("Course already seeded: %s\n", existing)
		return
	}
	if err != pgx.ErrNoRows {
		log.Fatal().Err(err).Msg("Failed to check existing course")
	}

	fmt.Println("=== Seeding Demo Course ===")

	courseID := uuid.New()
	if _, err := pool.Exec(ctx,
		`INSERT INTO courses (id, title, exam_passing_score, exam_cooldown_hours)
		 VALUES ($1, $2, 70, 24)`, courseID, title); err != nil {
		log.Fatal().Err(err).Msg("Failed to insert course")
	}

	chapterTitles := []string{
		"Foundations and Safety",
		"Collection Procedures",
	}
	lessonTitles := [][]string{
		{"Roles and Responsibilities", "Infection Control Basics"},
		{"Venipuncture Technique", "Specimen Handling"},
	}

	for ci, chTitle := range chapterTitles {
		chapterID := uuid.New()
		if _, err := pool.Exec(ctx,
			`INSERT INTO chapters (id, course_id, chapter_number, title, passing_score, cooldown_hours)
			 VALUES ($1, $2, $3, $4, 70, 3)`,
			chapterID, courseID, ci+1, chTitle); err != nil {
			log.Fatal().Err(err).Msg("Failed to insert chapter")
		}

		for li, lTitle := range lessonTitles[ci] {
			lessonID := uuid.New()
			if _, err := pool.Exec(ctx,
				`INSERT INTO lessons (id, chapter_id, lesson_number, title, content_type)
				 VALUES ($1, $2, $3, $4, 'text')`,
				lessonID, chapterID, li+1, lTitle); err != nil {
				log.Fatal().Err(err).Msg("Failed to insert lesson")
			}
			seedQuestions(ctx, pool, log, model.QuestionKindQuiz, lessonID, fmt.Sprintf("%s quiz", lTitle), 3)
		}

		seedQuestions(ctx, pool, log, model.QuestionKindTest, chapterID, fmt.Sprintf("%s test", chTitle), 5)
	}

	seedQuestions(ctx, pool, log, model.QuestionKindExam, courseID, "final exam", 10)

	fmt.Printf("Seeded course %s (%s)\n", title, courseID)
}

// seedQuestions inserts n four-option questions attached to the parent
// matching kind. Every correct answer is "A" so manual walkthroughs are easy.
func seedQuestions(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, kind model.QuestionKind, parentID uuid.UUID, label string, n int) {
	var lessonID, chapterID, courseID *uuid.UUID
	switch kind {
	case model.QuestionKindQuiz:
		lessonID = &parentID
	case model.QuestionKindTest:
		chapterID = &parentID
	case model.QuestionKindExam:
		courseID = &parentID
	}

	options := `["A", "B", "C", "D"]`
	for i := 1; i <= n; i++ {
		if _, err := pool.Exec(ctx,
			`INSERT INTO questions (id, kind, lesson_id, chapter_id, course_id, question_text, options, correct_answer, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, 'A', $8)`,
			uuid.New(), kind, lessonID, chapterID, courseID,
			fmt.Sprintf("Question %d of the %s", i, label), options, i); err != nil {
			log.Fatal().Err(err).Str("label", label).Msg("Failed to insert question")
		}
	}
}
