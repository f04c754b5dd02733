package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
)

// QuestionResult is one graded row, returned for review after submission.
// It never feeds back into gating decisions.
type QuestionResult struct {
	QuestionID      uuid.UUID `json:"question_id"`
	QuestionText    string    `json:"question_text"`
	SubmittedAnswer string    `json:"submitted_answer"`
	CorrectAnswer   string    `json:"correct_answer"`
	Correct         bool      `json:"correct"`
	Explanation     *string   `json:"explanation,omitempty"`
}

// GradeResult is the outcome of grading a submission against a snapshot.
type GradeResult struct {
	Score          int              `json:"score"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	Passed         bool             `json:"passed"`
	PassingScore   int              `json:"passing_score"`
	Results        []QuestionResult `json:"results"`
}

// ValidateAnswers rejects malformed payloads before any attempt is consumed:
// more answers than questions, duplicate question ids, or ids not present in
// the snapshot. Missing answers are fine — they grade as incorrect.
func ValidateAnswers(snapshot []model.SnapshotQuestion, answers []model.AnswerSubmission) error {
	if len(answers) > len(snapshot) {
		return &ValidationError{Detail: fmt.Sprintf("%d answers submitted for %d questions", len(answers), len(snapshot))}
	}

	known := make(map[uuid.UUID]struct{}, len(snapshot))
	for _, q := range snapshot {
		known[q.ID] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{}, len(answers))
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			return &ValidationError{Detail: fmt.Sprintf("unknown question id %s", a.QuestionID)}
		}
		if _, dup := seen[a.QuestionID]; dup {
			return &ValidationError{Detail: fmt.Sprintf("duplicate answer for question %s", a.QuestionID)}
		}
		seen[a.QuestionID] = struct{}{}
	}
	return nil
}

// Grade scores a submission against a frozen question snapshot.
// score = round(correct/total*100); passed is boundary inclusive.
func Grade(snapshot []model.SnapshotQuestion, answers []model.AnswerSubmission, passingScore int) GradeResult {
	submitted := make(map[uuid.UUID]string, len(answers))
	for _, a := range answers {
		submitted[a.QuestionID] = a.Answer
	}

	result := GradeResult{
		TotalQuestions: len(snapshot),
		PassingScore:   passingScore,
		Results:        make([]QuestionResult, 0, len(snapshot)),
	}

	for _, q := range snapshot {
		answer := submitted[q.ID] // Unanswered grades as incorrect.
		correct := answersMatch(answer, q.CorrectAnswer)
		if correct {
			result.CorrectCount++
		}
		result.Results = append(result.Results, QuestionResult{
			QuestionID:      q.ID,
			QuestionText:    q.QuestionText,
			SubmittedAnswer: answer,
			CorrectAnswer:   q.CorrectAnswer,
			Correct:         correct,
			Explanation:     q.Explanation,
		})
	}

	if result.TotalQuestions > 0 {
		result.Score = int(math.Round(float64(result.CorrectCount) / float64(result.TotalQuestions) * 100))
	}
	result.Passed = result.Score >= passingScore
	return result
}

func answersMatch(submitted, correct string) bool {
	return submitted != "" && strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}
