package service

import (
	"testing"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSnapshot(n int) []model.SnapshotQuestion {
	snapshot := make([]model.SnapshotQuestion, 0, n)
	for i := 0; i < n; i++ {
		snapshot = append(snapshot, model.SnapshotQuestion{
			ID:            uuid.New(),
			QuestionText:  "q",
			CorrectAnswer: "A",
		})
	}
	return snapshot
}

func answerFirst(snapshot []model.SnapshotQuestion, n int, answer string) []model.AnswerSubmission {
	answers := make([]model.AnswerSubmission, 0, n)
	for i := 0; i < n; i++ {
		answers = append(answers, model.AnswerSubmission{QuestionID: snapshot[i].ID, Answer: answer})
	}
	return answers
}

func TestGrade_PassBoundaryInclusive(t *testing.T) {
	snapshot := makeSnapshot(20)

	// 14/20 = 70, exactly the passing score.
	result := Grade(snapshot, answerFirst(snapshot, 14, "A"), 70)

	assert.Equal(t, 70, result.Score)
	assert.Equal(t, 14, result.CorrectCount)
	assert.Equal(t, 20, result.TotalQuestions)
	assert.True(t, result.Passed)
}

func TestGrade_FailJustBelowBoundary(t *testing.T) {
	snapshot := makeSnapshot(20)

	// 13/20 = 65.
	result := Grade(snapshot, answerFirst(snapshot, 13, "A"), 70)

	assert.Equal(t, 65, result.Score)
	assert.False(t, result.Passed)
}

func TestGrade_Rounding(t *testing.T) {
	tests := []struct {
		total   int
		correct int
		want    int
	}{
		{3, 2, 67},  // 66.67 rounds up
		{3, 1, 33},  // 33.33 rounds down
		{7, 5, 71},  // 71.43
		{6, 1, 17},  // 16.67
		{8, 7, 88},  // 87.5 rounds half away from zero
		{10, 10, 100},
		{10, 0, 0},
	}

	for _, tc := range tests {
		snapshot := makeSnapshot(tc.total)
		result := Grade(snapshot, answerFirst(snapshot, tc.correct, "A"), 70)
		assert.Equal(t, tc.want, result.Score, "%d/%d", tc.correct, tc.total)
	}
}

func TestGrade_UnansweredQuestionsAreIncorrect(t *testing.T) {
	snapshot := makeSnapshot(4)

	result := Grade(snapshot, answerFirst(snapshot, 2, "A"), 50)

	assert.Equal(t, 2, result.CorrectCount)
	assert.Equal(t, 50, result.Score)
	assert.True(t, result.Passed)
	require.Len(t, result.Results, 4)
	assert.Empty(t, result.Results[3].SubmittedAnswer)
	assert.False(t, result.Results[3].Correct)
}

func TestGrade_AnswerMatching(t *testing.T) {
	snapshot := []model.SnapshotQuestion{
		{ID: uuid.New(), CorrectAnswer: "Plasma"},
	}

	tests := []struct {
		answer string
		want   bool
	}{
		{"Plasma", true},
		{"plasma", true},
		{"  Plasma  ", true},
		{"PLASMA", true},
		{"Serum", false},
		{"", false}, // An empty submission is never correct, even for an empty key.
	}

	for _, tc := range tests {
		result := Grade(snapshot, []model.AnswerSubmission{{QuestionID: snapshot[0].ID, Answer: tc.answer}}, 100)
		assert.Equal(t, tc.want, result.Results[0].Correct, "answer %q", tc.answer)
	}
}

func TestGrade_EmptySnapshotScoresZero(t *testing.T) {
	result := Grade(nil, nil, 70)
	assert.Equal(t, 0, result.Score)
	assert.False(t, result.Passed)
}

func TestValidateAnswers(t *testing.T) {
	snapshot := makeSnapshot(3)

	t.Run("accepts partial submissions", func(t *testing.T) {
		assert.NoError(t, ValidateAnswers(snapshot, answerFirst(snapshot, 2, "A")))
	})

	t.Run("accepts empty submissions", func(t *testing.T) {
		assert.NoError(t, ValidateAnswers(snapshot, nil))
	})

	t.Run("rejects excess answers", func(t *testing.T) {
		answers := answerFirst(snapshot, 3, "A")
		answers = append(answers, model.AnswerSubmission{QuestionID: uuid.New(), Answer: "A"})
		var ve *ValidationError
		require.ErrorAs(t, ValidateAnswers(snapshot, answers), &ve)
	})

	t.Run("rejects unknown question ids", func(t *testing.T) {
		answers := []model.AnswerSubmission{{QuestionID: uuid.New(), Answer: "A"}}
		var ve *ValidationError
		require.ErrorAs(t, ValidateAnswers(snapshot, answers), &ve)
		assert.Contains(t, ve.Detail, "unknown question")
	})

	t.Run("rejects duplicate question ids", func(t *testing.T) {
		answers := []model.AnswerSubmission{
			{QuestionID: snapshot[0].ID, Answer: "A"},
			{QuestionID: snapshot[0].ID, Answer: "B"},
		}
		var ve *ValidationError
		require.ErrorAs(t, ValidateAnswers(snapshot, answers), &ve)
		assert.Contains(t, ve.Detail, "duplicate")
	})
}
