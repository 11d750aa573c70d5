package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/unilearn/quizcore-backend/internal/model"
)

// twoQuestionQuiz builds a 2-question tree: Q1 worth 2 points with options
// A (wrong) and B (correct), Q2 worth 3 points with options A (correct)
// and B (wrong).
func twoQuestionQuiz() []model.Question {
	q1 := model.Question{ID: uuid.New(), Points: 2, OrderNum: 1}
	q1.Options = []model.QuestionOption{
		{ID: uuid.New(), QuestionID: q1.ID, OptionLabel: "A"},
		{ID: uuid.New(), QuestionID: q1.ID, OptionLabel: "B", IsCorrect: true},
	}
	q2 := model.Question{ID: uuid.New(), Points: 3, OrderNum: 2}
	q2.Options = []model.QuestionOption{
		{ID: uuid.New(), QuestionID: q2.ID, OptionLabel: "A", IsCorrect: true},
		{ID: uuid.New(), QuestionID: q2.ID, OptionLabel: "B"},
	}
	return []model.Question{q1, q2}
}

func pick(q model.Question, label string) *uuid.UUID {
	for _, o := range q.Options {
		if o.OptionLabel == label {
			id := o.ID
			return &id
		}
	}
	return nil
}

func TestAutoGrade_PartialAnswers(t *testing.T) {
	questions := twoQuestionQuiz()

	// Q1 answered correctly, Q2 never answered.
	answers := []model.StudentAnswer{
		{QuestionID: questions[0].ID, SelectedOptionID: pick(questions[0], "B")},
	}

	result := autoGrade(questions, answers)

	if result.TotalScore != 2 {
		t.Fatalf("TotalScore = %d, want 2", result.TotalScore)
	}
	if result.MaxScore != 5 {
		t.Fatalf("MaxScore = %d, want 5", result.MaxScore)
	}
	if result.ScorePercentage != 40.0 {
		t.Fatalf("ScorePercentage = %f, want 40.0", result.ScorePercentage)
	}
	if len(result.Answers) != 2 {
		t.Fatalf("graded rows = %d, want one per question", len(result.Answers))
	}

	// The unanswered question still gets a zero-point row.
	unanswered := result.Answers[1]
	if unanswered.QuestionID != questions[1].ID {
		t.Fatal("graded rows out of question order")
	}
	if unanswered.IsCorrect || unanswered.PointsEarned == nil || *unanswered.PointsEarned != 0 {
		t.Fatalf("unanswered row graded as %+v, want zero-point placeholder", unanswered)
	}
}

func TestAutoGrade_WrongAnswerEarnsNothing(t *testing.T) {
	questions := twoQuestionQuiz()
	answers := []model.StudentAnswer{
		{QuestionID: questions[0].ID, SelectedOptionID: pick(questions[0], "A")},
		{QuestionID: questions[1].ID, SelectedOptionID: pick(questions[1], "B")},
	}

	result := autoGrade(questions, answers)
	if result.TotalScore != 0 {
		t.Fatalf("TotalScore = %d, want 0", result.TotalScore)
	}
	if result.ScorePercentage != 0 {
		t.Fatalf("ScorePercentage = %f, want 0", result.ScorePercentage)
	}
	for _, a := range result.Answers {
		if a.IsCorrect {
			t.Fatalf("answer %s marked correct", a.QuestionID)
		}
	}
}

func TestAutoGrade_AllCorrect(t *testing.T) {
	questions := twoQuestionQuiz()
	answers := []model.StudentAnswer{
		{QuestionID: questions[0].ID, SelectedOptionID: pick(questions[0], "B")},
		{QuestionID: questions[1].ID, SelectedOptionID: pick(questions[1], "A")},
	}

	result := autoGrade(questions, answers)
	if result.TotalScore != 5 || result.ScorePercentage != 100.0 {
		t.Fatalf("got %d/%d (%.1f%%), want 5/5 (100%%)",
			result.TotalScore, result.MaxScore, result.ScorePercentage)
	}
}

func TestAutoGrade_NoAnswers(t *testing.T) {
	questions := twoQuestionQuiz()

	result := autoGrade(questions, nil)
	if result.TotalScore != 0 || result.MaxScore != 5 {
		t.Fatalf("got %d/%d, want 0/5", result.TotalScore, result.MaxScore)
	}
	if len(result.Answers) != 2 {
		t.Fatalf("graded rows = %d, want placeholders for every question", len(result.Answers))
	}
}

// A row saved with a nil selection (answer cleared) grades as unanswered.
func TestAutoGrade_ClearedSelection(t *testing.T) {
	questions := twoQuestionQuiz()
	answers := []model.StudentAnswer{
		{QuestionID: questions[0].ID, SelectedOptionID: nil},
	}

	result := autoGrade(questions, answers)
	if result.TotalScore != 0 {
		t.Fatalf("TotalScore = %d, want 0", result.TotalScore)
	}
}

func TestAutoGrade_ZeroPointQuiz(t *testing.T) {
	q := model.Question{ID: uuid.New(), Points: 0}
	q.Options = []model.QuestionOption{
		{ID: uuid.New(), IsCorrect: true},
		{ID: uuid.New()},
	}

	result := autoGrade([]model.Question{q}, nil)
	if result.ScorePercentage != 0 {
		t.Fatalf("ScorePercentage = %f, want 0 for a zero-point quiz", result.ScorePercentage)
	}
}

// Grading the same inputs twice yields the same result, including when the
// input rows already carry grades from an earlier run.
func TestAutoGrade_Idempotent(t *testing.T) {
	questions := twoQuestionQuiz()
	answers := []model.StudentAnswer{
		{QuestionID: questions[0].ID, SelectedOptionID: pick(questions[0], "B")},
	}

	first := autoGrade(questions, answers)
	second := autoGrade(questions, first.Answers)

	if first.TotalScore != second.TotalScore ||
		first.MaxScore != second.MaxScore ||
		first.ScorePercentage != second.ScorePercentage {
		t.Fatalf("regrade diverged: %+v vs %+v", first, second)
	}
}

// A selection pointing at an option id outside the question (stale after a
// tree replacement) earns nothing rather than failing.
func TestAutoGrade_StaleOptionID(t *testing.T) {
	questions := twoQuestionQuiz()
	stale := uuid.New()
	answers := []model.StudentAnswer{
		{QuestionID: questions[0].ID, SelectedOptionID: &stale},
	}

	result := autoGrade(questions, answers)
	if result.TotalScore != 0 {
		t.Fatalf("TotalScore = %d, want 0 for stale option", result.TotalScore)
	}
}
