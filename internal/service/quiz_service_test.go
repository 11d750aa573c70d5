package service

import (
	"errors"
	"testing"

	"github.com/unilearn/quizcore-backend/internal/model"
)

func validDraftQuestion() model.QuestionDraft {
	return model.QuestionDraft{
		QuestionText: "What does TCP stand for?",
		Points:       2,
		Options: []model.OptionDraft{
			{OptionText: "Transmission Control Protocol", IsCorrect: true},
			{OptionText: "Transfer Connection Protocol"},
			{OptionText: "Timed Control Packet"},
		},
	}
}

func TestBuildQuestionTree_AssignsOrderAndLabels(t *testing.T) {
	questions, err := buildQuestionTree([]model.QuestionDraft{
		validDraftQuestion(),
		validDraftQuestion(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(questions))
	}
	for i, q := range questions {
		if q.OrderNum != i+1 {
			t.Fatalf("question %d OrderNum = %d, want %d", i, q.OrderNum, i+1)
		}
	}

	labels := []string{"A", "B", "C"}
	for i, o := range questions[0].Options {
		if o.OptionLabel != labels[i] {
			t.Fatalf("option %d label = %q, want %q", i, o.OptionLabel, labels[i])
		}
		if o.OrderNum != i+1 {
			t.Fatalf("option %d OrderNum = %d, want %d", i, o.OrderNum, i+1)
		}
	}
}

func TestBuildQuestionTree_KeepsExplicitLabels(t *testing.T) {
	draft := validDraftQuestion()
	draft.Options[1].OptionLabel = "X"

	questions, err := buildQuestionTree([]model.QuestionDraft{draft})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := questions[0].Options[1].OptionLabel; got != "X" {
		t.Fatalf("label = %q, want explicit label kept", got)
	}
	if got := questions[0].Options[2].OptionLabel; got != "C" {
		t.Fatalf("label = %q, want positional fallback C", got)
	}
}

func TestBuildQuestionTree_Rejections(t *testing.T) {
	noQuestions := []model.QuestionDraft{}

	oneOption := validDraftQuestion()
	oneOption.Options = oneOption.Options[:1]

	noCorrect := validDraftQuestion()
	noCorrect.Options[0].IsCorrect = false

	twoCorrect := validDraftQuestion()
	twoCorrect.Options[1].IsCorrect = true

	tests := []struct {
		name   string
		drafts []model.QuestionDraft
		want   error
	}{
		{"no questions", noQuestions, ErrNoQuestions},
		{"one option", []model.QuestionDraft{oneOption}, ErrTooFewOptions},
		{"no correct option", []model.QuestionDraft{noCorrect}, ErrCorrectOptionCount},
		{"two correct options", []model.QuestionDraft{twoCorrect}, ErrCorrectOptionCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildQuestionTree(tt.drafts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// One bad question anywhere in the draft rejects the whole tree.
func TestBuildQuestionTree_RejectsWholeDraft(t *testing.T) {
	bad := validDraftQuestion()
	bad.Options[0].IsCorrect = false

	_, err := buildQuestionTree([]model.QuestionDraft{validDraftQuestion(), bad})
	if !errors.Is(err, ErrCorrectOptionCount) {
		t.Fatalf("err = %v, want %v", err, ErrCorrectOptionCount)
	}
}
