package service

import (
	"github.com/google/uuid"
	"github.com/unilearn/quizcore-backend/internal/model"
)

// GradeResult is the outcome of auto-grading one attempt.
type GradeResult struct {
	TotalScore      int
	MaxScore        int
	ScorePercentage float64
	// Answers holds exactly one graded row per question of the quiz,
	// including zero-point placeholders for questions never answered.
	Answers []model.StudentAnswer
}

// autoGrade computes the objective score of an attempt from the quiz's
// question tree and the student's saved answers.
//
// MaxScore is the sum of all question points, independent of how many
// questions were answered. A selected option earns the question's points iff
// it is marked correct; an unanswered question (no row, or a row with no
// selection) earns zero and is still represented in the output. The
// computation is deterministic and idempotent: re-running it against the
// same answers yields the same result.
func autoGrade(questions []model.Question, answers []model.StudentAnswer) GradeResult {
	byQuestion := make(map[uuid.UUID]*model.StudentAnswer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	result := GradeResult{Answers: make([]model.StudentAnswer, 0, len(questions))}

	for _, q := range questions {
		result.MaxScore += q.Points

		graded := model.StudentAnswer{QuestionID: q.ID}
		if saved, ok := byQuestion[q.ID]; ok {
			graded = *saved
		}
		graded.IsCorrect = false
		earned := 0

		if graded.SelectedOptionID != nil {
			for _, o := range q.Options {
				if o.ID == *graded.SelectedOptionID {
					graded.IsCorrect = o.IsCorrect
					break
				}
			}
			if graded.IsCorrect {
				earned = q.Points
			}
		}

		graded.PointsEarned = &earned
		result.TotalScore += earned
		result.Answers = append(result.Answers, graded)
	}

	// Guard the zero-point quiz.
	if result.MaxScore > 0 {
		result.ScorePercentage = float64(result.TotalScore) / float64(result.MaxScore) * 100
	}
	return result
}
