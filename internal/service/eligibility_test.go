package service

import (
	"testing"
	"time"

	"github.com/unilearn/quizcore-backend/internal/model"
)

func publishedQuiz() *model.Quiz {
	return &model.Quiz{
		Title:       "Networking basics",
		IsPublished: true,
	}
}

func TestCanStartAttempt_PublishedNoLimits(t *testing.T) {
	if denied := CanStartAttempt(publishedQuiz(), 0, time.Now()); denied != nil {
		t.Fatalf("expected eligible, got %v", denied)
	}
}

func TestCanStartAttempt_Unavailable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		quiz *model.Quiz
	}{
		{"nil quiz", nil},
		{"unpublished", &model.Quiz{IsPublished: false}},
		{"soft-deleted", &model.Quiz{IsPublished: true, IsDeleted: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			denied := CanStartAttempt(tt.quiz, 0, now)
			if denied == nil {
				t.Fatal("expected denial")
			}
			if denied.Reason != DenyNotAvailable {
				t.Fatalf("reason = %s, want %s", denied.Reason, DenyNotAvailable)
			}
		})
	}
}

func TestCanStartAttempt_Window(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  DenyReason // "" means eligible
	}{
		{"no window", nil, nil, ""},
		{"inside window", &before, &after, ""},
		{"not yet open", &after, nil, DenyNotStarted},
		{"already closed", nil, &before, DenyEnded},
		{"starts exactly now", &now, nil, ""},
		{"ends exactly now", nil, &now, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := publishedQuiz()
			quiz.StartDate = tt.start
			quiz.EndDate = tt.end

			denied := CanStartAttempt(quiz, 0, now)
			if tt.want == "" {
				if denied != nil {
					t.Fatalf("expected eligible, got %v", denied)
				}
				return
			}
			if denied == nil {
				t.Fatalf("expected %s denial", tt.want)
			}
			if denied.Reason != tt.want {
				t.Fatalf("reason = %s, want %s", denied.Reason, tt.want)
			}
		})
	}
}

func TestCanStartAttempt_Quota(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		submitted   int
		wantDenied  bool
	}{
		{"unlimited never exhausts", 0, 500, false},
		{"under quota", 3, 2, false},
		{"at quota", 3, 3, true},
		{"over quota", 3, 7, true},
		{"single attempt used", 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := publishedQuiz()
			quiz.MaxAttempts = tt.maxAttempts

			denied := CanStartAttempt(quiz, tt.submitted, time.Now())
			if tt.wantDenied {
				if denied == nil {
					t.Fatal("expected quota denial")
				}
				if denied.Reason != DenyQuotaExceeded {
					t.Fatalf("reason = %s, want %s", denied.Reason, DenyQuotaExceeded)
				}
				return
			}
			if denied != nil {
				t.Fatalf("expected eligible, got %v", denied)
			}
		})
	}
}

// The checks run in a fixed order: availability beats window beats quota.
func TestCanStartAttempt_CheckOrder(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	quiz := &model.Quiz{
		IsPublished: false,
		EndDate:     &past,
		MaxAttempts: 1,
	}
	denied := CanStartAttempt(quiz, 5, now)
	if denied == nil || denied.Reason != DenyNotAvailable {
		t.Fatalf("expected %s to win, got %v", DenyNotAvailable, denied)
	}

	quiz.IsPublished = true
	denied = CanStartAttempt(quiz, 5, now)
	if denied == nil || denied.Reason != DenyEnded {
		t.Fatalf("expected %s to win over quota, got %v", DenyEnded, denied)
	}
}

func TestEligibilityError_Message(t *testing.T) {
	quiz := publishedQuiz()
	quiz.MaxAttempts = 2

	denied := CanStartAttempt(quiz, 2, time.Now())
	if denied == nil {
		t.Fatal("expected denial")
	}
	if denied.Error() != "You have used all 2 attempts for this quiz." {
		t.Fatalf("unexpected message: %q", denied.Error())
	}
}
