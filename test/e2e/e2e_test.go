//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/unilearn/quizcore-backend/internal/service"
)

const (
	defaultBaseURL = "http://localhost:8060/api/v1"
	instructorID   = 7001
	studentID      = 8001
)

var (
	baseURL         string
	jwtSecret       string
	instructorToken string
	studentToken    string
	quizID          string
	attemptID       string
	questionIDs     []string
	optionsByQID    map[string][]map[string]interface{}
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	jwtSecret = os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		fmt.Println("JWT_SECRET is required to mint test tokens")
		os.Exit(1)
	}

	var err error
	instructorToken, err = mintToken(service.TokenTypeInstructor, instructorID)
	if err == nil {
		studentToken, err = mintToken(service.TokenTypeStudent, studentID)
	}
	if err != nil {
		fmt.Printf("Token setup failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// mintToken plays the identity service: same claims shape, same HS256 secret.
func mintToken(tokenType service.TokenType, userID int) (string, error) {
	now := time.Now()
	claims := service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		TokenType: tokenType,
		UserID:    userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
}

func doRequest(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func dataField(t *testing.T, body map[string]interface{}, keys ...string) interface{} {
	t.Helper()
	var cur interface{} = body
	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			t.Fatalf("missing %v in %v", keys, body)
		}
		cur = m[k]
	}
	if cur == nil {
		t.Fatalf("missing %v in %v", keys, body)
	}
	return cur
}

func Test01_CreateQuiz(t *testing.T) {
	draft := map[string]interface{}{
		"title":        "E2E Networking Quiz",
		"course_id":    42,
		"max_attempts": 2,
		"questions": []map[string]interface{}{
			{
				"question_text": "What port does HTTPS use?",
				"points":        2,
				"options": []map[string]interface{}{
					{"option_text": "80"},
					{"option_text": "443", "is_correct": true},
				},
			},
			{
				"question_text": "What does DNS resolve?",
				"points":        3,
				"options": []map[string]interface{}{
					{"option_text": "Names to addresses", "is_correct": true},
					{"option_text": "Addresses to routes"},
				},
			},
		},
	}

	status, body := doRequest(t, http.MethodPost, "/instructor/quizzes", instructorToken, draft)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	quizID = dataField(t, body, "data", "quiz", "id").(string)

	questionIDs = nil
	optionsByQID = map[string][]map[string]interface{}{}
	questions := dataField(t, body, "data", "quiz", "questions").([]interface{})
	for _, q := range questions {
		qm := q.(map[string]interface{})
		qid := qm["id"].(string)
		questionIDs = append(questionIDs, qid)
		for _, o := range qm["options"].([]interface{}) {
			optionsByQID[qid] = append(optionsByQID[qid], o.(map[string]interface{}))
		}
	}
	if len(questionIDs) != 2 {
		t.Fatalf("questions = %d, want 2", len(questionIDs))
	}
}

func Test02_RejectTwoCorrectOptions(t *testing.T) {
	draft := map[string]interface{}{
		"title": "Broken quiz",
		"questions": []map[string]interface{}{
			{
				"question_text": "Pick one",
				"points":        1,
				"options": []map[string]interface{}{
					{"option_text": "A", "is_correct": true},
					{"option_text": "B", "is_correct": true},
				},
			},
		},
	}
	status, _ := doRequest(t, http.MethodPost, "/instructor/quizzes", instructorToken, draft)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func Test03_StudentCannotSeeUnpublished(t *testing.T) {
	status, _ := doRequest(t, http.MethodPost, "/student/quizzes/"+quizID+"/attempts", studentToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before publish", status)
	}
}

func Test04_PublishQuiz(t *testing.T) {
	status, body := doRequest(t, http.MethodPost, "/instructor/quizzes/"+quizID+"/publish", instructorToken, map[string]interface{}{})
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
}

func Test05_PaperHidesCorrectFlags(t *testing.T) {
	status, body := doRequest(t, http.MethodGet, "/student/quizzes/"+quizID+"/paper", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	questions := dataField(t, body, "data", "paper", "questions").([]interface{})
	for _, q := range questions {
		for _, o := range q.(map[string]interface{})["options"].([]interface{}) {
			if _, leaked := o.(map[string]interface{})["is_correct"]; leaked {
				t.Fatal("paper leaks is_correct")
			}
		}
	}
}

func Test06_StartAttemptIdempotent(t *testing.T) {
	status, body := doRequest(t, http.MethodPost, "/student/quizzes/"+quizID+"/attempts", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	attemptID = dataField(t, body, "data", "attempt", "id").(string)

	status, body = doRequest(t, http.MethodPost, "/student/quizzes/"+quizID+"/attempts", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("resume status = %d", status)
	}
	if again := dataField(t, body, "data", "attempt", "id").(string); again != attemptID {
		t.Fatalf("resume returned new attempt %s, want %s", again, attemptID)
	}
}

func Test07_AnswerAndSubmit(t *testing.T) {
	// Answer the first question correctly, skip the second.
	qid := questionIDs[0]
	var correctOption string
	for _, o := range optionsByQID[qid] {
		if o["is_correct"] == true {
			correctOption = o["id"].(string)
		}
	}

	status, body := doRequest(t, http.MethodPut, "/student/attempts/"+attemptID+"/answers", studentToken, map[string]interface{}{
		"question_id":        qid,
		"selected_option_id": correctOption,
	})
	if status != http.StatusOK {
		t.Fatalf("save status = %d, body = %v", status, body)
	}

	status, body = doRequest(t, http.MethodPost, "/student/attempts/"+attemptID+"/submit", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("submit status = %d, body = %v", status, body)
	}
	if total := dataField(t, body, "data", "result", "total_score").(float64); total != 2 {
		t.Fatalf("total_score = %v, want 2", total)
	}
	if max := dataField(t, body, "data", "result", "max_score").(float64); max != 5 {
		t.Fatalf("max_score = %v, want 5", max)
	}

	// Second submit conflicts.
	status, _ = doRequest(t, http.MethodPost, "/student/attempts/"+attemptID+"/submit", studentToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("double submit status = %d, want 409", status)
	}
}

func Test08_InstructorGradesAttempt(t *testing.T) {
	status, body := doRequest(t, http.MethodGet, "/instructor/quizzes/"+quizID+"/attempts", instructorToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d, body = %v", status, body)
	}

	status, body = doRequest(t, http.MethodPut, "/instructor/attempts/"+attemptID+"/grade", instructorToken, map[string]interface{}{
		"manual_score": 4,
		"comment":      "partial credit",
	})
	if status != http.StatusOK {
		t.Fatalf("grade status = %d, body = %v", status, body)
	}

	// Student sees the override alongside the untouched objective score.
	status, body = doRequest(t, http.MethodGet, "/student/attempts/"+attemptID+"/result", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("result status = %d, body = %v", status, body)
	}
	attempt := dataField(t, body, "data", "result", "attempt").(map[string]interface{})
	if attempt["manual_score"].(float64) != 4 {
		t.Fatalf("manual_score = %v, want 4", attempt["manual_score"])
	}
	if attempt["total_score"].(float64) != 2 {
		t.Fatalf("objective total_score changed: %v", attempt["total_score"])
	}
}

func Test09_StudentCannotTouchInstructorAPI(t *testing.T) {
	status, _ := doRequest(t, http.MethodGet, "/instructor/quizzes", studentToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
}
