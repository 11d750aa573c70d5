package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizPaperKey returns the cache key for a published quiz's student-facing paper.
func (r *CacheKeyStruct) QuizPaperKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:paper", quizID)
}

// QuizTimeLimitKey returns the cache key for a quiz's time limit in minutes.
func (r *CacheKeyStruct) QuizTimeLimitKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:time_limit", quizID)
}

// AttemptStartKey returns the cache key for an attempt's start timestamp.
func (r *CacheKeyStruct) AttemptStartKey(quizID string, studentID int) string {
	return fmt.Sprintf("student:%d:quiz:%s:attempt_start", studentID, quizID)
}

var CacheKey = NewCacheKeyStruct()
