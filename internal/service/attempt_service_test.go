package service

import (
	"testing"
	"time"
)

func TestRemainingSeconds(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		limit   int
		elapsed time.Duration
		want    int
	}{
		{"untimed quiz", 0, time.Hour, -1},
		{"just started", 30, 0, 30 * 60},
		{"halfway", 30, 15 * time.Minute, 15 * 60},
		{"one second left", 30, 30*time.Minute - time.Second, 1},
		{"exactly expired", 30, 30 * time.Minute, 0},
		{"past expiry floors at zero", 30, 2 * time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingSeconds(start, tt.limit, start.Add(tt.elapsed))
			if got != tt.want {
				t.Fatalf("RemainingSeconds = %d, want %d", got, tt.want)
			}
		})
	}
}
