// stats.go - Generation call statistics
package ai

import (
	"fmt"
	"sync"
	"time"
)

// CallStats tracks every generation attempt across a run. Workers record
// concurrently, so all access goes through the mutex.
type CallStats struct {
	mu sync.Mutex

	TotalCalls    int            `json:"total_calls"`
	SuccessCalls  int            `json:"success_calls"`
	FailedCalls   int            `json:"failed_calls"`
	RetryCalls    int            `json:"retry_calls"`
	TotalDuration time.Duration  `json:"total_duration"`
	MinDuration   time.Duration  `json:"min_duration"`
	MaxDuration   time.Duration  `json:"max_duration"`
	ModelCalls    map[string]int `json:"model_calls"`
}

func NewCallStats() *CallStats {
	return &CallStats{
		MinDuration: time.Hour,
		ModelCalls:  make(map[string]int),
	}
}

// RecordCall records one attempt against one model.
func (s *CallStats) RecordCall(modelRef string, duration time.Duration, success, retry bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalCalls++
	s.TotalDuration += duration
	s.ModelCalls[modelRef]++

	if success {
		s.SuccessCalls++
	} else {
		s.FailedCalls++
	}
	if retry {
		s.RetryCalls++
	}

	if duration < s.MinDuration {
		s.MinDuration = duration
	}
	if duration > s.MaxDuration {
		s.MaxDuration = duration
	}
}

// GetSuccessRate returns the success percentage over all attempts.
func (s *CallStats) GetSuccessRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.SuccessCalls) / float64(s.TotalCalls) * 100
}

// Calls returns the total attempt count.
func (s *CallStats) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TotalCalls
}

func (s *CallStats) String() string {
	rate := s.GetSuccessRate()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.TotalCalls == 0 {
		return "AI call stats: no calls recorded"
	}
	return fmt.Sprintf("AI call stats - total: %d, success: %d, failed: %d, retries: %d, success rate: %.1f%%, total duration: %v, min: %v, max: %v",
		s.TotalCalls, s.SuccessCalls, s.FailedCalls, s.RetryCalls, rate, s.TotalDuration, s.MinDuration, s.MaxDuration)
}
