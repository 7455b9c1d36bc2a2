// mock_ai.go - Scripted AI client for tests
package mocks

import (
	"context"
	"sync"
	"time"
)

// MockAIResult is one scripted outcome for a generation call.
type MockAIResult struct {
	Content string
	Err     error
	Delay   time.Duration
}

// MockAIClient replays scripted results in call order; the last result
// repeats once the script runs out. Prompts records every request so
// tests can assert on payload shape and call counts.
type MockAIClient struct {
	mu      sync.Mutex
	results []MockAIResult
	Prompts []string
	Closed  bool
}

func NewMockAIClient(results ...MockAIResult) *MockAIClient {
	return &MockAIClient{results: results}
}

// GenerateContent returns the next scripted result. A result with a
// delay waits it out unless the context ends first, mirroring how a real
// call reacts to cancellation.
func (m *MockAIClient) GenerateContent(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	m.mu.Lock()
	index := len(m.Prompts)
	m.Prompts = append(m.Prompts, prompt)
	if index >= len(m.results) {
		index = len(m.results) - 1
	}
	var result MockAIResult
	if index >= 0 {
		result = m.results[index]
	} else {
		result = MockAIResult{Content: "mock generated content"}
	}
	m.mu.Unlock()

	if result.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(result.Delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return result.Content, result.Err
}

// CallCount returns how many generation calls were made.
func (m *MockAIClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// LastPrompt returns the most recent prompt, or "" before any call.
func (m *MockAIClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

func (m *MockAIClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
