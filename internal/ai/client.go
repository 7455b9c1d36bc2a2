// client.go - OpenAI-compatible chat completion client
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"docsite-generator/internal/config"
	"docsite-generator/internal/errs"
	"docsite-generator/internal/utils"
	"docsite-generator/pkg/logger"
)

// Client generates text from a prompt. Concrete providers are adapters
// implementing this interface.
type Client interface {
	GenerateContent(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	Close() error
}

// ChatCompletionRequest is the chat completions request body.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// providerProfile holds the per-provider endpoint and credential wiring.
// A profile without a default base URL requires its base env var.
type providerProfile struct {
	defaultBaseURL string
	keyEnv         string
	baseEnv        string
}

var providerProfiles = map[string]providerProfile{
	"openai":     {defaultBaseURL: "https://api.openai.com/v1", keyEnv: "OPENAI_API_KEY", baseEnv: "OPENAI_API_BASE"},
	"azure":      {keyEnv: "AZURE_API_KEY", baseEnv: "AZURE_API_BASE"},
	"openrouter": {defaultBaseURL: "https://openrouter.ai/api/v1", keyEnv: "OPENROUTER_API_KEY", baseEnv: "OPENROUTER_API_BASE"},
	"anthropic":  {defaultBaseURL: "https://api.anthropic.com/v1", keyEnv: "ANTHROPIC_API_KEY", baseEnv: "ANTHROPIC_API_BASE"},
	"ollama":     {defaultBaseURL: "http://localhost:11434/v1", baseEnv: "OLLAMA_API_BASE"},
}

// ParseModelRef splits a "provider/model" reference on the first slash.
// The model segment is passed through untouched, so nested model names
// like "openrouter/anthropic/claude-3.5-sonnet" keep their inner slashes.
func ParseModelRef(modelRef string) (provider, model string, err error) {
	provider, model, found := strings.Cut(modelRef, "/")
	if !found || provider == "" || model == "" {
		return "", "", fmt.Errorf("model reference %q must have the form provider/model", modelRef)
	}
	return provider, model, nil
}

// OpenAIClient talks to one OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	modelRef   string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient builds the adapter for modelRef. Credentials come from the
// provider's environment variables; a missing required credential fails
// with an unauthenticated generation error before any network call.
func NewClient(modelRef string, cfg config.ConfigAI, logger logger.Logger) (Client, error) {
	if modelRef == "" {
		return nil, fmt.Errorf("model reference cannot be empty")
	}

	provider, model, err := ParseModelRef(modelRef)
	if err != nil {
		return nil, errs.NewGenerationError(errs.KindModelUnavailable, modelRef, err)
	}

	profile, ok := providerProfiles[provider]
	if !ok {
		return nil, errs.NewGenerationError(errs.KindModelUnavailable, modelRef,
			fmt.Errorf("unknown provider %q", provider))
	}

	baseURL := cfg.BaseURL
	if baseURL == "" && profile.baseEnv != "" {
		baseURL = os.Getenv(profile.baseEnv)
	}
	if baseURL == "" {
		baseURL = profile.defaultBaseURL
	}
	if baseURL == "" {
		return nil, errs.NewGenerationError(errs.KindUnauthenticated, modelRef,
			fmt.Errorf("provider %s requires %s to be set", provider, profile.baseEnv))
	}

	apiKey := ""
	if profile.keyEnv != "" {
		apiKey = os.Getenv(profile.keyEnv)
		if apiKey == "" {
			return nil, errs.NewGenerationError(errs.KindUnauthenticated, modelRef,
				fmt.Errorf("missing %s for provider %s", profile.keyEnv, provider))
		}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultConfigAI.TimeoutSeconds) * time.Second
	}

	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		modelRef:   modelRef,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// GenerateContent sends one chat completion request and extracts the
// response text. Failures are classified into generation error kinds so
// the engine can pick the retry treatment.
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	startTime := time.Now()
	c.logger.Debug("generation request started - base: %s, model: %s, max tokens: %d, temperature: %.2f",
		c.baseURL, c.model, maxTokens, temperature)

	req := &ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return "", errs.NewGenerationError(errs.KindInvalidResponse, c.modelRef,
			fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(requestBody)))
	if err != nil {
		return "", errs.NewGenerationError(errs.KindModelUnavailable, c.modelRef,
			fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("generation request failed - error: %v", err)
		if errors.Is(err, context.Canceled) {
			return "", context.Canceled
		}
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return "", errs.NewGenerationError(errs.KindTimeout, c.modelRef, err)
		}
		return "", errs.NewGenerationError(errs.KindModelUnavailable, c.modelRef,
			fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.NewGenerationError(errs.KindInvalidResponse, c.modelRef,
			fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", errs.NewGenerationError(kindFromStatus(resp.StatusCode), c.modelRef,
			fmt.Errorf("api request failed with status %d: %s", resp.StatusCode, bodySnippet(body)))
	}

	content := extractContent(body)
	if content == "" {
		return "", errs.NewGenerationError(errs.KindInvalidResponse, c.modelRef,
			errors.New("empty or unrecognized response content"))
	}

	c.logger.Debug("generation request completed - model: %s, response: %d chars, duration: %v",
		c.model, len(content), time.Since(startTime))
	return content, nil
}

// Close releases client resources. The shared HTTP client needs none.
func (c *OpenAIClient) Close() error {
	return nil
}

// extractContent pulls the generated text out of a chat completions
// response, tolerating the variant shapes compatible providers return.
func extractContent(body []byte) string {
	for _, path := range []string{"choices.0.message.content", "message.content", "response"} {
		if value := gjson.GetBytes(body, path); value.Exists() {
			return value.String()
		}
	}
	return ""
}

// kindFromStatus maps an HTTP response status onto a generation error
// kind.
func kindFromStatus(status int) errs.GenerationErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errs.KindUnauthenticated
	case status == http.StatusNotFound:
		return errs.KindModelUnavailable
	case status == http.StatusTooManyRequests:
		return errs.KindRateLimited
	case status >= 500:
		return errs.KindModelUnavailable
	default:
		return errs.KindInvalidResponse
	}
}

func bodySnippet(body []byte) string {
	return utils.TruncateString(strings.TrimSpace(string(body)), 200)
}
