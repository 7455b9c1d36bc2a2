// engine.go - Generation policy: retries, reformulation, fallbacks
package ai

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"docsite-generator/internal/config"
	"docsite-generator/internal/errs"
	"docsite-generator/pkg/logger"
)

// Request is one section's generation input. ExistingContent, when set,
// is framed as content to enhance rather than replace.
type Request struct {
	SectionID       string
	Prompt          string
	Context         string
	ExistingContent string
	ModelRef        string
}

// ClientFactory builds the adapter for a model reference.
type ClientFactory func(modelRef string) (Client, error)

// Engine wraps clients with the retry, reformulation, fallback and rate
// limit policy. One engine serves all sections of a run; its limiter
// gates every attempt across workers.
type Engine struct {
	config  config.ConfigAI
	factory ClientFactory
	limiter *rate.Limiter
	logger  logger.Logger
	stats   *CallStats

	mu      sync.Mutex
	clients map[string]Client
}

func NewEngine(cfg config.ConfigAI, factory ClientFactory, logger logger.Logger) *Engine {
	if factory == nil {
		factory = func(modelRef string) (Client, error) {
			return NewClient(modelRef, cfg, logger)
		}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Engine{
		config:  cfg,
		factory: factory,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		stats:   NewCallStats(),
		clients: make(map[string]Client),
	}
}

// Stats returns the engine's call statistics.
func (e *Engine) Stats() *CallStats {
	return e.stats
}

// Generate produces content for req, trying the requested model first and
// the configured fallback models after a terminal failure. The error of
// the last model tried is returned when every model fails.
func (e *Engine) Generate(ctx context.Context, req Request) (string, error) {
	modelRef := req.ModelRef
	if modelRef == "" {
		modelRef = e.config.Model
	}

	payload := buildPayload(req)

	models := []string{modelRef}
	for _, fallback := range e.config.FallbackModels {
		if fallback != "" && fallback != modelRef {
			models = append(models, fallback)
		}
	}

	var lastErr error
	for i, model := range models {
		content, err := e.generateWithModel(ctx, model, req.SectionID, payload)
		if err == nil {
			if i > 0 {
				e.logger.Info("section %s generated by fallback model %s", req.SectionID, model)
			}
			return content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", lastErr
		}
		if i+1 < len(models) {
			e.logger.Warn("model %s failed for section %s: %v, trying fallback %s",
				model, req.SectionID, err, models[i+1])
		}
	}
	return "", lastErr
}

// generateWithModel runs the per-model attempt loop. Rate limited and
// timed out attempts back off exponentially up to the attempt cap; an
// invalid response is retried exactly once with a stricter reformulated
// payload; the remaining kinds fail immediately.
func (e *Engine) generateWithModel(ctx context.Context, modelRef, sectionID, payload string) (string, error) {
	client, err := e.client(modelRef)
	if err != nil {
		return "", err
	}

	maxAttempts := e.config.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := time.Duration(e.config.BackoffInitialMS) * time.Millisecond
	timeout := time.Duration(e.config.TimeoutSeconds) * time.Second

	prompt := payload
	reformulated := false
	attempt := 0
	for {
		attempt++

		if err := e.limiter.Wait(ctx); err != nil {
			return "", ctx.Err()
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		startTime := time.Now()
		content, callErr := client.GenerateContent(attemptCtx, prompt, e.config.MaxTokens, e.config.Temperature)
		cancel()
		e.stats.RecordCall(modelRef, time.Since(startTime), callErr == nil, attempt > 1)

		if callErr == nil {
			return content, nil
		}

		genErr, ok := errs.AsGeneration(callErr)
		if !ok {
			return "", callErr
		}

		if genErr.Kind == errs.KindInvalidResponse && !reformulated {
			reformulated = true
			prompt = reformulatePayload(payload)
			e.logger.Warn("invalid response from model %s for section %s, retrying once with stricter instructions",
				modelRef, sectionID)
			continue
		}

		if genErr.Kind.Retryable() && attempt < maxAttempts {
			e.logger.Warn("generation attempt %d/%d for section %s failed (%s), backing off %v",
				attempt, maxAttempts, sectionID, genErr.Kind, backoff)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return "", callErr
	}
}

// Close releases every client the engine built.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for modelRef, client := range e.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.clients, modelRef)
	}
	return firstErr
}

func (e *Engine) client(modelRef string) (Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if client, ok := e.clients[modelRef]; ok {
		return client, nil
	}
	client, err := e.factory(modelRef)
	if err != nil {
		return nil, err
	}
	e.clients[modelRef] = client
	return client, nil
}

// buildPayload assembles the single combined request text: effective
// context, then the section prompt, then any existing content framed as
// content to enhance.
func buildPayload(req Request) string {
	var builder strings.Builder
	if req.Context != "" {
		builder.WriteString(req.Context)
		builder.WriteString("\n\n")
	}
	builder.WriteString(req.Prompt)
	if req.ExistingContent != "" {
		builder.WriteString("\n\nCONTENT TO ENHANCE (improve it rather than replace it):\n\n")
		builder.WriteString(req.ExistingContent)
	}
	return builder.String()
}

func reformulatePayload(payload string) string {
	return payload + "\n\nIMPORTANT: the previous reply was empty or not usable. " +
		"Respond with only the requested Markdown document body, with no preamble and no explanation."
}
