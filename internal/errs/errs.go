// errs.go - Run-level error taxonomy

package errs

import (
	"errors"
	"fmt"
)

// ScanError reports a failed repository scan. It is fatal for the whole
// run: no section work starts after one.
type ScanError struct {
	Path string
	Err  error
}

func NewScanError(path string, err error) *ScanError {
	return &ScanError{Path: path, Err: err}
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("failed to scan repository %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// PromptResolutionError reports a section whose prompt path could not be
// resolved. It is fatal for that section only.
type PromptResolutionError struct {
	SectionID  string
	PromptPath string
	Err        error
}

func NewPromptResolutionError(sectionID, promptPath string, err error) *PromptResolutionError {
	return &PromptResolutionError{SectionID: sectionID, PromptPath: promptPath, Err: err}
}

func (e *PromptResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve prompt %s for section %s: %v", e.PromptPath, e.SectionID, e.Err)
}

func (e *PromptResolutionError) Unwrap() error { return e.Err }

// GenerationErrorKind classifies AI backend failures. The kind decides the
// retry treatment, so adapters must map transport outcomes onto exactly
// one kind.
type GenerationErrorKind string

const (
	KindModelUnavailable GenerationErrorKind = "model_unavailable"
	KindRateLimited      GenerationErrorKind = "rate_limited"
	KindInvalidResponse  GenerationErrorKind = "invalid_response"
	KindTimeout          GenerationErrorKind = "timeout"
	KindUnauthenticated  GenerationErrorKind = "unauthenticated"
)

// Retryable reports whether the kind is eligible for backoff retries.
// KindInvalidResponse gets a single reformulated retry instead, which the
// engine handles separately.
func (k GenerationErrorKind) Retryable() bool {
	return k == KindRateLimited || k == KindTimeout
}

// GenerationError reports a failed AI content request.
type GenerationError struct {
	Kind  GenerationErrorKind
	Model string
	Err   error
}

func NewGenerationError(kind GenerationErrorKind, model string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Model: model, Err: err}
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s) on model %s: %v", e.Kind, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// TemplateAssemblyError reports an unusable output location. It is fatal
// for the whole run: no page can be produced at all.
type TemplateAssemblyError struct {
	Path string
	Err  error
}

func NewTemplateAssemblyError(path string, err error) *TemplateAssemblyError {
	return &TemplateAssemblyError{Path: path, Err: err}
}

func (e *TemplateAssemblyError) Error() string {
	return fmt.Sprintf("failed to assemble site at %s: %v", e.Path, e.Err)
}

func (e *TemplateAssemblyError) Unwrap() error { return e.Err }

// AsGeneration unwraps err to a GenerationError if one is in the chain.
func AsGeneration(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}

// IsRunFatal reports whether err must abort the whole run rather than a
// single section.
func IsRunFatal(err error) bool {
	var scanErr *ScanError
	var tmplErr *TemplateAssemblyError
	return errors.As(err, &scanErr) || errors.As(err, &tmplErr)
}
