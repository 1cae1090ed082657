package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrGeneration    = errors.New("generation failure")
	ErrBusy          = errors.New("lesson busy")
	ErrTimeout       = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrGeneration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ConfigurationError reports every offending path or field detected in one pass.
type ConfigurationError struct {
	Operation string
	Problems  []string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ErrConfiguration.Error()
	}
	detail := strings.Join(e.Problems, "; ")
	if op := strings.TrimSpace(e.Operation); op != "" {
		if detail == "" {
			return fmt.Sprintf("%s: %s", ErrConfiguration, op)
		}
		return fmt.Sprintf("%s: %s: %s", ErrConfiguration, op, detail)
	}
	return fmt.Sprintf("%s: %s", ErrConfiguration, detail)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Problems collects configuration problems so callers can report all of them at once.
type Problems struct {
	operation string
	items     []string
}

// NewProblems starts an empty collection for the named operation.
func NewProblems(operation string) *Problems {
	return &Problems{operation: operation}
}

// Addf records one problem.
func (p *Problems) Addf(format string, args ...any) {
	p.items = append(p.items, fmt.Sprintf(format, args...))
}

// Merge folds problems from a nested ConfigurationError. Other errors are
// recorded by their message.
func (p *Problems) Merge(err error) {
	if err == nil {
		return
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		p.items = append(p.items, cfgErr.Problems...)
		return
	}
	p.items = append(p.items, err.Error())
}

// Len returns the number of recorded problems.
func (p *Problems) Len() int { return len(p.items) }

// Err returns nil when no problems were recorded.
func (p *Problems) Err() error {
	if len(p.items) == 0 {
		return nil
	}
	items := make([]string, len(p.items))
	copy(items, p.items)
	return &ConfigurationError{Operation: p.operation, Problems: items}
}

// GenerationError reports an external tool that failed or produced no output.
type GenerationError struct {
	Category  string
	Operation string
	Output    string
	Err       error
}

func (e *GenerationError) Error() string {
	parts := []string{ErrGeneration.Error()}
	if c := strings.TrimSpace(e.Category); c != "" {
		parts = append(parts, c)
	}
	if op := strings.TrimSpace(e.Operation); op != "" {
		parts = append(parts, op)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		parts = append(parts, out)
	}
	msg := strings.Join(parts, ": ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() []error {
	errs := []error{ErrGeneration}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		errs = append(errs, ErrTimeout)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Generation wraps a tool failure for the named asset category.
func Generation(category, operation, output string, err error) error {
	return &GenerationError{Category: category, Operation: operation, Output: output, Err: err}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
