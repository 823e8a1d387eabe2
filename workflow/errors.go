// Package workflow provides the core step-validated workflow engine.
//
// A workflow is a multi-step investigation carried out by an agent across
// several tool invocations. Each invocation reports one step: what was
// examined, what was found, and how confident the agent is. The engine
// validates the report, consolidates findings across steps, and answers with
// pacing guidance plus a status the caller can branch on.
package workflow

import (
	"errors"
	"fmt"
)

// ErrorKind classifies recoverable failures for boundary handling.
type ErrorKind string

const (
	// KindValidation covers malformed requests and bad input data.
	KindValidation ErrorKind = "validation"

	// KindFilesystem covers file access failures during context gathering.
	KindFilesystem ErrorKind = "filesystem"
)

// ValidationError reports a request that violates workflow rules.
//
// Validation errors are recoverable: the caller receives a structured error
// response and can retry with a corrected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConfigurationError reports a deployment problem, such as no providers
// being configured. These are recoverable at the boundary but indicate the
// operator must intervene.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// RecoverableError wraps an error with a kind so the execution boundary can
// route it to the right handler without inspecting messages.
type RecoverableError struct {
	Kind ErrorKind
	Err  error
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *RecoverableError) Unwrap() error {
	return e.Err
}

// FatalError marks a failure that must propagate past the execution boundary
// instead of being converted into an error response. Programming errors and
// broken invariants use this.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Cause)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// Classify sorts an error into one of three buckets for boundary handling:
//
//   - recoverable validation or data errors
//   - recoverable file system errors
//   - everything else, treated as unexpected
//
// Fatal errors are never classified; callers check for *FatalError first
// and re-propagate.
func Classify(err error) ErrorKind {
	var ve *ValidationError
	var ce *ConfigurationError
	var re *RecoverableError

	switch {
	case errors.As(err, &ve), errors.As(err, &ce):
		return KindValidation
	case errors.As(err, &re):
		return re.Kind
	default:
		return ""
	}
}
