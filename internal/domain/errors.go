package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a diagnostic session does not exist or expired.
	ErrSessionNotFound = errors.New("diagnostic session not found")
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates the session points past the question bank.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted value matches no option of the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidTransition is returned when an event is not allowed in the session's state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrSessionNotCompleted is returned when a result is requested too early.
	ErrSessionNotCompleted = errors.New("diagnostic session not completed")
	// ErrInvalidDefinition wraps every quiz definition consistency failure.
	ErrInvalidDefinition = errors.New("invalid quiz definition")
)

// ValidationError carries per-field intake form errors.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid intake: " + strings.Join(parts, ", ")
}

// DefinitionError describes why a quiz definition was rejected.
type DefinitionError struct {
	QuizID string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("quiz %q: %s", e.QuizID, e.Reason)
}

func (e *DefinitionError) Unwrap() error {
	return ErrInvalidDefinition
}
