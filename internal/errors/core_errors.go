package errors

import (
	"fmt"

	"cfgmid/internal/ast"
)

// AsError renders ce as a plain error for callers that only have an `error`
// return to work with and no source file to format ce against (e.g. a CFG
// invariant check running before anything has decided whether to print
// diagnostics with source context via ErrorReporter).
func AsError(ce CompilerError) error {
	return fmt.Errorf("%s[%s]: %s", ce.Level, ce.Code, ce.Message)
}

// CoreErrorBuilder provides a fluent interface for constructing a core
// diagnostic with suggestions and notes attached.
type CoreErrorBuilder struct {
	err CompilerError
}

// NewCoreError starts building a hard error at pos.
func NewCoreError(code, message string, pos ast.Loc) *CoreErrorBuilder {
	return &CoreErrorBuilder{
		err: CompilerError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewCoreWarning starts building a warning at pos.
func NewCoreWarning(code, message string, pos ast.Loc) *CoreErrorBuilder {
	return &CoreErrorBuilder{
		err: CompilerError{
			Level:    Warning,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// WithLength sets the length of the error span.
func (b *CoreErrorBuilder) WithLength(length int) *CoreErrorBuilder {
	b.err.Length = length
	return b
}

// WithSuggestion adds a suggestion to the error.
func (b *CoreErrorBuilder) WithSuggestion(message string) *CoreErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithNote adds a note to the error.
func (b *CoreErrorBuilder) WithNote(note string) *CoreErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error.
func (b *CoreErrorBuilder) WithHelp(help string) *CoreErrorBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed compiler error.
func (b *CoreErrorBuilder) Build() CompilerError {
	return b.err
}
