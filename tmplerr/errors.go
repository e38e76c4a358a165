// Package tmplerr defines the error taxonomy shared by the template
// materialisation pipeline: emitter, extractor and template.
//
// None of these are recovered from internally — they all propagate out of
// Template.GenerateBefore/GenerateAfter to the caller, who decides whether
// to retry, log, or abort.
package tmplerr

import "fmt"

// ArgumentError reports a caller mistake caught before any parser is
// invoked: a placeholder/parameter arity mismatch, or a malformed import
// specifier passed to the template builder.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return "argument error: " + e.Msg }

// NewArgumentError builds an *ArgumentError with a formatted message.
func NewArgumentError(format string, args ...any) *ArgumentError {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// ParseError wraps a failure from the parser collaborator when it rejects
// the synthesised source. The synthesised text is attached for diagnostics;
// the core never tries to repair or retry the parse.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps err with the synthesised source that failed to parse.
func NewParseError(source string, err error) *ParseError {
	return &ParseError{Source: source, Err: err}
}

// ExtractionError indicates an Emitter/printer invariant violation: the
// Extractor reached the end of the synthetic tree without seeing the end
// marker, or saw an end marker with no matching start.
type ExtractionError struct {
	Msg string
}

func (e *ExtractionError) Error() string { return "extraction invariant violated: " + e.Msg }

// NewExtractionError builds an *ExtractionError with a formatted message.
func NewExtractionError(format string, args ...any) *ExtractionError {
	return &ExtractionError{Msg: fmt.Sprintf(format, args...)}
}

// FormatError wraps a rejection from the auto-formatter collaborator. Only
// the formatter's error is kept; the rejected sub-tree is not attached.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string { return fmt.Sprintf("format error: %v", e.Err) }

func (e *FormatError) Unwrap() error { return e.Err }

// NewFormatError wraps a formatter rejection.
func NewFormatError(err error) *FormatError {
	return &FormatError{Err: err}
}
