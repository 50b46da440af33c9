package gpx

import (
	"errors"
	"strings"
)

// ErrParse matches every error returned by Parse.
var ErrParse = errors.New("gpx parse error")

// ParseError describes why a document could not be parsed.
// Path is the chain of local element names leading to the offending construct.
type ParseError struct {
	Err  error
	Msg  string
	Path []string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("gpx: ")
	if len(e.Path) > 0 {
		b.WriteString(strings.Join(e.Path, "/"))
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying tokenizer or number parsing error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports ErrParse as a match so callers need not type-assert.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
