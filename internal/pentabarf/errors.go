package pentabarf

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSchedule is returned when the document ends before a <schedule>
	// root element is found.
	ErrNotSchedule = errors.New("pentabarf: not a schedule document")

	// ErrMissingAttr is wrapped in a *ParseError when a required attribute
	// such as day index or event id is absent.
	ErrMissingAttr = errors.New("missing attribute")
	// ErrNoDay is wrapped in a *ParseError when an event has a start time
	// but no enclosing <day> has been seen yet.
	ErrNoDay = errors.New("event start outside of a <day>")
)

// ParseError describes a fatal problem at a position in the document.
type ParseError struct {
	Element string
	Attr    string // empty when the problem is the element text
	Line    int
	Column  int
	Err     error
}

func (e *ParseError) Error() string {
	where := "<" + e.Element + ">"
	if e.Attr != "" {
		where += " " + e.Attr
	}
	return fmt.Sprintf("pentabarf: %d:%d: %s: %v", e.Line, e.Column, where, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
