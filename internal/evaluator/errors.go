package evaluator

import (
	"errors"
	"fmt"
	"rpy/internal/ast"
)

type ErrorKind int

const (
	LookupFailure ErrorKind = iota
	TypeMismatch
	ArityMismatch
	PatternFailure
	AssertionFailure
	ProgramTermination
	ResourceExhaustion
	Unimplemented
)

var errorKindNames = [...]string{
	"LookupFailure",
	"TypeMismatch",
	"ArityMismatch",
	"PatternFailure",
	"AssertionFailure",
	"ProgramTermination",
	"ResourceExhaustion",
	"Unimplemented",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "Unknown"
}

// Error is a diagnosed evaluation failure. Message is what the front end
// prints.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// KindOf reports the kind of an evaluation failure.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// propagation is raised by the ? operator on Err and Nothing. It travels as
// an error until the statement executor intercepts it.
type propagation struct {
	Value ast.Expression
}

func (p *propagation) Error() string {
	return "propagated error: " + p.Value.String()
}

const nothingPropagated = "could not unwrap Nothing"

func asPropagation(err error) (*propagation, bool) {
	var p *propagation
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}
