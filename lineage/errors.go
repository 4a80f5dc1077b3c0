package lineage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound      = errors.New("not found")
	ErrDepthExceeded = errors.New("call depth exceeded")
	ErrArity         = errors.New("wrong number of arguments")
)

type NotFoundKind int

const (
	NotFoundMethod NotFoundKind = iota
	NotFoundType
	NotFoundConstructor
)

// NotFoundError reports a failed lookup. Resolution is deterministic, so
// retrying can never change the outcome.
type NotFoundError struct {
	Kind   NotFoundKind
	Type   string
	Member string
	// Searched lists the chain that was walked, leaf-first.
	Searched []string
	// Arities lists the constructor arities the type does declare.
	Arities []int
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case NotFoundType:
		return fmt.Sprintf("unknown type %q", e.Type)
	case NotFoundConstructor:
		have := make([]string, len(e.Arities))
		for i, a := range e.Arities {
			have[i] = fmt.Sprint(a)
		}
		return fmt.Sprintf("no constructor of %s takes %s arguments (have %s)", e.Type, e.Member, strings.Join(have, ", "))
	default:
		if len(e.Searched) == 0 {
			return fmt.Sprintf("method %q not found on %s", e.Member, e.Type)
		}
		return fmt.Sprintf("method %q not found on %s (searched %s)", e.Member, e.Type, strings.Join(e.Searched, ", "))
	}
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DeclarationError rejects a hierarchy while it is being sealed or loaded.
type DeclarationError struct {
	Type    string
	Message string
}

func (e *DeclarationError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return fmt.Sprintf("type %s: %s", e.Type, e.Message)
}

func declErrorf(typeName, format string, args ...any) *DeclarationError {
	return &DeclarationError{Type: typeName, Message: fmt.Sprintf(format, args...)}
}

type StackFrame struct {
	// Receiver is the most-derived type of the instance being called.
	Receiver string
	// Owner is the type whose body was executing.
	Owner  string
	Member string
}

func (f StackFrame) String() string {
	if f.Receiver == f.Owner {
		return fmt.Sprintf("%s.%s", f.Owner, f.Member)
	}
	return fmt.Sprintf("%s.%s (receiver %s)", f.Owner, f.Member, f.Receiver)
}

// CallError wraps a failure raised inside a method or constructor body with
// the frames that were active, innermost first.
type CallError struct {
	Err    error
	Frames []StackFrame
}

const (
	callErrorFrameHead = 8
	callErrorFrameTail = 8
)

func (ce *CallError) Error() string {
	var b strings.Builder
	b.WriteString(ce.Err.Error())
	renderFrame := func(frame StackFrame) {
		fmt.Fprintf(&b, "\n  at %s", frame)
	}

	if len(ce.Frames) <= callErrorFrameHead+callErrorFrameTail {
		for _, frame := range ce.Frames {
			renderFrame(frame)
		}
		return b.String()
	}

	for _, frame := range ce.Frames[:callErrorFrameHead] {
		renderFrame(frame)
	}
	omitted := len(ce.Frames) - (callErrorFrameHead + callErrorFrameTail)
	fmt.Fprintf(&b, "\n  ... %d frames omitted ...", omitted)
	for _, frame := range ce.Frames[len(ce.Frames)-callErrorFrameTail:] {
		renderFrame(frame)
	}
	return b.String()
}

func (ce *CallError) Unwrap() error { return ce.Err }
