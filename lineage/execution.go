package lineage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

const constructorMember = "new"

type callFrame struct {
	receiver *Type
	owner    *Type
	member   string
}

// execution tracks the frames of one top-level Construct or Invoke.
type execution struct {
	d     *Dispatcher
	ctx   context.Context
	stack []callFrame
}

func (exec *execution) pushFrame(frame callFrame) error {
	if len(exec.stack) >= exec.d.maxDepth {
		return fmt.Errorf("%w (limit %d)", ErrDepthExceeded, exec.d.maxDepth)
	}
	select {
	case <-exec.ctx.Done():
		return exec.ctx.Err()
	default:
	}
	exec.stack = append(exec.stack, frame)
	return nil
}

func (exec *execution) popFrame() {
	if len(exec.stack) == 0 {
		return
	}
	exec.stack = exec.stack[:len(exec.stack)-1]
}

// wrap attaches the active frames to a body failure. Errors that already
// carry frames pass through untouched so the innermost stack is kept.
func (exec *execution) wrap(err error) error {
	var ce *CallError
	if errors.As(err, &ce) {
		return err
	}
	frames := make([]StackFrame, 0, len(exec.stack))
	for i := len(exec.stack) - 1; i >= 0; i-- {
		f := exec.stack[i]
		frames = append(frames, StackFrame{Receiver: f.receiver.name, Owner: f.owner.name, Member: f.member})
	}
	return &CallError{Err: err, Frames: frames}
}

// invoke resolves method starting at start and runs the body found there.
// For a virtual call start is the receiver's own type; for a base call it
// is the parent of the type owning the calling body.
func (exec *execution) invoke(self *Instance, start *Type, method string, args []Value) (Value, error) {
	res, err := exec.d.resolveFrom(start, method)
	if err != nil {
		return NewNil(), err
	}
	m := res.Method
	if m.Params != nil && len(m.Params) != len(args) {
		return NewNil(), fmt.Errorf("%w: %s.%s expects %d, got %d", ErrArity, res.Owner.name, m.Name, len(m.Params), len(args))
	}
	if err := exec.pushFrame(callFrame{receiver: self.typ, owner: res.Owner, member: method}); err != nil {
		return NewNil(), exec.wrap(err)
	}
	defer exec.popFrame()

	call := &Call{
		Self:   self,
		Args:   slices.Clone(args),
		Owner:  res.Owner,
		Method: method,
		params: m.Params,
		exec:   exec,
	}
	val, err := m.Body(call)
	if err != nil {
		return NewNil(), exec.wrap(err)
	}
	return val, nil
}

// construct runs the constructor chain of t for inst: the parent level
// first, then t's field defaults, then t's own body.
func (exec *execution) construct(inst *Instance, t *Type, args []Value) error {
	ctor, ok := t.constructor(len(args))
	if !ok {
		return &NotFoundError{
			Kind:    NotFoundConstructor,
			Type:    t.name,
			Member:  fmt.Sprint(len(args)),
			Arities: t.arities(),
		}
	}
	if err := exec.pushFrame(callFrame{receiver: inst.typ, owner: t, member: constructorMember}); err != nil {
		return exec.wrap(err)
	}
	defer exec.popFrame()

	if t.parent != nil {
		var baseArgs []Value
		if ctor.Base != nil {
			baseArgs = ctor.Base(args)
		}
		if err := exec.construct(inst, t.parent, baseArgs); err != nil {
			return err
		}
	}

	for name, val := range t.fields {
		inst.fields[name] = val
	}
	exec.d.log.Debug("constructor step",
		zap.String("type", inst.typ.name),
		zap.String("level", t.name),
		zap.Int("arity", len(args)))
	if ctor.Body == nil {
		return nil
	}
	call := &Call{
		Self:   inst,
		Args:   slices.Clone(args),
		Owner:  t,
		params: ctor.Params,
		exec:   exec,
	}
	if err := ctor.Body(call); err != nil {
		return exec.wrap(err)
	}
	return nil
}
