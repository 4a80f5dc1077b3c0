package lineage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Call is handed to every method and constructor body while it runs.
type Call struct {
	Self *Instance
	Args []Value
	// Owner is the type declaring the running body. It is not the
	// receiver's type when the body was inherited or reached by a base call.
	Owner *Type
	// Method is empty inside constructor bodies.
	Method string

	params []string
	exec   *execution
}

func (c *Call) Context() context.Context { return c.exec.ctx }

// Arg returns the i-th positional argument, or nil when absent.
func (c *Call) Arg(i int) Value {
	if i < 0 || i >= len(c.Args) {
		return NewNil()
	}
	return c.Args[i]
}

// Param returns an argument by its declared parameter name.
func (c *Call) Param(name string) (Value, bool) {
	for i, p := range c.params {
		if p == name && i < len(c.Args) {
			return c.Args[i], true
		}
	}
	return NewNil(), false
}

func (c *Call) Println(a ...any) {
	fmt.Fprintln(c.exec.d.out, a...)
}

func (c *Call) Printf(format string, a ...any) {
	fmt.Fprintf(c.exec.d.out, format, a...)
}

// Invoke makes a virtual call on Self, resolved from its most-derived type.
func (c *Call) Invoke(method string, args ...Value) (Value, error) {
	return c.exec.invoke(c.Self, c.Self.typ, method, args)
}

// CallBase runs the next implementation of the current method above Owner.
// Each nested base call climbs exactly one declaring level, whatever the
// receiver's type is.
func (c *Call) CallBase(args ...Value) (Value, error) {
	if c.Method == "" {
		return NewNil(), fmt.Errorf("base call outside a method body in %s", c.Owner.name)
	}
	parent := c.Owner.parent
	if parent == nil {
		return NewNil(), &NotFoundError{Kind: NotFoundMethod, Type: "base of " + c.Owner.name, Member: c.Method}
	}
	c.exec.d.obs.ObserveBaseCall(c.Owner.name, c.Method)
	c.exec.d.log.Debug("base call",
		zap.String("owner", c.Owner.name),
		zap.String("method", c.Method),
		zap.String("from", parent.name))
	return c.exec.invoke(c.Self, parent, c.Method, args)
}
