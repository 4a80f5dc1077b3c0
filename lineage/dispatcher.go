package lineage

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Observer receives dispatch events. Implementations must not block.
type Observer interface {
	ObserveResolve(typeName, method, owner string, found bool)
	ObserveConstruct(typeName string, levels int)
	ObserveBaseCall(owner, method string)
}

type nopObserver struct{}

func (nopObserver) ObserveResolve(string, string, string, bool) {}
func (nopObserver) ObserveConstruct(string, int)                {}
func (nopObserver) ObserveBaseCall(string, string)              {}

// Options controls a Dispatcher. The zero value writes to stdout, logs
// nothing and caps call depth at 64 frames.
type Options struct {
	Output   io.Writer
	Logger   *zap.Logger
	Observer Observer
	MaxDepth int
}

// Dispatcher constructs instances and runs methods against a sealed
// Hierarchy.
type Dispatcher struct {
	hierarchy *Hierarchy
	out       io.Writer
	log       *zap.Logger
	obs       Observer
	maxDepth  int
}

func NewDispatcher(h *Hierarchy, opts Options) *Dispatcher {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 64
	}
	return &Dispatcher{
		hierarchy: h,
		out:       opts.Output,
		log:       opts.Logger,
		obs:       opts.Observer,
		maxDepth:  opts.MaxDepth,
	}
}

func (d *Dispatcher) Hierarchy() *Hierarchy { return d.hierarchy }

// Resolve looks up the nearest declaration of method for the named type.
func (d *Dispatcher) Resolve(typeName, method string) (*Resolution, error) {
	t, err := d.hierarchy.lookup(typeName)
	if err != nil {
		return nil, err
	}
	return d.resolveFrom(t, method)
}

func (d *Dispatcher) resolveFrom(t *Type, method string) (*Resolution, error) {
	res, err := t.Resolve(method)
	if err != nil {
		d.obs.ObserveResolve(t.name, method, "", false)
		d.log.Debug("method not found", zap.String("type", t.name), zap.String("method", method))
		return nil, err
	}
	d.obs.ObserveResolve(t.name, method, res.Owner.name, true)
	return res, nil
}

// Construct creates an instance of the named type. The constructor is
// chosen by arity; ancestor constructors run first, root to leaf, each
// exactly once.
func (d *Dispatcher) Construct(ctx context.Context, typeName string, args ...Value) (*Instance, error) {
	t, err := d.hierarchy.lookup(typeName)
	if err != nil {
		return nil, err
	}
	inst := newInstance(t)
	exec := d.newExecution(ctx)
	if err := exec.construct(inst, t, args); err != nil {
		return nil, err
	}
	d.obs.ObserveConstruct(t.name, t.Depth())
	d.log.Debug("instance constructed",
		zap.String("type", t.name),
		zap.Stringer("id", inst.ID),
		zap.Int("levels", t.Depth()))
	return inst, nil
}

// Invoke runs method on inst, resolved from the instance's most-derived
// type.
func (d *Dispatcher) Invoke(ctx context.Context, inst *Instance, method string, args ...Value) (Value, error) {
	if inst == nil {
		return NewNil(), fmt.Errorf("invoke %s: nil instance", method)
	}
	exec := d.newExecution(ctx)
	return exec.invoke(inst, inst.typ, method, args)
}

func (d *Dispatcher) newExecution(ctx context.Context) *execution {
	if ctx == nil {
		ctx = context.Background()
	}
	return &execution{d: d, ctx: ctx}
}
