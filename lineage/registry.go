package lineage

import (
	"maps"
	"slices"
	"strings"
)

// Registry collects type declarations until Seal turns them into an
// immutable Hierarchy. Parents are referenced by name and may be declared
// in any order.
type Registry struct {
	specs []TypeSpec
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

func (r *Registry) Declare(spec TypeSpec) error {
	if spec.Name == "" {
		return declErrorf("", "type name is required")
	}
	if _, exists := r.index[spec.Name]; exists {
		return declErrorf(spec.Name, "declared more than once")
	}
	r.index[spec.Name] = len(r.specs)
	r.specs = append(r.specs, spec)
	return nil
}

// Build declares every spec and seals the result.
func Build(specs ...TypeSpec) (*Hierarchy, error) {
	r := NewRegistry()
	for _, spec := range specs {
		if err := r.Declare(spec); err != nil {
			return nil, err
		}
	}
	return r.Seal()
}

// Hierarchy is a sealed set of types. Every resolution table is computed
// during Seal, so a Hierarchy can be shared between goroutines freely.
type Hierarchy struct {
	types map[string]*Type
	order []*Type
}

func (r *Registry) Seal() (*Hierarchy, error) {
	h := &Hierarchy{
		types: make(map[string]*Type, len(r.specs)),
		order: make([]*Type, 0, len(r.specs)),
	}
	for _, spec := range r.specs {
		t := &Type{
			name:         spec.Name,
			fields:       maps.Clone(spec.Fields),
			methods:      cloneMethods(spec.Methods),
			constructors: cloneConstructors(spec.Constructors),
		}
		if t.fields == nil {
			t.fields = make(map[string]Value)
		}
		h.types[t.name] = t
		h.order = append(h.order, t)
	}

	for i, spec := range r.specs {
		if spec.Parent == "" {
			continue
		}
		parent, ok := h.types[spec.Parent]
		if !ok {
			return nil, declErrorf(spec.Name, "unknown parent %q", spec.Parent)
		}
		h.order[i].parent = parent
	}

	for _, t := range h.order {
		if cycle, ok := inheritanceCycle(t); ok {
			return nil, declErrorf(t.name, "inheritance cycle %s", strings.Join(cycle, " -> "))
		}
	}

	for _, t := range h.order {
		if err := link(t); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func inheritanceCycle(start *Type) ([]string, bool) {
	var stack []string
	for cur := start; cur != nil; cur = cur.parent {
		for idx, name := range stack {
			if name == cur.name {
				cycle := append(append([]string(nil), stack[idx:]...), cur.name)
				return cycle, true
			}
		}
		stack = append(stack, cur.name)
	}
	return nil, false
}

// link computes the ancestor chain and the resolution table of t, parents
// first. Each table starts as a copy of the parent's and is overlaid with
// the methods t declares itself.
func link(t *Type) error {
	if t.ancestors != nil {
		return nil
	}
	var inherited map[string]*Resolution
	if t.parent != nil {
		if err := link(t.parent); err != nil {
			return err
		}
		t.ancestors = append(slices.Clone(t.parent.ancestors), t)
		inherited = t.parent.table
	} else {
		t.ancestors = []*Type{t}
	}

	t.table = maps.Clone(inherited)
	if t.table == nil {
		t.table = make(map[string]*Resolution)
	}

	seen := make(map[string]struct{}, len(t.methods))
	for _, m := range t.methods {
		if m.Name == "" {
			return declErrorf(t.name, "method name is required")
		}
		if _, dup := seen[m.Name]; dup {
			return declErrorf(t.name, "method %s declared more than once", m.Name)
		}
		seen[m.Name] = struct{}{}

		_, hasAncestor := inherited[m.Name]
		switch m.Kind {
		case DefinesNew:
			// Hiding an ancestor method is allowed; nearest still wins.
		case Overrides:
			if !hasAncestor {
				return declErrorf(t.name, "method %s overrides nothing", m.Name)
			}
		case InheritedUnchanged:
			if m.Body != nil {
				return declErrorf(t.name, "inherited method %s cannot have a body", m.Name)
			}
			if !hasAncestor {
				return declErrorf(t.name, "method %s is marked inherited but no ancestor declares it", m.Name)
			}
			continue
		default:
			return declErrorf(t.name, "method %s has unknown kind %s", m.Name, m.Kind)
		}
		if m.Body == nil {
			return declErrorf(t.name, "method %s has no body", m.Name)
		}
		t.table[m.Name] = &Resolution{Owner: t, Method: m}
	}

	if len(t.constructors) == 0 {
		t.constructors = []Constructor{{}}
		t.implicitCtor = true
	}
	arities := make(map[int]struct{}, len(t.constructors))
	for _, c := range t.constructors {
		if _, dup := arities[c.Arity()]; dup {
			return declErrorf(t.name, "more than one constructor takes %d arguments", c.Arity())
		}
		arities[c.Arity()] = struct{}{}
		if t.parent == nil {
			if c.Base != nil {
				return declErrorf(t.name, "root type constructor cannot delegate to a parent")
			}
			continue
		}
		if c.Base == nil {
			if _, ok := t.parent.constructor(0); !ok {
				return declErrorf(t.name, "parent %s has no zero-argument constructor to delegate to", t.parent.name)
			}
		}
	}
	return nil
}

func (h *Hierarchy) Type(name string) (*Type, bool) {
	t, ok := h.types[name]
	return t, ok
}

func (h *Hierarchy) lookup(name string) (*Type, error) {
	t, ok := h.types[name]
	if !ok {
		return nil, &NotFoundError{Kind: NotFoundType, Type: name}
	}
	return t, nil
}

// Types returns every type in declaration order.
func (h *Hierarchy) Types() []*Type { return slices.Clone(h.order) }

// Roots returns the types without a parent, in declaration order.
func (h *Hierarchy) Roots() []*Type {
	var roots []*Type
	for _, t := range h.order {
		if t.parent == nil {
			roots = append(roots, t)
		}
	}
	return roots
}

// Children returns the direct subtypes of t in declaration order.
func (h *Hierarchy) Children(t *Type) []*Type {
	var out []*Type
	for _, candidate := range h.order {
		if candidate.parent == t {
			out = append(out, candidate)
		}
	}
	return out
}

// Ancestors returns the chain of the named type, root first, ending with
// the type itself.
func (h *Hierarchy) Ancestors(name string) ([]*Type, error) {
	t, err := h.lookup(name)
	if err != nil {
		return nil, err
	}
	return t.Ancestors(), nil
}

// Resolve looks up the nearest declaration of method for the named type.
func (h *Hierarchy) Resolve(typeName, method string) (*Resolution, error) {
	t, err := h.lookup(typeName)
	if err != nil {
		return nil, err
	}
	return t.Resolve(method)
}

// IsSubtype reports whether child is parent or descends from it.
func (h *Hierarchy) IsSubtype(child, parent string) bool {
	c, ok := h.types[child]
	if !ok {
		return false
	}
	p, ok := h.types[parent]
	if !ok {
		return false
	}
	return c.IsSubtypeOf(p)
}
