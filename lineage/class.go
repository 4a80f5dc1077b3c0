package lineage

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/google/uuid"
)

// MethodKind tags how a declared method relates to the ancestor chain.
type MethodKind int

const (
	DefinesNew MethodKind = iota
	Overrides
	InheritedUnchanged
)

func (k MethodKind) String() string {
	switch k {
	case DefinesNew:
		return "defines-new"
	case Overrides:
		return "overrides"
	case InheritedUnchanged:
		return "inherited-unchanged"
	default:
		return fmt.Sprintf("method-kind(%d)", int(k))
	}
}

func ParseMethodKind(s string) (MethodKind, error) {
	switch s {
	case "", "defines-new", "new":
		return DefinesNew, nil
	case "overrides", "override":
		return Overrides, nil
	case "inherited-unchanged", "inherited":
		return InheritedUnchanged, nil
	default:
		return DefinesNew, fmt.Errorf("unknown method kind %q", s)
	}
}

type MethodFunc func(call *Call) (Value, error)

type ConstructorFunc func(call *Call) error

// ArgMap maps the arguments a constructor received onto the arguments of
// the parent constructor it delegates to.
type ArgMap func(args []Value) []Value

// ForwardArgs delegates with the constructor's own arguments.
func ForwardArgs(args []Value) []Value { return args }

// FixedArgs delegates with a constant argument list.
func FixedArgs(vals ...Value) ArgMap {
	fixed := slices.Clone(vals)
	return func([]Value) []Value { return slices.Clone(fixed) }
}

type Method struct {
	Name string
	Kind MethodKind
	// Params names positional arguments. When set, calls must match its
	// length.
	Params []string
	Body   MethodFunc
}

type Constructor struct {
	Params []string
	// Base selects the parent constructor by the arity of the mapped
	// arguments. Nil delegates to the parent's zero-argument constructor.
	Base ArgMap
	Body ConstructorFunc
}

func (c Constructor) Arity() int { return len(c.Params) }

func (m Method) clone() Method {
	m.Params = slices.Clone(m.Params)
	return m
}

func (c Constructor) clone() Constructor {
	c.Params = slices.Clone(c.Params)
	return c
}

func cloneMethods(ms []Method) []Method {
	if ms == nil {
		return nil
	}
	out := make([]Method, len(ms))
	for i, m := range ms {
		out[i] = m.clone()
	}
	return out
}

func cloneConstructors(cs []Constructor) []Constructor {
	if cs == nil {
		return nil
	}
	out := make([]Constructor, len(cs))
	for i, c := range cs {
		out[i] = c.clone()
	}
	return out
}

// TypeSpec declares one type for a Registry.
type TypeSpec struct {
	Name         string
	Parent       string
	Fields       map[string]Value
	Methods      []Method
	Constructors []Constructor
}

// Type is a sealed type descriptor. It is never mutated after the Registry
// that produced it has been sealed.
type Type struct {
	name         string
	parent       *Type
	fields       map[string]Value
	methods      []Method
	constructors []Constructor
	implicitCtor bool

	// root-first, ending with the type itself
	ancestors []*Type
	table     map[string]*Resolution
}

func (t *Type) Name() string   { return t.name }
func (t *Type) Parent() *Type  { return t.parent }
func (t *Type) Depth() int     { return len(t.ancestors) }
func (t *Type) String() string { return t.name }

// Ancestors returns the chain from the root down to t.
func (t *Type) Ancestors() []*Type { return slices.Clone(t.ancestors) }

func (t *Type) Methods() []Method { return cloneMethods(t.methods) }

func (t *Type) Constructors() []Constructor { return cloneConstructors(t.constructors) }

// HasImplicitConstructor reports whether t declared no constructor and got
// the default zero-argument one.
func (t *Type) HasImplicitConstructor() bool { return t.implicitCtor }

func (t *Type) Fields() map[string]Value { return maps.Clone(t.fields) }

// Declares reports the method t itself declares under name, if any.
func (t *Type) Declares(name string) (Method, bool) {
	for _, m := range t.methods {
		if m.Name == name {
			return m.clone(), true
		}
	}
	return Method{}, false
}

// MethodNames lists every method resolvable on t, sorted.
func (t *Type) MethodNames() []string {
	names := make([]string, 0, len(t.table))
	for name := range t.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSubtypeOf reports whether other appears in t's ancestor chain,
// including t itself.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

func (t *Type) constructor(arity int) (*Constructor, bool) {
	for i := range t.constructors {
		if t.constructors[i].Arity() == arity {
			return &t.constructors[i], true
		}
	}
	return nil, false
}

func (t *Type) arities() []int {
	out := make([]int, 0, len(t.constructors))
	for _, c := range t.constructors {
		out = append(out, c.Arity())
	}
	sort.Ints(out)
	return out
}

// chain lists type names leaf-first, the order resolution searches them.
func (t *Type) chain() []string {
	out := make([]string, 0, len(t.ancestors))
	for i := len(t.ancestors) - 1; i >= 0; i-- {
		out = append(out, t.ancestors[i].name)
	}
	return out
}

// Resolution is the closest declaration of a method for some type.
type Resolution struct {
	Owner  *Type
	Method Method
}

// Resolve returns the nearest declaration of method in t's chain. The
// result is a copy; changing it does not affect the sealed table.
func (t *Type) Resolve(method string) (*Resolution, error) {
	if res, ok := t.table[method]; ok {
		return &Resolution{Owner: res.Owner, Method: res.Method.clone()}, nil
	}
	return nil, &NotFoundError{Kind: NotFoundMethod, Type: t.name, Member: method, Searched: t.chain()}
}

// Instance is a runtime object bound to its most-derived type. Its fields
// belong to it alone.
type Instance struct {
	ID     uuid.UUID
	typ    *Type
	fields map[string]Value
}

func newInstance(t *Type) *Instance {
	return &Instance{ID: uuid.New(), typ: t, fields: make(map[string]Value)}
}

func (i *Instance) Type() *Type { return i.typ }

func (i *Instance) Get(name string) (Value, bool) {
	val, ok := i.fields[name]
	return val, ok
}

func (i *Instance) Set(name string, val Value) {
	i.fields[name] = val
}

// FieldNames lists the instance's fields, sorted.
func (i *Instance) FieldNames() []string {
	names := make([]string, 0, len(i.fields))
	for name := range i.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (i *Instance) String() string {
	return fmt.Sprintf("#<%s %s>", i.typ.name, i.ID.String()[:8])
}
