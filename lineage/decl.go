package lineage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Document is the YAML form of a hierarchy.
//
//	types:
//	  - name: person
//	    fields: {name: John Doe}
//	    methods:
//	      - name: GetInfo
//	        body:
//	          - print: "Name: {{ name }}"
//	  - name: employee
//	    parent: person
//	    methods:
//	      - name: GetInfo
//	        kind: overrides
//	        body:
//	          - base: []
//	          - print: "Employee ID: {{ id }}"
type Document struct {
	Types []TypeDecl `yaml:"types"`
}

type TypeDecl struct {
	Name         string         `yaml:"name"`
	Parent       string         `yaml:"parent"`
	Fields       map[string]any `yaml:"fields"`
	Constructors []CtorDecl     `yaml:"constructors"`
	Methods      []MethodDecl   `yaml:"methods"`
}

type CtorDecl struct {
	Params []string `yaml:"params"`
	// Base lists the arguments passed to the parent constructor. Leaving it
	// out delegates to the parent's zero-argument constructor.
	Base *[]any `yaml:"base"`
	Body []Step `yaml:"body"`
}

type MethodDecl struct {
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`
	Params []string `yaml:"params"`
	Body   []Step   `yaml:"body"`
}

// Step is one instruction of a declared body: a single-key mapping whose
// key names the operation.
type Step struct {
	Op    string
	Line  int
	value *yaml.Node
}

const (
	opPrint  = "print"
	opSet    = "set"
	opBase   = "base"
	opCall   = "call"
	opReturn = "return"
	opFail   = "fail"
)

func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return fmt.Errorf("line %d: a step must be a mapping with exactly one key", n.Line)
	}
	s.Op = n.Content[0].Value
	s.Line = n.Line
	s.value = n.Content[1]
	switch s.Op {
	case opPrint, opSet, opBase, opCall, opReturn, opFail:
		return nil
	default:
		return fmt.Errorf("line %d: unknown step %q", n.Line, s.Op)
	}
}

// Parse decodes a YAML hierarchy and seals it.
func Parse(data []byte) (*Hierarchy, error) {
	specs, err := ParseSpecs(data)
	if err != nil {
		return nil, err
	}
	return Build(specs...)
}

// ParseSpecs strictly decodes a YAML hierarchy into unsealed specs. Unknown
// keys are rejected and the input must hold exactly one document.
func ParseSpecs(data []byte) ([]TypeSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, declErrorf("", "hierarchy document is empty")
		}
		return nil, fmt.Errorf("decode hierarchy: %w", err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("decode hierarchy: %w", err)
		}
		return nil, declErrorf("", "hierarchy input holds more than one document")
	}
	return doc.Specs()
}

func LoadFile(path string) (*Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}
	h, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// Specs compiles every declared body into Go closures.
func (doc Document) Specs() ([]TypeSpec, error) {
	specs := make([]TypeSpec, 0, len(doc.Types))
	for _, decl := range doc.Types {
		spec, err := decl.compile()
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (decl TypeDecl) compile() (TypeSpec, error) {
	spec := TypeSpec{Name: decl.Name, Parent: decl.Parent}
	if len(decl.Fields) > 0 {
		spec.Fields = make(map[string]Value, len(decl.Fields))
		for name, raw := range decl.Fields {
			val, err := FromAny(raw)
			if err != nil {
				return TypeSpec{}, declErrorf(decl.Name, "field %s: %v", name, err)
			}
			spec.Fields[name] = val
		}
	}

	for _, c := range decl.Constructors {
		scope := bodyScope{typeName: decl.Name, params: c.Params}
		ctor := Constructor{Params: slices.Clone(c.Params)}
		if c.Base != nil {
			argExprs, err := scope.compileArgs(*c.Base, false)
			if err != nil {
				return TypeSpec{}, declErrorf(decl.Name, "constructor/%d base: %v", len(c.Params), err)
			}
			ctor.Base = func(args []Value) []Value {
				return evalArgs(argExprs, args, nil)
			}
		}
		steps, err := scope.compileSteps(c.Body)
		if err != nil {
			return TypeSpec{}, declErrorf(decl.Name, "constructor/%d: %v", len(c.Params), err)
		}
		if len(steps) > 0 {
			ctor.Body = func(call *Call) error {
				_, err := runSteps(steps, call)
				return err
			}
		}
		spec.Constructors = append(spec.Constructors, ctor)
	}

	for _, m := range decl.Methods {
		kind, err := ParseMethodKind(m.Kind)
		if err != nil {
			return TypeSpec{}, declErrorf(decl.Name, "method %s: %v", m.Name, err)
		}
		method := Method{Name: m.Name, Kind: kind, Params: slices.Clone(m.Params)}
		if kind != InheritedUnchanged {
			scope := bodyScope{typeName: decl.Name, params: m.Params, method: true}
			steps, err := scope.compileSteps(m.Body)
			if err != nil {
				return TypeSpec{}, declErrorf(decl.Name, "method %s: %v", m.Name, err)
			}
			method.Body = func(call *Call) (Value, error) {
				return runSteps(steps, call)
			}
		} else if len(m.Body) > 0 {
			return TypeSpec{}, declErrorf(decl.Name, "inherited method %s cannot have a body", m.Name)
		}
		spec.Methods = append(spec.Methods, method)
	}
	return spec, nil
}

type stepFunc func(call *Call) (result Value, done bool, err error)

type argExpr func(args []Value, self *Instance) Value

type bodyScope struct {
	typeName string
	params   []string
	method   bool
}

func (s bodyScope) compileSteps(steps []Step) ([]stepFunc, error) {
	out := make([]stepFunc, 0, len(steps))
	for _, step := range steps {
		fn, err := s.compileStep(step)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", step.Line, step.Op, err)
		}
		out = append(out, fn)
	}
	return out, nil
}

func (s bodyScope) compileStep(step Step) (stepFunc, error) {
	switch step.Op {
	case opPrint:
		var text string
		if err := step.value.Decode(&text); err != nil {
			return nil, err
		}
		return func(call *Call) (Value, bool, error) {
			call.Println(renderPlaceholders(text, call))
			return NewNil(), false, nil
		}, nil

	case opSet:
		if step.value.Kind != yaml.MappingNode {
			return nil, errors.New("expects a mapping of field names to values")
		}
		type assignment struct {
			field string
			value argExpr
		}
		var assigns []assignment
		for i := 0; i+1 < len(step.value.Content); i += 2 {
			var raw any
			if err := step.value.Content[i+1].Decode(&raw); err != nil {
				return nil, err
			}
			e, err := s.compileExpr(raw, true)
			if err != nil {
				return nil, err
			}
			assigns = append(assigns, assignment{field: step.value.Content[i].Value, value: e})
		}
		return func(call *Call) (Value, bool, error) {
			for _, a := range assigns {
				call.Self.Set(a.field, a.value(call.Args, call.Self))
			}
			return NewNil(), false, nil
		}, nil

	case opBase:
		if !s.method {
			return nil, errors.New("only valid in method bodies; constructors delegate with base")
		}
		raw, err := decodeArgList(step.value)
		if err != nil {
			return nil, err
		}
		args, err := s.compileArgs(raw, true)
		if err != nil {
			return nil, err
		}
		return func(call *Call) (Value, bool, error) {
			_, err := call.CallBase(evalArgs(args, call.Args, call.Self)...)
			return NewNil(), false, err
		}, nil

	case opCall:
		var target struct {
			Method string `yaml:"method"`
			Args   []any  `yaml:"args"`
			Into   string `yaml:"into"`
		}
		if step.value.Kind == yaml.ScalarNode {
			target.Method = step.value.Value
		} else if err := step.value.Decode(&target); err != nil {
			return nil, err
		}
		if target.Method == "" {
			return nil, errors.New("method name is required")
		}
		args, err := s.compileArgs(target.Args, true)
		if err != nil {
			return nil, err
		}
		return func(call *Call) (Value, bool, error) {
			val, err := call.Invoke(target.Method, evalArgs(args, call.Args, call.Self)...)
			if err != nil {
				return NewNil(), false, err
			}
			if target.Into != "" {
				call.Self.Set(target.Into, val)
			}
			return NewNil(), false, nil
		}, nil

	case opReturn:
		if !s.method {
			return nil, errors.New("only valid in method bodies")
		}
		var raw any
		if err := step.value.Decode(&raw); err != nil {
			return nil, err
		}
		e, err := s.compileExpr(raw, true)
		if err != nil {
			return nil, err
		}
		return func(call *Call) (Value, bool, error) {
			return e(call.Args, call.Self), true, nil
		}, nil

	case opFail:
		var text string
		if err := step.value.Decode(&text); err != nil {
			return nil, err
		}
		return func(call *Call) (Value, bool, error) {
			return NewNil(), true, errors.New(renderPlaceholders(text, call))
		}, nil
	}
	return nil, fmt.Errorf("unknown step %q", step.Op)
}

func decodeArgList(n *yaml.Node) ([]any, error) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return nil, nil
	}
	var raw []any
	if err := n.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s bodyScope) compileArgs(raw []any, allowFields bool) ([]argExpr, error) {
	out := make([]argExpr, 0, len(raw))
	for _, r := range raw {
		e, err := s.compileExpr(r, allowFields)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// compileExpr turns "$param" into a parameter reference, "@field" into a
// field read and anything else into a literal.
func (s bodyScope) compileExpr(raw any, allowFields bool) (argExpr, error) {
	if text, ok := raw.(string); ok {
		switch {
		case strings.HasPrefix(text, "$"):
			name := text[1:]
			idx := slices.Index(s.params, name)
			if idx < 0 {
				return nil, fmt.Errorf("unknown parameter %q", name)
			}
			return func(args []Value, _ *Instance) Value {
				if idx >= len(args) {
					return NewNil()
				}
				return args[idx]
			}, nil
		case strings.HasPrefix(text, "@"):
			if !allowFields {
				return nil, fmt.Errorf("field %s is not set yet; only parameters and literals are allowed here", text)
			}
			name := text[1:]
			return func(_ []Value, self *Instance) Value {
				val, _ := self.Get(name)
				return val
			}, nil
		}
	}
	val, err := FromAny(raw)
	if err != nil {
		return nil, err
	}
	return func([]Value, *Instance) Value { return val }, nil
}

func evalArgs(exprs []argExpr, args []Value, self *Instance) []Value {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		out[i] = e(args, self)
	}
	return out
}

func runSteps(steps []stepFunc, call *Call) (Value, error) {
	for _, step := range steps {
		val, done, err := step(call)
		if err != nil {
			return NewNil(), err
		}
		if done {
			return val, nil
		}
	}
	return NewNil(), nil
}

// renderPlaceholders fills {{ name }} from the call's parameters, then from
// the receiver's fields. Unknown names are left in place.
func renderPlaceholders(text string, call *Call) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		submatch := placeholderPattern.FindStringSubmatch(match)
		if len(submatch) != 2 {
			return match
		}
		if val, ok := call.Param(submatch[1]); ok {
			return val.String()
		}
		if val, ok := call.Self.Get(submatch[1]); ok {
			return val.String()
		}
		return match
	})
}
