package lineage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestInvokeVirtualChain(t *testing.T) {
	h := mustBuild(t, chainSpecs()...)
	d, out := newTestDispatcher(h)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D"} {
		inst, err := d.Construct(ctx, name)
		if err != nil {
			t.Fatalf("construct %s: %v", name, err)
		}
		if _, err := d.Invoke(ctx, inst, "Method"); err != nil {
			t.Fatalf("invoke %s.Method: %v", name, err)
		}
	}
	want := []string{"A", "A", "C", "C"}
	if got := outputLines(out); !equalLines(got, want) {
		t.Fatalf("unexpected output: %q", got)
	}
}

func personSpecs() []TypeSpec {
	return []TypeSpec{
		{
			Name: "person",
			Fields: map[string]Value{
				"ssn":  NewString("444-55-6666"),
				"name": NewString("John Doe"),
			},
			Methods: []Method{{
				Name: "GetInfo",
				Body: func(call *Call) (Value, error) {
					name, _ := call.Self.Get("name")
					ssn, _ := call.Self.Get("ssn")
					call.Printf("Name: %s\n", name)
					call.Printf("SSN: %s\n", ssn)
					return NewNil(), nil
				},
			}},
		},
		{
			Name:   "employee",
			Parent: "person",
			Fields: map[string]Value{"id": NewString("ABC567EFG")},
			Methods: []Method{{
				Name: "GetInfo",
				Kind: Overrides,
				Body: func(call *Call) (Value, error) {
					if _, err := call.CallBase(); err != nil {
						return NewNil(), err
					}
					id, _ := call.Self.Get("id")
					call.Printf("Employee ID: %s\n", id)
					return NewNil(), nil
				},
			}},
		},
	}
}

func TestInvokeBaseCallRunsBaseFirst(t *testing.T) {
	h := mustBuild(t, personSpecs()...)
	d, out := newTestDispatcher(h)

	e, err := d.Construct(context.Background(), "employee")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if _, err := d.Invoke(context.Background(), e, "GetInfo"); err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	want := []string{"Name: John Doe", "SSN: 444-55-6666", "Employee ID: ABC567EFG"}
	if got := outputLines(out); !equalLines(got, want) {
		t.Fatalf("unexpected output: %q", got)
	}
}

// forwardingMethod prints its level after calling the base implementation.
func forwardingMethod(kind MethodKind, label string, forward bool) Method {
	return Method{
		Name: "Describe",
		Kind: kind,
		Body: func(call *Call) (Value, error) {
			parts := []string{}
			if forward {
				prev, err := call.CallBase()
				if err != nil {
					return NewNil(), err
				}
				parts = append(parts, prev.String())
			}
			parts = append(parts, label)
			call.Println(label)
			return NewString(strings.Join(parts, ">")), nil
		},
	}
}

func TestBaseCallClimbsFromOwnerNotReceiver(t *testing.T) {
	// L3 and L1 have no Describe of their own; the base call made by L2's
	// body must continue at L0, not restart at the receiver.
	h := mustBuild(t,
		TypeSpec{Name: "L0", Methods: []Method{forwardingMethod(DefinesNew, "L0", false)}},
		TypeSpec{Name: "L1", Parent: "L0"},
		TypeSpec{Name: "L2", Parent: "L1", Methods: []Method{forwardingMethod(Overrides, "L2", true)}},
		TypeSpec{Name: "L3", Parent: "L2"},
		TypeSpec{Name: "L4", Parent: "L3", Methods: []Method{forwardingMethod(Overrides, "L4", true)}},
	)
	d, out := newTestDispatcher(h)

	inst, err := d.Construct(context.Background(), "L4")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	got, err := d.Invoke(context.Background(), inst, "Describe")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got.String() != "L0>L2>L4" {
		t.Fatalf("unexpected result %q", got.String())
	}
	if lines := outputLines(out); !equalLines(lines, []string{"L0", "L2", "L4"}) {
		t.Fatalf("unexpected output: %q", lines)
	}
}

func TestBaseCallAtRootIsNotFound(t *testing.T) {
	h := mustBuild(t, TypeSpec{Name: "Root", Methods: []Method{forwardingMethod(DefinesNew, "root", true)}})
	d, _ := newTestDispatcher(h)

	inst, err := d.Construct(context.Background(), "Root")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	_, err = d.Invoke(context.Background(), inst, "Describe")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound through the call error, got %v", err)
	}
	var ce *CallError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CallError, got %T", err)
	}
	if len(ce.Frames) != 1 || ce.Frames[0].String() != "Root.Describe" {
		t.Fatalf("unexpected frames: %+v", ce.Frames)
	}
}

func TestInvokeMissingMethodSurfaces(t *testing.T) {
	h := mustBuild(t, chainSpecs()...)
	d, _ := newTestDispatcher(h)

	inst, err := d.Construct(context.Background(), "D")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	_, err = d.Invoke(context.Background(), inst, "Nope")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nf.Type != "D" || nf.Member != "Nope" {
		t.Fatalf("unexpected error fields: %+v", nf)
	}
}

func TestInvokeArityChecked(t *testing.T) {
	h := mustBuild(t, TypeSpec{Name: "Calc", Methods: []Method{{
		Name:   "Add",
		Params: []string{"a", "b"},
		Body: func(call *Call) (Value, error) {
			a, _ := call.Param("a")
			b, _ := call.Param("b")
			return NewInt(a.Int() + b.Int()), nil
		},
	}}})
	d, _ := newTestDispatcher(h)
	ctx := context.Background()

	inst, err := d.Construct(ctx, "Calc")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	sum, err := d.Invoke(ctx, inst, "Add", NewInt(2), NewInt(3))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.Int() != 5 {
		t.Fatalf("Add returned %s", sum.Inspect())
	}
	if _, err := d.Invoke(ctx, inst, "Add", NewInt(2)); !errors.Is(err, ErrArity) {
		t.Fatalf("expected ErrArity, got %v", err)
	}
}

func TestInvokeDepthLimit(t *testing.T) {
	h := mustBuild(t, TypeSpec{Name: "Loop", Methods: []Method{{
		Name: "Spin",
		Body: func(call *Call) (Value, error) {
			return call.Invoke("Spin")
		},
	}}})
	var out strings.Builder
	d := NewDispatcher(h, Options{Output: &out, MaxDepth: 8})

	inst, err := d.Construct(context.Background(), "Loop")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	_, err = d.Invoke(context.Background(), inst, "Spin")
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
	var ce *CallError
	if !errors.As(err, &ce) || len(ce.Frames) != 8 {
		t.Fatalf("expected 8 frames, got %v", err)
	}
}

func TestInvokeCanceledContext(t *testing.T) {
	h := mustBuild(t, chainSpecs()...)
	d, _ := newTestDispatcher(h)

	inst, err := d.Construct(context.Background(), "A")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Invoke(ctx, inst, "Method"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCallErrorElidesDeepStacks(t *testing.T) {
	frames := make([]StackFrame, 40)
	for i := range frames {
		frames[i] = StackFrame{Receiver: "T", Owner: "T", Member: fmt.Sprintf("m%d", i)}
	}
	msg := (&CallError{Err: errors.New("boom"), Frames: frames}).Error()
	if !strings.Contains(msg, "... 24 frames omitted ...") {
		t.Fatalf("expected elision marker, got:\n%s", msg)
	}
	if !strings.Contains(msg, "at T.m0") || !strings.Contains(msg, "at T.m39") {
		t.Fatalf("expected head and tail frames, got:\n%s", msg)
	}
}

func TestBaseCallPropertyOneLevelPerCall(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		depth := rapid.IntRange(1, 12).Draw(rt, "depth")
		// overrides[i] says whether level i (i > 0) declares its own body.
		overrides := rapid.SliceOfN(rapid.Bool(), depth-1, depth-1).Draw(rt, "overrides")

		specs := []TypeSpec{{Name: "T0", Methods: []Method{forwardingMethod(DefinesNew, "T0", false)}}}
		wantLabels := []string{"T0"}
		for i := 1; i < depth; i++ {
			spec := TypeSpec{Name: fmt.Sprintf("T%d", i), Parent: fmt.Sprintf("T%d", i-1)}
			if overrides[i-1] {
				spec.Methods = []Method{forwardingMethod(Overrides, spec.Name, true)}
				wantLabels = append(wantLabels, spec.Name)
			}
			specs = append(specs, spec)
		}
		h, err := Build(specs...)
		if err != nil {
			rt.Fatalf("build: %v", err)
		}
		var out strings.Builder
		d := NewDispatcher(h, Options{Output: &out})

		inst, err := d.Construct(context.Background(), fmt.Sprintf("T%d", depth-1))
		if err != nil {
			rt.Fatalf("construct: %v", err)
		}
		got, err := d.Invoke(context.Background(), inst, "Describe")
		if err != nil {
			rt.Fatalf("invoke: %v", err)
		}
		if want := strings.Join(wantLabels, ">"); got.String() != want {
			rt.Fatalf("contributions %q, want %q", got.String(), want)
		}
		if lines := strings.Split(strings.TrimSpace(out.String()), "\n"); len(lines) != len(wantLabels) {
			rt.Fatalf("printed %d lines, want %d", len(lines), len(wantLabels))
		}
	})
}
