package main

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgomes/lineage/internal/demo"
	"github.com/mgomes/lineage/lineage"
)

func newTestREPL(t *testing.T) replModel {
	t.Helper()
	h, err := demo.Playground()
	require.NoError(t, err)
	return newREPLModel(context.Background(), h, lineage.Options{})
}

func TestUpdateQuitCommandReturnsQuit(t *testing.T) {
	m := newTestREPL(t)
	m.textInput.SetValue(":quit")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}

	if !rm.quitting {
		t.Fatalf("quitting flag not set")
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after quit command")
	}
	if cmd == nil {
		t.Fatalf("expected tea.Quit command")
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(tea.QuitMsg); !ok {
			t.Fatalf("expected QuitMsg, got %T", msg)
		}
	}
}

func TestUpdateNonQuitCommandDoesNotReturnCmd(t *testing.T) {
	m := newTestREPL(t)
	m.textInput.SetValue(":help")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm := model.(replModel)

	if cmd != nil {
		t.Fatalf("expected no command for non-quit input")
	}
	if rm.quitting {
		t.Fatalf("quitting should remain false")
	}
	if !rm.showHelp {
		t.Fatalf("help toggle should be enabled")
	}
}

func TestEvaluateConstructAndInvoke(t *testing.T) {
	m := newTestREPL(t)

	out, isErr := m.evaluate("d = new D")
	require.False(t, isErr, out)
	v, ok := m.env["d"]
	require.True(t, ok, "d should be bound")
	assert.Equal(t, lineage.KindInstance, v.Kind())
	assert.Equal(t, "D", v.Instance().Type().Name())

	out, isErr = m.evaluate("d.Method")
	require.False(t, isErr, out)
	assert.Equal(t, "This is the public class C\nnil", out)
}

func TestEvaluateConstructorArgsAndResult(t *testing.T) {
	m := newTestREPL(t)

	out, isErr := m.evaluate("x = new DerivedClass 10")
	require.False(t, isErr, out)
	assert.True(t, strings.HasPrefix(out, "in BaseClass(int i)\nin DerivedClass(int i)\n#<DerivedClass "), out)

	out, isErr = m.evaluate("n = x.GetNum")
	require.False(t, isErr, out)
	assert.Equal(t, "10", out)
	assert.Equal(t, int64(10), m.env["n"].Int())
	assert.Equal(t, int64(10), m.env["_"].Int())
}

func TestEvaluateErrors(t *testing.T) {
	m := newTestREPL(t)
	m.env["n"] = lineage.NewInt(5)

	cases := map[string]string{
		"ghost.Method":  `undefined variable "ghost"`,
		"n.Method":      "not an instance",
		"new Nope":      `unknown type "Nope"`,
		"1 + 2":         "expected",
		"x = new D 1 2": "no constructor of D takes 2 arguments",
	}
	for input, want := range cases {
		out, isErr := m.evaluate(input)
		assert.True(t, isErr, input)
		assert.Contains(t, out, want, input)
	}
	_, bound := m.env["x"]
	assert.False(t, bound, "failed construction must not bind")
}

func TestResolveCommand(t *testing.T) {
	m := newTestREPL(t)
	m, _ = m.handleCommand(":resolve B Method")
	require.Len(t, m.history, 1)
	assert.Equal(t, "B.Method -> A (defines-new)", m.history[0].output)

	m, _ = m.handleCommand(":resolve B")
	assert.True(t, m.history[1].isErr)
}

func TestAutocompleteMethodsOfVariable(t *testing.T) {
	m := newTestREPL(t)
	_, isErr := m.evaluate("e = new employee")
	require.False(t, isErr)

	m.textInput.SetValue("e.Get")
	m = m.handleAutocomplete()
	assert.Equal(t, "e.GetInfo", m.textInput.Value())

	m.textInput.SetValue("x = new Deri")
	m = m.handleAutocomplete()
	assert.Equal(t, "x = new DerivedClass", m.textInput.Value())
}

func TestResetClearsEnvironment(t *testing.T) {
	m := newTestREPL(t)
	_, isErr := m.evaluate("d = new D")
	require.False(t, isErr)

	m, _ = m.handleCommand(":reset")
	assert.Empty(t, m.env)
}
