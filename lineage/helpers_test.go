package lineage

import (
	"bytes"
	"strings"
	"testing"
)

// printMethod declares a method that prints and returns text.
func printMethod(name string, kind MethodKind, text string) Method {
	return Method{
		Name: name,
		Kind: kind,
		Body: func(call *Call) (Value, error) {
			call.Println(text)
			return NewString(text), nil
		},
	}
}

func mustBuild(t testing.TB, specs ...TypeSpec) *Hierarchy {
	t.Helper()
	h, err := Build(specs...)
	if err != nil {
		t.Fatalf("build hierarchy: %v", err)
	}
	return h
}

func newTestDispatcher(h *Hierarchy) (*Dispatcher, *bytes.Buffer) {
	var out bytes.Buffer
	return NewDispatcher(h, Options{Output: &out}), &out
}

func outputLines(buf *bytes.Buffer) []string {
	text := strings.TrimRight(buf.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func equalLines(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// chainSpecs is A -> B -> C -> D with Method declared on A and C only.
func chainSpecs() []TypeSpec {
	return []TypeSpec{
		{Name: "A", Methods: []Method{printMethod("Method", DefinesNew, "A")}},
		{Name: "B", Parent: "A"},
		{Name: "C", Parent: "B", Methods: []Method{printMethod("Method", Overrides, "C")}},
		{Name: "D", Parent: "C"},
	}
}
