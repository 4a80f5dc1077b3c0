package demo

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgomes/lineage/lineage"
)

func runDemo(t *testing.T, name string) []string {
	t.Helper()
	d, ok := Lookup(name)
	require.True(t, ok, "demo %s not registered", name)
	var out bytes.Buffer
	require.NoError(t, d.Run(context.Background(), lineage.Options{Output: &out}))
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestDemoOutputs(t *testing.T) {
	cases := []struct {
		name string
		want []string
	}{
		{
			name: "chain",
			want: []string{
				"This is the public class A",
				"This is the public class A",
				"This is the public class C",
				"This is the public class C",
			},
		},
		{
			name: "ctor",
			want: []string{
				"in BaseClass()",
				"in DerivedClass()",
				"in BaseClass(int i)",
				"in DerivedClass(int i)",
				"GetNum() = 10",
			},
		},
		{
			name: "basecall",
			want: []string{
				"Name: John Doe",
				"SSN: 444-55-6666",
				"Employee ID: ABC567EFG",
			},
		},
		{
			name: "people",
			want: []string{
				"The name of the person John Doe",
				"John Doe, age 25, id 1",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := runDemo(t, tc.name)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("%s output mismatch (-want +got):\n%s", tc.name, diff)
			}
		})
	}
}

func TestBaselineDemo(t *testing.T) {
	got := runDemo(t, "baseline")
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "baseline: "), got[0])
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestPlaygroundHoldsEveryDemoType(t *testing.T) {
	h, err := Playground()
	require.NoError(t, err)

	for _, name := range []string{"A", "D", "DerivedClass", "employee", "Person"} {
		_, ok := h.Type(name)
		assert.True(t, ok, "missing %s", name)
	}
	res, err := h.Resolve("D", "Method")
	require.NoError(t, err)
	assert.Equal(t, "C", res.Owner.Name())
	res, err = h.Resolve("employee", "GetInfo")
	require.NoError(t, err)
	assert.Equal(t, "employee", res.Owner.Name())
}
