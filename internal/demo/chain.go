package demo

import (
	"context"
	"io"

	"github.com/mgomes/lineage/lineage"
)

// A -> B -> C -> D where only A and C declare Method.
var chainDemo = Demo{
	Name:    "chain",
	Summary: "four-level chain; Method declared on A and overridden on C",
	specs:   chainSpecs,
	run: func(ctx context.Context, d *lineage.Dispatcher, _ io.Writer) error {
		for _, name := range []string{"A", "B", "C", "D"} {
			if _, err := constructAndCall(ctx, d, name, "Method"); err != nil {
				return err
			}
		}
		return nil
	},
}

func announce(text string) lineage.MethodFunc {
	return func(call *lineage.Call) (lineage.Value, error) {
		call.Println(text)
		return lineage.NewString(text), nil
	}
}

func chainSpecs() ([]lineage.TypeSpec, error) {
	return []lineage.TypeSpec{
		{Name: "A", Methods: []lineage.Method{{
			Name: "Method",
			Kind: lineage.DefinesNew,
			Body: announce("This is the public class A"),
		}}},
		{Name: "B", Parent: "A"},
		{Name: "C", Parent: "B", Methods: []lineage.Method{{
			Name: "Method",
			Kind: lineage.Overrides,
			Body: announce("This is the public class C"),
		}}},
		{Name: "D", Parent: "C", Methods: []lineage.Method{{
			Name: "Method",
			Kind: lineage.InheritedUnchanged,
		}}},
	}, nil
}
