package demo

import (
	"context"
	"fmt"
	"io"

	"github.com/mgomes/lineage/lineage"
)

var ctorDemo = Demo{
	Name:    "ctor",
	Summary: "BaseClass/DerivedClass constructed with zero and one argument",
	specs:   ctorSpecs,
	run: func(ctx context.Context, d *lineage.Dispatcher, w io.Writer) error {
		if _, err := d.Construct(ctx, "DerivedClass"); err != nil {
			return err
		}
		derived, err := d.Construct(ctx, "DerivedClass", lineage.NewInt(10))
		if err != nil {
			return err
		}
		num, err := d.Invoke(ctx, derived, "GetNum")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "GetNum() = %s\n", num)
		return nil
	},
}

func trace(text string) lineage.ConstructorFunc {
	return func(call *lineage.Call) error {
		call.Println(text)
		return nil
	}
}

func ctorSpecs() ([]lineage.TypeSpec, error) {
	return []lineage.TypeSpec{
		{
			Name:   "BaseClass",
			Fields: map[string]lineage.Value{"num": lineage.NewInt(0)},
			Constructors: []lineage.Constructor{
				{Body: trace("in BaseClass()")},
				{
					Params: []string{"i"},
					Body: func(call *lineage.Call) error {
						call.Self.Set("num", call.Arg(0))
						call.Println("in BaseClass(int i)")
						return nil
					},
				},
			},
			Methods: []lineage.Method{{
				Name: "GetNum",
				Body: func(call *lineage.Call) (lineage.Value, error) {
					num, _ := call.Self.Get("num")
					return num, nil
				},
			}},
		},
		{
			Name:   "DerivedClass",
			Parent: "BaseClass",
			Constructors: []lineage.Constructor{
				{Body: trace("in DerivedClass()")},
				{Params: []string{"i"}, Base: lineage.ForwardArgs, Body: trace("in DerivedClass(int i)")},
			},
		},
	}, nil
}
