package demo

import (
	"context"
	"fmt"
	"io"

	"github.com/mgomes/lineage/lineage"
)

// Person overloads its constructor by arity.
var peopleDemo = Demo{
	Name:    "people",
	Summary: "Person(first, last) and Person(first, last, age, id) chosen by arity",
	specs:   peopleSpecs,
	run: func(ctx context.Context, d *lineage.Dispatcher, w io.Writer) error {
		short, err := d.Construct(ctx, "Person", lineage.NewString("John"), lineage.NewString("Doe"))
		if err != nil {
			return err
		}
		name, err := d.Invoke(ctx, short, "Name")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "The name of the person %s\n", name)

		full, err := d.Construct(ctx, "Person",
			lineage.NewString("John"), lineage.NewString("Doe"), lineage.NewInt(25), lineage.NewInt(1))
		if err != nil {
			return err
		}
		_, err = d.Invoke(ctx, full, "Describe")
		return err
	},
}

func setName(call *lineage.Call) {
	first, _ := call.Param("first")
	last, _ := call.Param("last")
	call.Self.Set("name", lineage.NewString(first.String()+" "+last.String()))
}

func peopleSpecs() ([]lineage.TypeSpec, error) {
	return []lineage.TypeSpec{{
		Name: "Person",
		Fields: map[string]lineage.Value{
			"age": lineage.NewInt(0),
			"id":  lineage.NewInt(0),
		},
		Constructors: []lineage.Constructor{
			{
				Params: []string{"first", "last"},
				Body: func(call *lineage.Call) error {
					setName(call)
					return nil
				},
			},
			{
				Params: []string{"first", "last", "age", "id"},
				Body: func(call *lineage.Call) error {
					setName(call)
					age, _ := call.Param("age")
					id, _ := call.Param("id")
					call.Self.Set("age", age)
					call.Self.Set("id", id)
					return nil
				},
			},
		},
		Methods: []lineage.Method{
			{
				Name: "Name",
				Body: func(call *lineage.Call) (lineage.Value, error) {
					name, _ := call.Self.Get("name")
					return name, nil
				},
			},
			{
				Name: "Describe",
				Body: func(call *lineage.Call) (lineage.Value, error) {
					name, err := call.Invoke("Name")
					if err != nil {
						return lineage.NewNil(), err
					}
					age, _ := call.Self.Get("age")
					id, _ := call.Self.Get("id")
					call.Printf("%s, age %s, id %s\n", name, age, id)
					return lineage.NewNil(), nil
				},
			},
		},
	}}, nil
}
