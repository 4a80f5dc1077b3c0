// Package demo holds the demonstration harnesses: small fixed hierarchies
// that are constructed and exercised, printing what ran.
package demo

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mgomes/lineage/lineage"
)

type Demo struct {
	Name    string
	Summary string

	specs func() ([]lineage.TypeSpec, error)
	run   func(ctx context.Context, d *lineage.Dispatcher, w io.Writer) error
}

// Hierarchy seals the demo's types.
func (demo Demo) Hierarchy() (*lineage.Hierarchy, error) {
	specs, err := demo.specs()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", demo.Name, err)
	}
	h, err := lineage.Build(specs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", demo.Name, err)
	}
	return h, nil
}

// Run builds the demo hierarchy and drives it. Harness lines and method
// output both go to opts.Output.
func (demo Demo) Run(ctx context.Context, opts lineage.Options) error {
	h, err := demo.Hierarchy()
	if err != nil {
		return err
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	d := lineage.NewDispatcher(h, opts)
	if err := demo.run(ctx, d, opts.Output); err != nil {
		return fmt.Errorf("%s: %w", demo.Name, err)
	}
	return nil
}

func All() []Demo {
	return []Demo{chainDemo, ctorDemo, baseCallDemo, peopleDemo, baselineDemo}
}

func Lookup(name string) (Demo, bool) {
	for _, d := range All() {
		if d.Name == name {
			return d, true
		}
	}
	return Demo{}, false
}

// Playground seals every demo type into one hierarchy for interactive use.
func Playground() (*lineage.Hierarchy, error) {
	var all []lineage.TypeSpec
	for _, d := range All() {
		specs, err := d.specs()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Name, err)
		}
		all = append(all, specs...)
	}
	return lineage.Build(all...)
}

func noSpecs() ([]lineage.TypeSpec, error) { return nil, nil }

// constructAndCall builds typeName with args and invokes method on it.
func constructAndCall(ctx context.Context, d *lineage.Dispatcher, typeName, method string, args ...lineage.Value) (lineage.Value, error) {
	inst, err := d.Construct(ctx, typeName, args...)
	if err != nil {
		return lineage.NewNil(), err
	}
	return d.Invoke(ctx, inst, method)
}
