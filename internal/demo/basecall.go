package demo

import (
	"context"
	"embed"
	"fmt"
	"io"

	"github.com/mgomes/lineage/lineage"
)

//go:embed hierarchies/*.yaml
var hierarchyFiles embed.FS

var baseCallDemo = Demo{
	Name:    "basecall",
	Summary: "employee.GetInfo forwards to person.GetInfo before printing its own line",
	specs:   func() ([]lineage.TypeSpec, error) { return embeddedSpecs("hierarchies/employee.yaml") },
	run: func(ctx context.Context, d *lineage.Dispatcher, _ io.Writer) error {
		_, err := constructAndCall(ctx, d, "employee", "GetInfo")
		return err
	},
}

func embeddedSpecs(name string) ([]lineage.TypeSpec, error) {
	data, err := hierarchyFiles.ReadFile(name)
	if err != nil {
		return nil, err
	}
	specs, err := lineage.ParseSpecs(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return specs, nil
}
