package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgomes/lineage/lineage"
)

func newDescribeCommand(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the hierarchy tree with constructors and declared methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.loadHierarchy(file)
			if err != nil {
				return err
			}
			describeHierarchy(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "hierarchy YAML file")
	return cmd
}

func describeHierarchy(w io.Writer, h *lineage.Hierarchy) {
	var walk func(t *lineage.Type, depth int)
	walk = func(t *lineage.Type, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(w, "%s%s  %s\n", indent, t.Name(), constructorSignatures(t))
		for _, m := range t.Methods() {
			fmt.Fprintf(w, "%s  .%s  %s\n", indent, m.Name, m.Kind)
		}
		for _, child := range h.Children(t) {
			walk(child, depth+1)
		}
	}
	for _, root := range h.Roots() {
		walk(root, 0)
	}
}

func constructorSignatures(t *lineage.Type) string {
	ctors := t.Constructors()
	sigs := make([]string, len(ctors))
	for i, c := range ctors {
		sigs[i] = fmt.Sprintf("new(%s)", strings.Join(c.Params, ", "))
	}
	out := strings.Join(sigs, " ")
	if t.HasImplicitConstructor() {
		out += " implicit"
	}
	return out
}
