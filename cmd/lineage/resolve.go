package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgomes/lineage/lineage"
)

func newResolveCommand(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "resolve TYPE METHOD",
		Short: "Show which ancestor's body a call on TYPE would run",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.loadHierarchy(file)
			if err != nil {
				return err
			}
			d := lineage.NewDispatcher(h, a.dispatcherOptions(cmd.OutOrStdout()))
			res, err := d.Resolve(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s.%s -> %s (%s)\n", args[0], args[1], res.Owner.Name(), chainOf(h, args[0]))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "hierarchy YAML file")
	return cmd
}

// chainOf renders the ancestor chain leaf-first.
func chainOf(h *lineage.Hierarchy, typeName string) string {
	ancestors, err := h.Ancestors(typeName)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(ancestors))
	for i := len(ancestors) - 1; i >= 0; i-- {
		names = append(names, ancestors[i].Name())
	}
	return strings.Join(names, " < ")
}
