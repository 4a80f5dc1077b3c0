package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgomes/lineage/internal/demo"
)

func newDemoCommand(a *app) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "demo [name...]",
		Short: "Run the demonstration harnesses (all of them when no name is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, d := range demo.All() {
					fmt.Fprintf(out, "%-10s %s\n", d.Name, d.Summary)
				}
				return nil
			}

			selected := demo.All()
			if len(args) > 0 {
				selected = selected[:0:0]
				for _, name := range args {
					d, ok := demo.Lookup(name)
					if !ok {
						return fmt.Errorf("unknown demo %q (have %s)", name, demoNames())
					}
					selected = append(selected, d)
				}
			}
			for i, d := range selected {
				if len(selected) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "== %s ==\n", d.Name)
				}
				if err := d.Run(cmd.Context(), a.dispatcherOptions(out)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list the available demos")
	return cmd
}

func demoNames() string {
	var names []string
	for _, d := range demo.All() {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}
