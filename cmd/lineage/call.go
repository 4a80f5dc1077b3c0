package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgomes/lineage/lineage"
)

func newCallCommand(a *app) *cobra.Command {
	var (
		file     string
		ctorArgs []string
	)
	cmd := &cobra.Command{
		Use:   "call TYPE METHOD [args...]",
		Short: "Construct TYPE and invoke METHOD on the new instance",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.loadHierarchy(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			d := lineage.NewDispatcher(h, a.dispatcherOptions(out))
			inst, err := d.Construct(cmd.Context(), args[0], parseLiterals(ctorArgs)...)
			if err != nil {
				return fmt.Errorf("construct %s: %w", args[0], err)
			}
			result, err := d.Invoke(cmd.Context(), inst, args[1], parseLiterals(args[2:])...)
			if err != nil {
				return fmt.Errorf("call %s.%s: %w", args[0], args[1], err)
			}
			if !result.IsNil() {
				fmt.Fprintf(out, "=> %s\n", result.Inspect())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "hierarchy YAML file")
	cmd.Flags().StringArrayVar(&ctorArgs, "new", nil, "constructor argument (repeatable)")
	return cmd
}

func parseLiterals(tokens []string) []lineage.Value {
	vals := make([]lineage.Value, len(tokens))
	for i, tok := range tokens {
		vals[i] = lineage.ParseLiteral(tok)
	}
	return vals
}
