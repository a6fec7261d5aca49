package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ankek/archdiagram/internal/registry"
)

func newCmdKinds() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List the resource types the renderer knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				want   registry.Category
				filter = category != ""
			)
			if filter {
				var ok bool
				if want, ok = registry.ParseCategory(category); !ok {
					return fmt.Errorf("unknown category %q", category)
				}
			}

			comps, _, err := build(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tLABEL\tCATEGORY")
			for _, k := range comps.Registry.Kinds() {
				if filter && k.Category != want {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", k.TypeID, k.Label, k.Category)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list kinds of this category")
	return cmd
}
