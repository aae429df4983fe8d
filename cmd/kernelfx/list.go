package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/kernelfx"
	"github.com/gogpu/kernelfx/backend"
)

func newFiltersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the available filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, name := range kernelfx.FilterNames() {
				f, err := kernelfx.NewFilter(name, nil)
				if err != nil {
					return err
				}
				d := kernelfx.Describe(f, nil)
				fmt.Fprintf(out, "%-10s %-24s %s\n", name, d.EntryPoint, d.Mode)
			}
			return nil
		},
	}
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the compute backends compiled in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			def := ""
			if d := backend.Default(); d != nil {
				def = d.Name()
			}
			for _, name := range backend.Available() {
				mark := " "
				if name == def {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %s\n", mark, name)
			}
			return nil
		},
	}
}
