package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/pkg/route"
)

func routesCmd() *cobra.Command {
	var leaves bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route tree",
		Long: `Scan and validate the routes directory and print the route tree.

Each line shows a segment, the module that defines it and the exports
found in that module. With --leaves only the URL patterns are printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				return err
			}
			tree, err := route.NewScanner(cfg.Dir(), cfg.Paths.Routes).Scan(nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if leaves {
				for _, p := range tree.Leaves() {
					fmt.Fprintln(out, p)
				}
				return nil
			}
			fmt.Fprint(out, tree.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&leaves, "leaves", false, "Print only the routable URL patterns")

	return cmd
}
