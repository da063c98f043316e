package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"moonshot-ollama-adapter/internal/config"
	"moonshot-ollama-adapter/internal/router"
)

func newCheckConfigCommand() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate a config file and print the resolved route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			routes, err := router.Routes(cfg.Variants)
			if err != nil {
				return err
			}

			rt := router.New(cfg.Models)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROUTE\tVARIANT\tSELECTOR\tMODEL")
			for _, route := range routes {
				model, err := rt.Resolve(route.Selector)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "POST %s\t%s\t%s\t%s\n", route.Pattern, route.Variant, route.Selector, model)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to yaml config file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
