package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := newRootCommand(logger).Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger) *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "moonshot-ollama-adapter",
		Short:         "Serve evaluation-client requests from a local Ollama runtime",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfgPath, logger)
		},
	}
	root.Flags().StringVarP(&cfgPath, "config", "c", "", "path to yaml config file")
	_ = root.MarkFlagRequired("config")

	root.AddCommand(newCheckConfigCommand())
	return root
}
