// Command ttsctl runs maintenance tasks against the TTS service's audio
// directory and engines without going through the HTTP API.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/speechgate/internal/config"
)

func main() {
	if err := newRootCommand(config.Load).Execute(); err != nil {
		os.Exit(1)
	}
}

type loadFunc func() (*config.Config, error)

func newRootCommand(load loadFunc) *cobra.Command {
	var verbose bool
	cfg := new(config.Config)

	cmd := &cobra.Command{
		Use:          "ttsctl",
		Short:        "Operate the text-to-speech service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := load()
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			*cfg = *loaded

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newSweepCommand(cfg),
		newVoicesCommand(cfg),
	)
	return cmd
}
