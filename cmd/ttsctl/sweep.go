package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/speechgate/internal/audiofs"
	"github.com/nikhilbhutani/speechgate/internal/config"
)

func newSweepCommand(cfg *config.Config) *cobra.Command {
	var (
		dir    string
		maxAge time.Duration
	)

	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Delete generated audio older than the retention period",
		Example: `ttsctl sweep --max-age 6h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = cfg.Audio.Dir
			}
			if maxAge <= 0 {
				maxAge = cfg.Retention()
			}
			if maxAge <= 0 {
				return fmt.Errorf("max age must be positive")
			}

			rep := audiofs.Sweep(cmd.Context(), dir, maxAge)
			fmt.Fprintf(cmd.OutOrStdout(), "swept %s: scanned %d, removed %d (%s), failed %d\n",
				dir, rep.Scanned, rep.Removed, humanize.Bytes(uint64(rep.Freed)), rep.Failed)
			if rep.Failed > 0 {
				return fmt.Errorf("%d files could not be removed", rep.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "audio directory (default AUDIO_DIR)")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "delete files older than this (default AUDIO_RETENTION_HOURS)")
	return cmd
}
