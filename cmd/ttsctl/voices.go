package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/speechgate/internal/config"
	"github.com/nikhilbhutani/speechgate/internal/speech"
)

func newVoicesCommand(cfg *config.Config) *cobra.Command {
	var (
		engine string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "voices",
		Short:   "List the voices each engine offers",
		Example: `ttsctl voices --engine edge-tts`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := speech.NewCatalog(speech.NewEngines(cfg.TTS))
			list, err := catalog.List(cmd.Context(), engine)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ENGINE\tID\tNAME\tLOCALE\tGENDER")
			for _, ev := range list {
				if ev.Error != "" {
					fmt.Fprintf(tw, "%s\t-\t(unavailable: %s)\t\t\n", ev.Engine, ev.Error)
					continue
				}
				for _, v := range ev.Voices {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ev.Engine, v.ID, v.Name, v.Locale, v.Gender)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "", "only list voices of this engine")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
