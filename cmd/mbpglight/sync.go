package main

import (
	"github.com/spf13/cobra"

	"github.com/oknozor/Musicbrainz-pg-light/internal/config"
	"github.com/oknozor/Musicbrainz-pg-light/internal/engine"
)

func newSyncCommand() *cobra.Command {
	var runLoop bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "apply pending replication packets",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Bind(cmd.Flags())
			ctx := cmd.Context()

			eng, cleanup, err := engine.Start(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			return eng.Sync(ctx, runLoop)
		},
	}

	cmd.Flags().BoolVarP(&runLoop, "loop", "l", false, "keep polling for new packets instead of exiting once caught up")
	return cmd
}
