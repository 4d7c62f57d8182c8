package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oknozor/Musicbrainz-pg-light/internal/config"
	"github.com/oknozor/Musicbrainz-pg-light/internal/engine"
)

func newInitCommand() *cobra.Command {
	var latestDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "bootstrap a fresh mirror from the latest full-export bundles",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Bind(cmd.Flags())
			ctx := cmd.Context()

			eng, cleanup, err := engine.Start(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			start := time.Now()
			if err := eng.Init(ctx, latestDir); err != nil {
				return err
			}
			log.Info(formatMinutesSeconds(time.Since(start)))
			return nil
		},
	}

	cmd.Flags().StringVar(&latestDir, "latest-dir", "", "full-export directory name to bootstrap from (e.g. 20240301-001001)")
	_ = cmd.MarkFlagRequired("latest-dir")
	return cmd
}

// formatMinutesSeconds renders an elapsed duration as "done in Xm Ys", matching
// original_source/src/main.rs::format_minutes_seconds.
func formatMinutesSeconds(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("done in %dm %ds", total/60, total%60)
}
