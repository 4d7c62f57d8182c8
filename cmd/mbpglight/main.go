// Command mbpglight bootstraps and replicates a MusicBrainz Postgres
// mirror. Grounded on original_source/src/bin/mbpg-light.rs and
// original_source/src/main.rs (subcommand shape, duration-formatted
// completion log), using cobra in place of clap per the teacher's CLI
// stack.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if lvl := os.Getenv("MBLIGHT_LOG"); lvl != "" {
		if parsed, err := log.ParseLevel(lvl); err == nil {
			log.SetLevel(parsed)
		} else {
			log.WithError(err).Warn("ignoring unrecognized MBLIGHT_LOG level")
		}
	}

	root := &cobra.Command{
		Use:   "mbpglight",
		Short: "bootstrap and replicate a MusicBrainz Postgres mirror",
	}
	root.AddCommand(newInitCommand())
	root.AddCommand(newSyncCommand())

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("mbpglight exited with an error")
	}
}
