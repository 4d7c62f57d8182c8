package replication

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oknozor/Musicbrainz-pg-light/internal/mberr"
)

// retryDelay is how long the sync loop waits after catching up (driver
// reports ErrNotFound) before polling again, matching the teacher's
// retireLoop idle-wait shape but on a fixed interval rather than a
// notify.Var wakeup, since there is no in-process signal for "a new
// packet was published upstream".
const retryDelay = 15 * time.Minute

// ReindexSignaler is invoked once, the first time a sync session catches
// up to the upstream (no packet found yet), so an operator-supplied hook
// can kick off a search-index rebuild. A nil Signal is a valid no-op.
type ReindexSignaler interface {
	Signal(ctx context.Context) error
}

// LoopOptions configures Loop.Run.
type LoopOptions struct {
	// Continuous, when true, keeps polling after catching up instead of
	// exiting once ErrNotFound is observed.
	Continuous bool
	Reindex    ReindexSignaler
}

// Loop drives Driver.ApplyPendingReplication repeatedly, the outermost
// control flow described for the sync subcommand.
type Loop struct {
	Driver *Driver
}

// Run applies packets until the upstream has none left to offer. With
// Continuous set it then sleeps retryDelay and tries again instead of
// returning, until ctx is canceled.
func (l *Loop) Run(ctx context.Context, opts LoopOptions) error {
	if err := l.Driver.PrepareForSync(ctx); err != nil {
		return err
	}

	signaled := false
	for {
		err := l.Driver.ApplyPendingReplication(ctx)
		switch {
		case err == nil:
			continue
		case mberr.IsNotFound(err):
			log.Debug("caught up with replication stream")
			if opts.Reindex != nil && !signaled {
				if sigErr := opts.Reindex.Signal(ctx); sigErr != nil {
					log.WithError(sigErr).Warn("reindex signal failed")
				}
				signaled = true
			}
			if !opts.Continuous {
				return nil
			}
		default:
			return errors.Wrap(err, "applying pending replication")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}
