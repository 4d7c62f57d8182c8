// Package replication implements the replication-packet state machine:
// fetching ordered packets, validating schema/sequence continuity,
// applying queued row mutations transactionally, and advancing the
// persisted control row. Grounded on the teacher's resolved-timestamp
// control row (root resolved_table.go) and its resolver state machine
// (internal/source/cdc/resolver.go).
package replication

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/oknozor/Musicbrainz-pg-light/internal/mberr"
	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

// Control persists dbmirror2.replication_control, the singleton row that
// anchors the mirror to a point in the upstream replication stream,
// mirroring the teacher's resolvedFullTableName/writeUpdated pattern for
// a single control row keyed implicitly (there is exactly one).
type Control struct {
	pool *pgxpool.Pool
}

// NewControl wraps a connection pool.
func NewControl(pool *pgxpool.Pool) *Control {
	return &Control{pool: pool}
}

// Load reads the current control row. It returns mberr.ErrMissingReplicationSequence
// if the row exists but was never populated by a bootstrap run.
func (c *Control) Load(ctx context.Context) (types.ReplicationControl, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT current_schema_sequence, current_replication_sequence, last_replication_date
		FROM dbmirror2.replication_control`)

	var rc types.ReplicationControl
	var replSeq *int
	if err := row.Scan(&rc.CurrentSchemaSequence, &replSeq, &rc.LastReplicationDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ReplicationControl{}, errors.WithStack(mberr.ErrMissingReplicationSequence)
		}
		return types.ReplicationControl{}, errors.Wrap(err, "loading replication control")
	}
	if replSeq == nil {
		return types.ReplicationControl{}, errors.WithStack(mberr.ErrMissingReplicationSequence)
	}
	rc.CurrentReplicationSequence = *replSeq
	return rc, nil
}

// Save writes back the control row after a packet has been fully applied,
// the UPSERT-style write the teacher's writeUpdated performs for its
// resolved-timestamp row, generalized to an UPDATE of the one-row table.
func (c *Control) Save(ctx context.Context, rc types.ReplicationControl) error {
	_, err := c.pool.Exec(ctx, `
		UPDATE dbmirror2.replication_control
		SET current_schema_sequence = $1,
		    current_replication_sequence = $2,
		    last_replication_date = $3`,
		rc.CurrentSchemaSequence, rc.CurrentReplicationSequence, rc.LastReplicationDate)
	return errors.Wrap(err, "saving replication control")
}

var _ types.ControlStore = (*Control)(nil)
