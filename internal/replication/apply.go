package replication

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oknozor/Musicbrainz-pg-light/internal/metrics"
	"github.com/oknozor/Musicbrainz-pg-light/internal/pending"
	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

// Applier applies batches of pending-data rows transactionally, one
// source transaction (xid) at a time, the same Begin-OnData-Commit shape
// the teacher's serialEvents uses around a single pgx.Tx per upstream
// transaction — generalized here from streamed Mutations to compiled
// pending-data SQL statements.
type Applier struct {
	pool     *pgxpool.Pool
	compiler *pending.Compiler
}

// NewApplier wraps a pool and a compiler.
func NewApplier(pool *pgxpool.Pool, compiler *pending.Compiler) *Applier {
	return &Applier{pool: pool, compiler: compiler}
}

// ApplyBatches runs every batch in order, each inside its own transaction,
// so a crash partway through a packet leaves only fully-applied
// transactions committed. keys maps "schema.table" to its PendingKeys.
func (a *Applier) ApplyBatches(ctx context.Context, batches []Batch, keys map[string]types.PendingKeys) error {
	for _, batch := range batches {
		if err := a.applyOne(ctx, batch, keys); err != nil {
			return errors.Wrapf(err, "applying transaction xid=%d", batch.Xid)
		}
	}
	return nil
}

func (a *Applier) applyOne(ctx context.Context, batch Batch, keys map[string]types.PendingKeys) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, row := range batch.Rows {
		full := row.Schema() + "." + row.TableName()
		stmt, err := a.compiler.Compile(row, keys[full])
		if err != nil {
			return errors.Wrapf(err, "compiling seq_id=%d", row.SeqID)
		}
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return errors.Wrapf(err, "executing seq_id=%d: %s", row.SeqID, stmt)
		}
		metrics.PendingRowsApplied.With(prometheus.Labels{"schema": row.Schema(), "table": row.TableName()}).Inc()
	}

	if _, err := tx.Exec(ctx, `DELETE FROM dbmirror2.pending_data WHERE xid = $1`, batch.Xid); err != nil {
		return errors.Wrapf(err, "deleting applied pending data for xid=%d", batch.Xid)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}

	log.WithFields(log.Fields{"xid": batch.Xid, "rows": len(batch.Rows)}).Debug("applied pending data transaction")
	return nil
}
