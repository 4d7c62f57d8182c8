package pending

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

// Store loads and retires queued rows from dbmirror2.pending_data and
// dbmirror2.pending_keys, implementing types.PendingStore.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// LoadPendingData reads every queued row ordered by xid, then seq_id, so
// all rows of one source transaction are adjacent.
func (s *Store) LoadPendingData(ctx context.Context) ([]types.PendingData, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq_id, xid, tablename, op, olddata, newdata
		FROM dbmirror2.pending_data
		ORDER BY xid, seq_id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending_data")
	}
	defer rows.Close()

	var out []types.PendingData
	for rows.Next() {
		var (
			row types.PendingData
			op  string
		)
		if err := rows.Scan(&row.SeqID, &row.Xid, &row.Table, &op, &row.OldData, &row.NewData); err != nil {
			return nil, errors.Wrap(err, "scanning pending_data row")
		}
		if len(op) != 1 {
			return nil, errors.Errorf("unexpected op value %q for seq_id %d", op, row.SeqID)
		}
		row.Op = types.Op(op[0])
		out = append(out, row)
	}
	return out, errors.Wrap(rows.Err(), "iterating pending_data")
}

// LoadPendingKeys reads the primary-key column list dbmirror2 tracks for
// every table currently under replication, keyed by "schema.table".
func (s *Store) LoadPendingKeys(ctx context.Context) (map[string]types.PendingKeys, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT schemaname, tablename, keyvalue
		FROM dbmirror2.pending_keys
		ORDER BY schemaname, tablename, keyseq`)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending_keys")
	}
	defer rows.Close()

	out := make(map[string]types.PendingKeys)
	for rows.Next() {
		var schema, table, key string
		if err := rows.Scan(&schema, &table, &key); err != nil {
			return nil, errors.Wrap(err, "scanning pending_keys row")
		}
		full := schema + "." + table
		pk := out[full]
		pk.Schema, pk.Table = schema, table
		pk.Keys = append(pk.Keys, key)
		out[full] = pk
	}
	return out, errors.Wrap(rows.Err(), "iterating pending_keys")
}

// Truncate clears both staging tables after a packet's mutations have all
// been applied, the idempotence marker described for the replication
// driver's apply step.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE dbmirror2.pending_data, dbmirror2.pending_keys")
	return errors.Wrap(err, "truncating pending data staging tables")
}
