// Package pgcopy drives bulk loads into Postgres using the COPY protocol,
// toggling tables UNLOGGED for the duration of the load to skip WAL
// writes, mirroring the teacher's table-scoped sink abstraction but
// replacing its row-at-a-time upsert/delete building with a single
// streamed COPY.
package pgcopy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"

	"github.com/oknozor/Musicbrainz-pg-light/internal/metrics"
)

// ChunkSize is the buffer size used when forwarding an archive entry into
// the COPY stream, matching the teacher's scanner-based line-at-a-time
// forwarding but sized for bulk throughput instead.
const ChunkSize = 8 << 20 // 8 MiB

// ProgressFunc is invoked after each chunk is forwarded into the COPY
// stream, reporting cumulative bytes sent for an entry.
type ProgressFunc func(sent int64)

// Sink drives COPY FROM STDIN loads against a single Postgres connection.
type Sink struct {
	conn *pgx.Conn
}

// NewSink wraps an already-established connection. The caller owns the
// connection's lifecycle.
func NewSink(conn *pgx.Conn) *Sink {
	return &Sink{conn: conn}
}

// CopyEntry loads the contents of r into schema.table via COPY FROM STDIN,
// toggling the table UNLOGGED around the load per the bootstrap loading
// algorithm: SET UNLOGGED, COPY inside a transaction, commit, then best-
// effort SET LOGGED so the table is crash-safe again afterward.
func (s *Sink) CopyEntry(ctx context.Context, schema, table string, r io.Reader, progress ProgressFunc) (int64, error) {
	full := pgx.Identifier{schema, table}.Sanitize()
	labels := prometheus.Labels{"schema": schema, "table": table}
	start := time.Now()
	defer func() { metrics.CopyDurations.With(labels).Observe(time.Since(start).Seconds()) }()

	if _, err := s.conn.Exec(ctx, fmt.Sprintf("ALTER TABLE %s SET UNLOGGED", full)); err != nil {
		metrics.CopyErrors.With(labels).Inc()
		return 0, errors.Wrapf(err, "setting %s unlogged", full)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		metrics.CopyErrors.With(labels).Inc()
		return 0, errors.Wrapf(err, "beginning copy transaction for %s", full)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cr := &countingReader{r: r, progress: progress}
	copySQL := fmt.Sprintf("COPY %s FROM STDIN", full)
	tag, err := s.conn.PgConn().CopyFrom(ctx, bufio.NewReaderSize(cr, ChunkSize), copySQL)
	if err != nil {
		metrics.CopyErrors.With(labels).Inc()
		return cr.sent, errors.Wrapf(err, "copying into %s", full)
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.CopyErrors.With(labels).Inc()
		return cr.sent, errors.Wrapf(err, "committing copy into %s", full)
	}
	metrics.CopyRows.With(labels).Add(float64(tag.RowsAffected()))

	if _, err := s.conn.Exec(ctx, fmt.Sprintf("ALTER TABLE %s SET LOGGED", full)); err != nil {
		log.WithFields(log.Fields{"table": full}).WithError(err).
			Warn("could not restore table to logged after copy")
	}

	log.WithFields(log.Fields{
		"table": full,
		"rows":  tag.RowsAffected(),
		"bytes": cr.sent,
	}).Info("copy complete")

	return cr.sent, nil
}

// countingReader forwards reads from r in ChunkSize-ish pieces, invoking
// progress after every underlying Read call.
type countingReader struct {
	r        io.Reader
	sent     int64
	progress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.sent += int64(n)
	if c.progress != nil {
		c.progress(c.sent)
	}
	return n, err
}
