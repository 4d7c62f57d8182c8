package engine

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oknozor/Musicbrainz-pg-light/internal/config"
	"github.com/oknozor/Musicbrainz-pg-light/internal/ingest"
	"github.com/oknozor/Musicbrainz-pg-light/internal/replication"
	"github.com/oknozor/Musicbrainz-pg-light/internal/schemasrc"
)

// Engine is the fully wired mirror: the bootstrap ingestor and the
// replication driver/loop share the same pools.
type Engine struct {
	Settings *config.Settings
	Pool     *pgxpool.Pool
	SQLDB    *sql.DB
	Driver   *replication.Driver
	Loop     *replication.Loop
	Schema   *schemasrc.Client
}

// Init runs the bootstrap: create schemas, run the ordered DDL scripts,
// then download and COPY-load every full-export bundle. latestDir is the
// upstream full-export directory name (e.g. "20240301-001001").
func (e *Engine) Init(ctx context.Context, latestDir string) error {
	createSchemas := func(ctx context.Context, names []string) error {
		for _, name := range names {
			if _, err := e.Pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+name); err != nil {
				return errors.Wrapf(err, "creating schema %s", name)
			}
		}
		return nil
	}

	if err := ingest.RunBootstrapScripts(ctx, e.Schema, createSchemas); err != nil {
		return err
	}

	conn, err := e.Pool.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "acquiring connection for ingest")
	}
	defer conn.Release()

	ingestor := &ingest.Ingestor{
		Settings:  e.Settings,
		Conn:      conn.Conn(),
		DB:        e.SQLDB,
		LatestDir: latestDir,
	}
	if err := ingestor.IngestAll(ctx); err != nil {
		return err
	}

	log.Info("bootstrap complete")
	return nil
}

// Sync runs the replication sync loop. loop, when true, keeps polling
// after catching up rather than exiting once ErrNotFound is observed.
func (e *Engine) Sync(ctx context.Context, loop bool) error {
	return e.Loop.Run(ctx, replication.LoopOptions{Continuous: loop})
}
