// Package ingest drives the bootstrap load: downloading the full-export
// bz2 bundles, streaming each entry through the COPY sink driver, and
// deciding which tables to skip per the configured allow-lists.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oknozor/Musicbrainz-pg-light/internal/archive"
	"github.com/oknozor/Musicbrainz-pg-light/internal/pgcopy"
	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

// musicbrainzFTP is the upstream host full-export bundles are fetched
// from, matching the MUSICBRAINZ_FTP constant in original_source/src/pg.rs.
const musicbrainzFTP = "https://data.metabrainz.org/pub/musicbrainz/data/fullexport"

// bundles is the fixed list of bz2 bundles a bootstrap run ingests. The
// "even-art-archive" spelling is upstream's own naming and is kept
// verbatim rather than corrected to "event".
var bundles = []string{
	"mbdump.tar.bz2",
	"mbdump-derived.tar.bz2",
	"mbdump-stats.tar.bz2",
	"mbdump-cover-art-archive.tar.bz2",
	"mbdump-even-art-archive.tar.bz2",
}

// Ingestor downloads and loads every bundle in order.
type Ingestor struct {
	Settings types.SettingsProvider
	Conn     *pgx.Conn
	DB       *sql.DB // information_schema checks, matching the teacher's database/sql-backed target pool
	HTTP     *http.Client
	LatestDir string // e.g. "20240301-001001", resolved by the caller before IngestAll
}

// IngestAll downloads and loads every bundle, skipping tables per the
// settings allow-lists.
func (i *Ingestor) IngestAll(ctx context.Context) error {
	sink := pgcopy.NewSink(i.Conn)
	// Optional bundles are downloaded only when their schema is kept.
	bundleSchemas := map[string]string{
		"mbdump-stats.tar.bz2":             "statistics",
		"mbdump-cover-art-archive.tar.bz2": "cover_art_archive",
		"mbdump-even-art-archive.tar.bz2":  "event_art_archive",
	}
	for _, bundle := range bundles {
		if schema, ok := bundleSchemas[bundle]; ok && i.Settings.ShouldSkipSchema(schema) {
			continue
		}
		if err := i.ingestBundle(ctx, sink, bundle); err != nil {
			return errors.Wrapf(err, "ingesting %s", bundle)
		}
	}
	return nil
}

func (i *Ingestor) ingestBundle(ctx context.Context, sink *pgcopy.Sink, bundle string) error {
	url := fmt.Sprintf("%s/%s/%s", musicbrainzFTP, i.LatestDir, bundle)
	client := i.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "building bundle request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "downloading bundle")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		log.WithFields(log.Fields{"bundle": bundle}).Warn("optional bundle not present upstream, skipping")
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d downloading %s", resp.StatusCode, url)
	}

	r := archive.NewReader(resp.Body)
	for {
		entry, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		schema, table, skip, err := i.resolveTarget(ctx, entry.Name)
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		var sent int64
		_, err = sink.CopyEntry(ctx, schema, table, entry, func(n int64) { sent = n })
		if err != nil {
			return errors.Wrapf(err, "copying entry %s", entry.Name)
		}
		log.WithFields(log.Fields{"entry": entry.Name, "bytes": sent}).Debug("ingested dump entry")
	}
}

// resolveTarget maps a tar entry name (e.g. "mbdump/artist" or
// "mbdump/artist_sanitised") to its destination schema/table and decides
// whether it should be skipped, per the dump ingestor's skip-decision
// algorithm: strip the "mbdump/" prefix and any "_sanitised" suffix, take
// the owning schema from a known "<schema>." name prefix (musicbrainz
// otherwise), then skip when the settings allow-lists exclude it, the
// table does not exist, or the table already holds rows.
func (i *Ingestor) resolveTarget(ctx context.Context, entryName string) (schema, table string, skip bool, err error) {
	name := strings.TrimPrefix(entryName, "mbdump/")
	name = strings.TrimSuffix(name, "_sanitised")

	schema = "musicbrainz"
	switch {
	case strings.HasPrefix(name, "cover_art_archive."):
		schema, name = "cover_art_archive", strings.TrimPrefix(name, "cover_art_archive.")
	case strings.HasPrefix(name, "event_art_archive."):
		schema, name = "event_art_archive", strings.TrimPrefix(name, "event_art_archive.")
	case strings.HasPrefix(name, "statistics."):
		schema, name = "statistics", strings.TrimPrefix(name, "statistics.")
	case strings.HasPrefix(name, "documentation."):
		schema, name = "documentation", strings.TrimPrefix(name, "documentation.")
	case strings.HasPrefix(name, "wikidocs."):
		schema, name = "wikidocs", strings.TrimPrefix(name, "wikidocs.")
	}

	if i.Settings.ShouldSkipSchema(schema) || i.Settings.ShouldSkipTable(schema, name) {
		return schema, name, true, nil
	}

	exists, err := i.tableExists(ctx, schema, name)
	if err != nil {
		return schema, name, false, err
	}
	if !exists {
		return schema, name, true, nil
	}

	// A table that already holds rows was loaded by an earlier run.
	var hasRows bool
	full := pgx.Identifier{schema, name}.Sanitize()
	if err := i.DB.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM "+full+" LIMIT 1)").Scan(&hasRows); err != nil {
		return schema, name, false, errors.Wrap(err, "checking whether table has rows")
	}
	return schema, name, hasRows, nil
}

// tableExists checks information_schema over the database/sql pool,
// mirroring the teacher's split between a pgx-backed staging pool and a
// database/sql-backed target pool used for introspection queries.
func (i *Ingestor) tableExists(ctx context.Context, schema, table string) (bool, error) {
	var exists bool
	err := i.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`, schema, table).Scan(&exists)
	return exists, errors.Wrap(err, "checking table existence")
}
