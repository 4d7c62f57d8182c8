package ingest

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oknozor/Musicbrainz-pg-light/internal/schemasrc"
)

// bootstrapSchemas lists every schema a fresh mirror needs before any
// table DDL runs, per original_source/src/init.rs::create_schemas.
var bootstrapSchemas = []string{
	"musicbrainz",
	"cover_art_archive",
	"event_art_archive",
	"statistics",
	"documentation",
	"wikidocs",
	"dbmirror2",
}

// bootstrapScripts is the fixed order in which admin/sql DDL files must
// run against a freshly created set of schemas: tables first, then
// primary keys, then data fixups that depend on tables existing, then
// foreign keys, indexes, and triggers last so the bulk COPY load that
// happens in between table creation and this list is never slowed down
// by constraint checks. Mirrors original_source/src/init.rs::run_all_scripts.
var bootstrapScripts = []string{
	"CreateTables.sql",
	"caa/CreateTables.sql",
	"eaa/CreateTables.sql",
	"statistics/CreateTables.sql",
	"documentation/CreateTables.sql",
	"CreatePrimaryKeys.sql",
	"caa/CreatePrimaryKeys.sql",
	"eaa/CreatePrimaryKeys.sql",
	"CreateFunctions.sql",
	"CreateFKConstraints.sql",
	"caa/CreateFKConstraints.sql",
	"eaa/CreateFKConstraints.sql",
	"CreateIndexes.sql",
	"caa/CreateIndexes.sql",
	"eaa/CreateIndexes.sql",
	"CreateSearchIndexes.sql",
	"CreateTriggers.sql",
	"caa/CreateTriggers.sql",
}

// RunBootstrapScripts creates every schema listed in bootstrapSchemas then
// runs bootstrapScripts in order, the DDL pass that brackets the bulk
// table loads performed by Ingestor.IngestAll.
func RunBootstrapScripts(ctx context.Context, schema *schemasrc.Client, createSchemas func(ctx context.Context, names []string) error) error {
	if err := createSchemas(ctx, bootstrapSchemas); err != nil {
		return errors.Wrap(err, "creating bootstrap schemas")
	}
	for _, script := range bootstrapScripts {
		log.WithFields(log.Fields{"script": script}).Info("running bootstrap script")
		if err := schema.RunScript(ctx, script); err != nil {
			return errors.Wrapf(err, "running bootstrap script %s", script)
		}
	}
	return nil
}
