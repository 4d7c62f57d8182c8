// Copyright 2023 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package engine wires the mirror's components together. Generalized
// from the teacher's internal/source/logical/provider.go Provide*/wire.Set
// pattern, replacing cdc-sink's appliers/watchers/staging graph with
// mbpg-light's pool/control/store/applier/schema-source graph.
package engine

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oknozor/Musicbrainz-pg-light/internal/config"
	"github.com/oknozor/Musicbrainz-pg-light/internal/pending"
	"github.com/oknozor/Musicbrainz-pg-light/internal/pgcopy"
	"github.com/oknozor/Musicbrainz-pg-light/internal/replication"
	"github.com/oknozor/Musicbrainz-pg-light/internal/schemasrc"
	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideSettings,
	ProvidePool,
	ProvideSQLDB,
	ProvideControl,
	ProvideStore,
	ProvideCompiler,
	ProvideApplier,
	ProvideSchemaClient,
	ProvideDriver,
	ProvideLoop,
)

// ProvideSettings loads configuration, implementing types.SettingsProvider.
func ProvideSettings() (*config.Settings, error) {
	return config.Load(nil)
}

// ProvidePool opens the pgx pool used for COPY and transactional apply.
func ProvidePool(ctx context.Context, settings *config.Settings) (*pgxpool.Pool, func(), error) {
	pool, err := pgcopy.OpenPool(ctx, settings.DatabaseURL())
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

// ProvideSQLDB opens the database/sql pool backed by lib/pq, used by the
// dump ingestor for its table-existence and has-rows checks (DDL runs on
// the pgx pool), mirroring the
// teacher's split between a pgx staging pool and a database/sql target
// pool.
func ProvideSQLDB(settings *config.Settings) (*sql.DB, func(), error) {
	db, err := sql.Open("postgres", settings.DatabaseURL())
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

// ProvideControl constructs the replication control store.
func ProvideControl(pool *pgxpool.Pool) *replication.Control {
	return replication.NewControl(pool)
}

// ProvideStore constructs the pending-data store.
func ProvideStore(pool *pgxpool.Pool) types.PendingStore {
	return pending.NewStore(pool)
}

// ProvideCompiler constructs the pending-data compiler.
func ProvideCompiler() *pending.Compiler {
	return pending.NewCompiler()
}

// ProvideApplier constructs the transactional applier.
func ProvideApplier(pool *pgxpool.Pool, compiler *pending.Compiler) *replication.Applier {
	return replication.NewApplier(pool, compiler)
}

// ProvideSchemaClient constructs the DDL source client.
func ProvideSchemaClient(pool *pgxpool.Pool) *schemasrc.Client {
	return schemasrc.NewClient(pool)
}

// ProvideDriver assembles the replication-packet state machine.
func ProvideDriver(
	settings *config.Settings,
	control *replication.Control,
	store types.PendingStore,
	applier *replication.Applier,
	schema *schemasrc.Client,
	pool *pgxpool.Pool,
) *replication.Driver {
	return &replication.Driver{
		Settings: settings,
		Control:  control,
		Store:    store,
		Applier:  applier,
		Schema:   schema,
		Fetcher:  &replication.HTTPFetcher{},
		Pool:     pool,
	}
}

// ProvideLoop assembles the sync loop around the driver.
func ProvideLoop(driver *replication.Driver) *replication.Loop {
	return &replication.Loop{Driver: driver}
}
