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

// Package types contains the data types and interfaces that define the
// major functional blocks of code within the mirror engine. Placing them
// here keeps the engine's components composable as the project evolves.
package types

import (
	"context"
	"database/sql"
	"time"
)

// Op identifies the kind of row mutation a pending-data record carries.
type Op byte

// The three mutation kinds dbmirror2 queues.
const (
	OpInsert Op = 'i'
	OpUpdate Op = 'u'
	OpDelete Op = 'd'
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// PendingData is one row of dbmirror2.pending_data: a single queued
// mutation awaiting compilation and application.
type PendingData struct {
	SeqID   int64
	Xid     int64
	Table   string // "schema.table"
	Op      Op
	OldData sql.NullString
	NewData sql.NullString
}

// Schema splits Table into its schema and bare table name.
func (p PendingData) Schema() string {
	schema, _ := splitTable(p.Table)
	return schema
}

// TableName returns the bare table name portion of Table.
func (p PendingData) TableName() string {
	_, table := splitTable(p.Table)
	return table
}

func splitTable(full string) (schema, table string) {
	for i := 0; i < len(full); i++ {
		if full[i] == '.' {
			return full[:i], full[i+1:]
		}
	}
	return "", full
}

// PendingKeys records the primary-key column names dbmirror2 tracks for a
// single table, used by the compiler to build DELETE/UPDATE predicates.
type PendingKeys struct {
	Schema string
	Table  string
	Keys   []string
}

// ReplicationControl is the singleton row in dbmirror2.replication_control
// that anchors the mirror to a specific point in the upstream's
// replication stream.
type ReplicationControl struct {
	CurrentSchemaSequence      int
	CurrentReplicationSequence int
	LastReplicationDate        *time.Time
}

// SettingsProvider is the type-erased settings accessor every component
// depends on instead of a concrete configuration struct, so tests can
// supply a fake without constructing a full Settings value.
type SettingsProvider interface {
	DatabaseURL() string
	ReplicationBaseURL() string
	AccessToken() string
	ShouldSkipSchema(schema string) bool
	ShouldSkipTable(schema, table string) bool
}

// ControlStore persists and loads the replication control row.
type ControlStore interface {
	Load(ctx context.Context) (ReplicationControl, error)
	Save(ctx context.Context, rc ReplicationControl) error
}

// PendingStore reads and retires queued pending-data rows.
type PendingStore interface {
	LoadPendingData(ctx context.Context) ([]PendingData, error)
	LoadPendingKeys(ctx context.Context) (map[string]PendingKeys, error)
	Truncate(ctx context.Context) error
}
