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

package replication

import "github.com/oknozor/Musicbrainz-pg-light/internal/types"

// Batch is every pending-data row produced by a single source transaction
// (xid), in seq_id order.
type Batch struct {
	Xid  int64
	Rows []types.PendingData
}

// GroupByXid splits a slice of pending-data rows into per-transaction
// batches, preserving both the relative order of batches and the relative
// order of rows within a batch. Only consecutive rows with the same xid
// are coalesced; Store.LoadPendingData returns rows ordered by xid, then
// seq_id, so each xid forms exactly one batch and a single forward pass
// suffices.
//
// This mirrors the teacher's UniqueByKey backward-scan grouping idiom,
// adapted from deduplicating mutations by key to grouping mutations by
// transaction id without discarding any of them.
func GroupByXid(rows []types.PendingData) []Batch {
	var batches []Batch
	for _, row := range rows {
		if n := len(batches); n > 0 && batches[n-1].Xid == row.Xid {
			batches[n-1].Rows = append(batches[n-1].Rows, row)
			continue
		}
		batches = append(batches, Batch{Xid: row.Xid, Rows: []types.PendingData{row}})
	}
	return batches
}
