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

// Package metrics exposes the Prometheus series the engine reports,
// generalized from the teacher's internal/staging/stage/metrics.go from
// mutation-staging counters to COPY/replication counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LatencyBuckets covers sub-second to multi-minute operations, spanning
// both a single pending-data transaction and a full bundle COPY.
var LatencyBuckets = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300, 900}

// TableLabels is the label set every table-scoped series carries.
var TableLabels = []string{"schema", "table"}

var (
	// CopyRows counts rows streamed into a table via COPY during bootstrap.
	CopyRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mblight_copy_rows_total",
		Help: "the number of rows copied into a table during bootstrap",
	}, TableLabels)

	// CopyDurations times each bundle-entry COPY.
	CopyDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mblight_copy_duration_seconds",
		Help:    "the length of time it took to copy a bundle entry into its table",
		Buckets: LatencyBuckets,
	}, TableLabels)

	// CopyErrors counts COPY failures per table.
	CopyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mblight_copy_errors_total",
		Help: "the number of errors encountered while copying a bundle entry",
	}, TableLabels)

	// PacketsApplied counts successfully applied replication packets.
	PacketsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mblight_packets_applied_total",
		Help: "the number of replication packets applied",
	}, []string{"schema_sequence"})

	// PendingRowsApplied counts individual pending-data rows applied
	// across all replication packets.
	PendingRowsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mblight_pending_rows_applied_total",
		Help: "the number of pending data rows applied",
	}, TableLabels)

	// PacketApplyDurations times a full ApplyPendingReplication call.
	PacketApplyDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mblight_packet_apply_duration_seconds",
		Help:    "the length of time it took to apply one replication packet",
		Buckets: LatencyBuckets,
	}, []string{})
)
