// Copyright 2020-2025 Dolthub, Inc.
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

// Package cdcerrors holds the sentinel error kinds shared across the
// binlog CDC core. Recoverable conditions are logged and swallowed by
// their owning package; fatal conditions are returned up to the
// runner, possibly wrapped with context, so it can decide whether to
// stop the engine.
package cdcerrors

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrDDLParseFailed is recorded in history and logged; the catalog
	// is left untouched for the offending statement.
	ErrDDLParseFailed = errors.NewKind("failed to parse ddl statement: %s")

	// ErrUnknownTable names the condition of a row event whose table id
	// never had a Catalog entry. No package returns it: engine.Processor
	// logs a warning for every such row event (not once per table id)
	// and drops its rows.
	ErrUnknownTable = errors.NewKind("row event for table with no catalog entry: %s")

	// ErrMissingConverter names the condition of a row event whose
	// numeric table id has no registered Converter (no TABLE_MAP seen
	// since the last ROTATE, or the table is filtered out). No package
	// returns it: engine.Processor logs a warning and drops the rows.
	ErrMissingConverter = errors.NewKind("row event for table id %d with no converter")

	// ErrOffsetDecodeFailed is fatal at startup.
	ErrOffsetDecodeFailed = errors.NewKind("could not decode persisted offset: %s")

	// ErrSinkFailure is fatal and propagated to the runner.
	ErrSinkFailure = errors.NewKind("sink failed to accept record")

	// ErrHistoryWriteFailure is fatal: the core cannot advance without
	// durable history.
	ErrHistoryWriteFailure = errors.NewKind("history store failed to durably record ddl")

	// ErrEventDecodeFailed is fatal and propagated to the runner.
	ErrEventDecodeFailed = errors.NewKind("malformed event from source")

	// ErrPartitionMismatch names an offset applied against a different
	// logical server than the one it was captured from. No package
	// returns it; DecodeOffset does not compare partitions.
	ErrPartitionMismatch = errors.NewKind("offset partition %q does not match source partition %q")
)
