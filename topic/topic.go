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

// Package topic resolves the destination name a converted record is
// published under. A Selector is a pure function: the same
// (server, db, table) triple always resolves to the same topic.
package topic

import "fmt"

// Selector resolves the topic for a row event on (server, db, table).
type Selector func(server, db, table string) string

// SchemaChangeSelector resolves the topic a schema-change record for
// server is published under.
type SchemaChangeSelector func(server string) string

// DefaultSelector builds "prefix.db.table"-style topic names, the
// common convention this pack's domain (Debezium-compatible CDC)
// expects.
func DefaultSelector(prefix string) Selector {
	return func(_, db, table string) string {
		if prefix == "" {
			return fmt.Sprintf("%s.%s", db, table)
		}
		return fmt.Sprintf("%s.%s.%s", prefix, db, table)
	}
}

// DefaultSchemaChangeSelector builds "prefix-schema-changes"-style
// topic names for DDL history records.
func DefaultSchemaChangeSelector(prefix string) SchemaChangeSelector {
	return func(_ string) string {
		if prefix == "" {
			return "schema-changes"
		}
		return fmt.Sprintf("%s-schema-changes", prefix)
	}
}
