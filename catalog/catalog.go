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

// Package catalog holds the in-memory picture of every table the CDC
// engine currently knows about. A Catalog is single-writer: only the
// engine's Processor, through its ddl.Parser, ever calls Put/Remove;
// everything else reads a Snapshot.
package catalog

import (
	"fmt"
	"sync"
)

// ID is the qualified table id: (catalog, schema, table). Catalog and
// schema may be empty. Equality ignores an absent component only when
// both sides are absent.
type ID struct {
	Catalog string
	Schema  string
	Table   string
}

// Equal reports whether id and other name the same table, treating an
// empty Catalog/Schema on one side as equal to an empty one on the
// other, but never as equal to a non-empty one.
func (id ID) Equal(other ID) bool {
	return id.Catalog == other.Catalog && id.Schema == other.Schema && id.Table == other.Table
}

func (id ID) String() string {
	switch {
	case id.Catalog != "" && id.Schema != "":
		return fmt.Sprintf("%s.%s.%s", id.Catalog, id.Schema, id.Table)
	case id.Schema != "":
		return fmt.Sprintf("%s.%s", id.Schema, id.Table)
	default:
		return id.Table
	}
}

// Column is an immutable description of one table column.
type Column struct {
	Name string
	// Position is the column's 1-based ordinal within the table.
	Position int
	// Type is the JDBC-style type code (see schema.FieldType mapping).
	Type int
	// TypeName is the vendor (MySQL) type name, e.g. "varchar", "decimal".
	TypeName string
	// Length is -1 when unspecified.
	Length int64
	// Scale is -1 when unspecified.
	Scale int64
	Nullable      bool
	AutoIncrement bool
	Generated     bool
}

func (c Column) String() string {
	return fmt.Sprintf("%s[%d] %s", c.Name, c.Position, c.TypeName)
}

// Table is an immutable snapshot of one table's structure. Tables are
// always replaced wholesale in a Catalog, never mutated in place.
type Table struct {
	ID         ID
	Columns    []Column
	PrimaryKey []string
	Charset    string
}

// NewTable validates and constructs a Table. Columns must be ordered
// by Position with dense positions starting at 1, and every PK name
// must resolve to a column. A violation is a programmer/parser error,
// not a runtime condition the engine recovers from, so it panics.
func NewTable(id ID, columns []Column, primaryKey []string, charset string) Table {
	byName := make(map[string]bool, len(columns))
	for i, c := range columns {
		if c.Position != i+1 {
			panic(fmt.Sprintf("catalog: table %s: column %q has position %d, want dense position %d", id, c.Name, c.Position, i+1))
		}
		byName[c.Name] = true
	}
	for _, pk := range primaryKey {
		if !byName[pk] {
			panic(fmt.Sprintf("catalog: table %s: primary key column %q not found among table columns", id, pk))
		}
	}
	return Table{ID: id, Columns: columns, PrimaryKey: primaryKey, Charset: charset}
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t Table) String() string {
	return fmt.Sprintf("Table{%s, %d cols, pk=%v}", t.ID, len(t.Columns), t.PrimaryKey)
}

// Catalog is the mutable, single-writer set of known tables, plus the
// set of ids mutated since the last DrainChanges call.
type Catalog struct {
	mu      sync.Mutex
	tables  map[ID]Table
	changed map[ID]struct{}
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		tables:  make(map[ID]Table),
		changed: make(map[ID]struct{}),
	}
}

// Get looks up a table by id.
func (c *Catalog) Get(id ID) (Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[id]
	return t, ok
}

// Put replaces (or creates) the entry for t.ID atomically from a
// reader's perspective, and records the id as changed.
func (c *Catalog) Put(t Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[t.ID] = t
	c.changed[t.ID] = struct{}{}
}

// Remove drops the entry for id, if present, and records the id as
// changed.
func (c *Catalog) Remove(id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, id)
	c.changed[id] = struct{}{}
}

// IDs returns a stable-within-this-snapshot, unspecified-order slice
// of every known table id.
func (c *Catalog) IDs() []ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]ID, 0, len(c.tables))
	for id := range c.tables {
		ids = append(ids, id)
	}
	return ids
}

// DrainChanges atomically returns the set of ids changed since the
// last call (or since creation) and clears it.
func (c *Catalog) DrainChanges() map[ID]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := c.changed
	c.changed = make(map[ID]struct{})
	return drained
}

// Snapshot returns a consistent, independent copy of every table in
// the catalog, the explicit read path non-writer callers (tests,
// introspection) use instead of reaching into the live map.
func (c *Catalog) Snapshot() map[ID]Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[ID]Table, len(c.tables))
	for id, t := range c.tables {
		out[id] = t
	}
	return out
}
