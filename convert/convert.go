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

// Package convert maps the numeric table ids a binlog TABLE_MAP event
// assigns for the lifetime of one binlog file to the catalog.ID and
// derived TableSchema that ROW events reference by that id. It is the
// direct generalization of the teacher's single global tableMapByID
// map into a cache type with explicit rotation semantics.
package convert

import (
	"sync"

	"github.com/dolthub/go-mysql-cdc/catalog"
	"github.com/dolthub/go-mysql-cdc/schema"
)

// Converter is a tagged record describing how to translate row events
// for one numeric table id: which catalog table it names, the derived
// schema to extract with, and where to publish.
type Converter struct {
	TableID       catalog.ID
	Schema        schema.TableSchema
	Topic         string
	PartitionHint *int32
}

// TableFilter decides whether rows for a table should be converted at
// all; returning false causes Lookup to behave as if no converter was
// registered.
type TableFilter func(catalog.ID) bool

// Cache is the numeric-id -> Converter map a stream of TABLE_MAP/ROW
// events is resolved against. A Cache is cleared wholesale on ROTATE;
// the owning catalog.Catalog is never touched by Clear.
type Cache struct {
	mu sync.Mutex

	byNumericID map[uint64]Converter
	idToNumeric map[catalog.ID]uint64
	unknown     map[catalog.ID]struct{}

	Filter TableFilter
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		byNumericID: make(map[uint64]Converter),
		idToNumeric: make(map[catalog.ID]uint64),
		unknown:     make(map[catalog.ID]struct{}),
	}
}

// OnTableMap registers numericID as naming id for the remainder of the
// current binlog file. If id has no catalog entry, the id is recorded
// as unknown (reported by UnknownTableIDs) and no converter is
// registered, so Lookup(numericID) reports none. Nothing is logged
// here, and the unknown set does not limit how often callers warn. If
// id is already mapped under a different numeric id (a table dropped
// and recreated within one file, reusing the name but not the id),
// the stale numeric-id entry is evicted first.
func (c *Cache) OnTableMap(cat *catalog.Catalog, numericID uint64, id catalog.ID, topic string, partitionHint *int32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stale, ok := c.idToNumeric[id]; ok && stale != numericID {
		delete(c.byNumericID, stale)
	}

	tbl, ok := cat.Get(id)
	if !ok {
		c.unknown[id] = struct{}{}
		delete(c.idToNumeric, id)
		delete(c.byNumericID, numericID)
		return
	}
	delete(c.unknown, id)

	conv := Converter{
		TableID:       id,
		Schema:        schema.Build(tbl),
		Topic:         topic,
		PartitionHint: partitionHint,
	}
	c.byNumericID[numericID] = conv
	c.idToNumeric[id] = numericID
}

// Lookup returns the Converter registered for numericID, applying
// Filter if set. A filtered-out table behaves as if it had no
// converter.
func (c *Cache) Lookup(numericID uint64) (Converter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv, ok := c.byNumericID[numericID]
	if !ok {
		return Converter{}, false
	}
	if c.Filter != nil && !c.Filter(conv.TableID) {
		return Converter{}, false
	}
	return conv, true
}

// Clear drops every numeric-id mapping, as must happen on ROTATE since
// a new binlog file may reuse numeric ids for different tables. The
// unknown-id warn-once set and the backing catalog.Catalog are left
// untouched.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byNumericID = make(map[uint64]Converter)
	c.idToNumeric = make(map[catalog.ID]uint64)
}

// NameFilter builds a TableFilter that allows only the tables named in
// names. Each name is either "schema.table" or a bare "table", matched
// against both catalog.ID.String() and the table name alone so a
// CDC_TABLE_FILTER entry doesn't need to repeat the schema when it's
// unambiguous. An empty names allows every table.
func NameFilter(names []string) TableFilter {
	if len(names) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}
	return func(id catalog.ID) bool {
		if _, ok := allowed[id.String()]; ok {
			return true
		}
		_, ok := allowed[id.Table]
		return ok
	}
}

// UnknownTableIDs returns the set of catalog ids a TABLE_MAP event has
// referenced with no corresponding catalog entry, for introspection
// and alerting.
func (c *Cache) UnknownTableIDs() []catalog.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]catalog.ID, 0, len(c.unknown))
	for id := range c.unknown {
		out = append(out, id)
	}
	return out
}
