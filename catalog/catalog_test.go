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

package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testTable(id ID) Table {
	return NewTable(id, []Column{
		{Name: "id", Position: 1, Type: 4, TypeName: "int", Length: -1, Scale: -1},
		{Name: "name", Position: 2, Type: 12, TypeName: "varchar", Length: 255, Scale: -1, Nullable: true},
	}, []string{"id"}, "utf8mb4")
}

func TestID_Equal(t *testing.T) {
	a := ID{Schema: "db1", Table: "users"}
	b := ID{Schema: "db1", Table: "users"}
	c := ID{Schema: "db2", Table: "users"}

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestNewTable_RejectsSparsePositions(t *testing.T) {
	require.Panics(t, func() {
		NewTable(ID{Schema: "db1", Table: "t"}, []Column{
			{Name: "a", Position: 1},
			{Name: "b", Position: 3},
		}, nil, "")
	})
}

func TestNewTable_RejectsUnknownPrimaryKeyColumn(t *testing.T) {
	require.Panics(t, func() {
		NewTable(ID{Schema: "db1", Table: "t"}, []Column{
			{Name: "a", Position: 1},
		}, []string{"missing"}, "")
	})
}

func TestTable_Column(t *testing.T) {
	tbl := testTable(ID{Schema: "db1", Table: "users"})

	col, ok := tbl.Column("name")
	require.True(t, ok)
	require.Equal(t, 2, col.Position)

	_, ok = tbl.Column("nope")
	require.False(t, ok)
}

func TestCatalog_PutGetRemove(t *testing.T) {
	c := New()
	id := ID{Schema: "db1", Table: "users"}
	tbl := testTable(id)

	_, ok := c.Get(id)
	require.False(t, ok)

	c.Put(tbl)
	got, ok := c.Get(id)
	require.True(t, ok)
	require.Equal(t, tbl, got)

	c.Remove(id)
	_, ok = c.Get(id)
	require.False(t, ok)
}

func TestCatalog_DrainChanges(t *testing.T) {
	c := New()
	id1 := ID{Schema: "db1", Table: "a"}
	id2 := ID{Schema: "db1", Table: "b"}

	c.Put(testTable(id1))
	c.Put(testTable(id2))

	changed := c.DrainChanges()
	require.Len(t, changed, 2)
	require.Contains(t, changed, id1)
	require.Contains(t, changed, id2)

	// a second drain with no intervening writes is empty.
	require.Empty(t, c.DrainChanges())

	c.Remove(id1)
	changed = c.DrainChanges()
	require.Len(t, changed, 1)
	require.Contains(t, changed, id1)
}

func TestCatalog_Snapshot(t *testing.T) {
	c := New()
	id := ID{Schema: "db1", Table: "users"}
	c.Put(testTable(id))

	snap := c.Snapshot()
	require.Len(t, snap, 1)

	// Mutating the catalog after the snapshot was taken must not affect it.
	c.Remove(id)
	require.Len(t, snap, 1)
	require.Empty(t, c.Snapshot())
}

func TestCatalog_IDs(t *testing.T) {
	c := New()
	id1 := ID{Schema: "db1", Table: "a"}
	id2 := ID{Schema: "db1", Table: "b"}
	c.Put(testTable(id1))
	c.Put(testTable(id2))

	ids := c.IDs()
	require.Len(t, ids, 2)
	require.ElementsMatch(t, []ID{id1, id2}, ids)
}
