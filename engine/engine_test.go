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

package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dolthub/go-mysql-cdc/catalog"
	"github.com/dolthub/go-mysql-cdc/convert"
	"github.com/dolthub/go-mysql-cdc/ddl"
	"github.com/dolthub/go-mysql-cdc/event"
	"github.com/dolthub/go-mysql-cdc/history"
	"github.com/dolthub/go-mysql-cdc/sink"
	"github.com/dolthub/vitess/go/sqltypes"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	records []sink.Record
}

func (s *recordingSink) Emit(_ context.Context, rec sink.Record) error {
	s.records = append(s.records, rec)
	return nil
}

type failingSink struct{}

func (failingSink) Emit(context.Context, sink.Record) error {
	return errBoom{}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func header(pos uint32) *replication.EventHeader {
	return &replication.EventHeader{LogPos: pos}
}

func newTestProcessor(t *testing.T, snk sink.Sink) *Processor {
	t.Helper()
	cat := catalog.New()
	cache := convert.New()
	parser := &ddl.Parser{}
	store, err := history.OpenBoltStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return NewProcessor(cat, cache, parser, store, snk, &Config{Server: "server-1"})
}

func TestDispatch_SimpleInsert(t *testing.T) {
	snk := &recordingSink{}
	p := newTestProcessor(t, snk)
	ctx := context.Background()

	require.NoError(t, p.Dispatch(ctx, event.Query{EventHeader: header(100), Database: "d", SQL: "CREATE TABLE t1 (id INT PRIMARY KEY, name VARCHAR(32))"}))
	require.NoError(t, p.Dispatch(ctx, event.TableMap{EventHeader: header(150), TableID: 10, Database: "d", Table: "t1"}))

	rows := event.WriteRows{
		EventHeader: header(200),
		TableID:     10,
		Rows: []event.Row{
			{Values: []sqltypes.Value{sqltypes.NewInt32(1), sqltypes.NewVarChar("a")}},
			{Values: []sqltypes.Value{sqltypes.NewInt32(2), sqltypes.NewVarChar("b")}},
		},
	}
	require.NoError(t, p.Dispatch(ctx, rows))

	require.Len(t, snk.records, 2)
	require.Equal(t, map[string]any{"id": int32(1)}, snk.records[0].Key)
	require.Equal(t, map[string]any{"id": int32(1), "name": "a"}, snk.records[0].Value)
	require.Equal(t, uint32(0), snk.records[0].Offset["row"])
	require.Equal(t, uint32(1), snk.records[1].Offset["row"])
}

func TestDispatch_DeleteTombstone(t *testing.T) {
	snk := &recordingSink{}
	p := newTestProcessor(t, snk)
	ctx := context.Background()

	require.NoError(t, p.Dispatch(ctx, event.Query{EventHeader: header(100), Database: "d", SQL: "CREATE TABLE t1 (id INT PRIMARY KEY)"}))
	require.NoError(t, p.Dispatch(ctx, event.TableMap{EventHeader: header(150), TableID: 10, Database: "d", Table: "t1"}))

	del := event.DeleteRows{
		EventHeader: header(200),
		TableID:     10,
		Rows: []event.Row{
			{Values: []sqltypes.Value{sqltypes.NewInt32(1)}},
		},
	}
	require.NoError(t, p.Dispatch(ctx, del))

	require.Len(t, snk.records, 1)
	require.Equal(t, map[string]any{"id": int32(1)}, snk.records[0].Key)
	require.Nil(t, snk.records[0].Value)
	require.Nil(t, snk.records[0].ValueSchema)
}

func TestDispatch_RotateEvictsConverters(t *testing.T) {
	snk := &recordingSink{}
	p := newTestProcessor(t, snk)
	ctx := context.Background()

	require.NoError(t, p.Dispatch(ctx, event.Query{EventHeader: header(100), Database: "d", SQL: "CREATE TABLE t1 (id INT PRIMARY KEY)"}))
	require.NoError(t, p.Dispatch(ctx, event.TableMap{EventHeader: header(150), TableID: 10, Database: "d", Table: "t1"}))

	require.NoError(t, p.Dispatch(ctx, event.Rotate{EventHeader: header(0), NextLogName: "bin.000002", Position: 4}))

	rows := event.WriteRows{
		EventHeader: header(50),
		TableID:     10,
		Rows:        []event.Row{{Values: []sqltypes.Value{sqltypes.NewInt32(1)}}},
	}
	require.NoError(t, p.Dispatch(ctx, rows))

	require.Empty(t, snk.records, "row event after rotate with no new TABLE_MAP must be dropped, not emitted")
}

func TestDispatch_SchemaChangeMidStream(t *testing.T) {
	snk := &recordingSink{}
	p := newTestProcessor(t, snk)
	ctx := context.Background()

	require.NoError(t, p.Dispatch(ctx, event.Query{EventHeader: header(100), Database: "d", SQL: "CREATE TABLE t1 (id INT PRIMARY KEY)"}))
	require.NoError(t, p.Dispatch(ctx, event.Query{EventHeader: header(150), Database: "d", SQL: "ALTER TABLE t1 ADD COLUMN name VARCHAR(32)"}))
	require.NoError(t, p.Dispatch(ctx, event.TableMap{EventHeader: header(200), TableID: 10, Database: "d", Table: "t1"}))

	rows := event.WriteRows{
		EventHeader: header(250),
		TableID:     10,
		Rows:        []event.Row{{Values: []sqltypes.Value{sqltypes.NewInt32(1), sqltypes.NewVarChar("x")}}},
	}
	require.NoError(t, p.Dispatch(ctx, rows))

	require.Len(t, snk.records, 1)
	require.Equal(t, map[string]any{"id": int32(1), "name": "x"}, snk.records[0].Value)
}

func TestDispatch_UnknownTableDropped(t *testing.T) {
	snk := &recordingSink{}
	p := newTestProcessor(t, snk)
	ctx := context.Background()

	require.NoError(t, p.Dispatch(ctx, event.TableMap{EventHeader: header(100), TableID: 10, Database: "d", Table: "ghost"}))

	rows := event.WriteRows{
		EventHeader: header(150),
		TableID:     10,
		Rows:        []event.Row{{Values: []sqltypes.Value{sqltypes.NewInt32(1)}}},
	}
	require.NoError(t, p.Dispatch(ctx, rows))

	require.Empty(t, snk.records)
}

func TestDispatch_WriteRowsMissingConverterIsNotFatal(t *testing.T) {
	snk := &recordingSink{}
	p := newTestProcessor(t, snk)
	ctx := context.Background()

	rows := event.WriteRows{
		EventHeader: header(100),
		TableID:     999,
		Rows:        []event.Row{{Values: []sqltypes.Value{sqltypes.NewInt32(1)}}},
	}
	require.NoError(t, p.Dispatch(ctx, rows))
	require.Empty(t, snk.records)
}

func TestDispatch_SinkFailureIsFatal(t *testing.T) {
	p := newTestProcessor(t, failingSink{})
	ctx := context.Background()

	require.NoError(t, p.Dispatch(ctx, event.Query{EventHeader: header(100), Database: "d", SQL: "CREATE TABLE t1 (id INT PRIMARY KEY)"}))
	require.NoError(t, p.Dispatch(ctx, event.TableMap{EventHeader: header(150), TableID: 10, Database: "d", Table: "t1"}))

	rows := event.WriteRows{
		EventHeader: header(200),
		TableID:     10,
		Rows:        []event.Row{{Values: []sqltypes.Value{sqltypes.NewInt32(1)}}},
	}
	err := p.Dispatch(ctx, rows)
	require.Error(t, err)
}

func TestReplay_RestartRebuildsCatalogFromHistory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history.db")
	store, err := history.OpenBoltStore(dir)
	require.NoError(t, err)

	cat1 := catalog.New()
	cache1 := convert.New()
	p1 := NewProcessor(cat1, cache1, &ddl.Parser{}, store, &recordingSink{}, &Config{Server: "server-1"})
	ctx := context.Background()
	require.NoError(t, p1.Dispatch(ctx, event.Query{EventHeader: header(100), Database: "d", SQL: "CREATE TABLE t1 (id INT PRIMARY KEY)"}))
	require.NoError(t, store.Close())

	store2, err := history.OpenBoltStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store2.Close()) })

	cat2 := catalog.New()
	p2 := NewProcessor(cat2, convert.New(), &ddl.Parser{}, store2, &recordingSink{}, &Config{Server: "server-1"})
	stats, err := p2.Replay(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.RecordsApplied)
	require.Equal(t, 0, stats.ParseErrors)

	_, ok := cat2.Get(catalog.ID{Schema: "d", Table: "t1"})
	require.True(t, ok)
}
