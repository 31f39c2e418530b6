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

// Package engine wires the catalog, ddl parser, converter cache,
// history store, and sink together into the single-writer event loop
// that turns decoded binlog events into emitted records.
package engine

import (
	"context"

	"github.com/dolthub/go-mysql-cdc/catalog"
	"github.com/dolthub/go-mysql-cdc/cdcerrors"
	"github.com/dolthub/go-mysql-cdc/convert"
	"github.com/dolthub/go-mysql-cdc/ddl"
	"github.com/dolthub/go-mysql-cdc/event"
	"github.com/dolthub/go-mysql-cdc/history"
	"github.com/dolthub/go-mysql-cdc/position"
	"github.com/dolthub/go-mysql-cdc/schema"
	"github.com/dolthub/go-mysql-cdc/sink"
	"github.com/dolthub/go-mysql-cdc/topic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config configures a Processor. The zero value is usable: every flag
// defaults to off, matching the teacher's Config pattern in engine.go
// of named fields with no builder.
type Config struct {
	Server             string
	Topics             topic.Selector
	SchemaChangeTopics topic.SchemaChangeSelector
	EmitSchemaChange   bool
	EmitBeforeImage    bool
	Log                logrus.FieldLogger
}

// Processor is the EventProcessor: the single-writer loop that
// dispatches one decoded event at a time against a Catalog, recording
// DDL durably and emitting converted row records to a Sink.
type Processor struct {
	Catalog *catalog.Catalog
	Cache   *convert.Cache
	Parser  *ddl.Parser
	History history.Store
	Sink    sink.Sink

	topics             topic.Selector
	schemaChangeTopics topic.SchemaChangeSelector
	emitSchemaChange   bool
	emitBeforeImage    bool
	log                logrus.FieldLogger

	pos         position.SourcePosition
	schemaCache map[catalog.ID]schema.TableSchema
}

// ReplayStats summarizes a completed Replay call.
type ReplayStats struct {
	RecordsApplied int
	ParseErrors    int
}

// NewProcessor builds a Processor from its owned subsystems and cfg.
// A nil cfg is treated as the zero Config.
func NewProcessor(cat *catalog.Catalog, cache *convert.Cache, parser *ddl.Parser, hist history.Store, snk sink.Sink, cfg *Config) *Processor {
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	topics := cfg.Topics
	if topics == nil {
		topics = topic.DefaultSelector("")
	}
	schemaTopics := cfg.SchemaChangeTopics
	if schemaTopics == nil {
		schemaTopics = topic.DefaultSchemaChangeSelector("")
	}

	return &Processor{
		Catalog:            cat,
		Cache:              cache,
		Parser:             parser,
		History:            hist,
		Sink:               snk,
		topics:             topics,
		schemaChangeTopics: schemaTopics,
		emitSchemaChange:   cfg.EmitSchemaChange,
		emitBeforeImage:    cfg.EmitBeforeImage,
		log:                log,
		pos:                position.New(cfg.Server, "", 0, 0),
		schemaCache:        make(map[catalog.ID]schema.TableSchema),
	}
}

// Replay rebuilds the Catalog from durable history before Dispatch is
// ever called, per spec.md §4.4.
func (p *Processor) Replay(ctx context.Context) (ReplayStats, error) {
	var stats ReplayStats
	err := p.History.Replay(ctx, func(rec history.Record) error {
		stats.RecordsApplied++
		if err := p.Parser.Parse(p.Catalog, rec.Database, rec.DDL); err != nil {
			stats.ParseErrors++
		}
		return nil
	})
	if err != nil {
		return stats, errors.Wrap(err, "engine: replay failed")
	}
	p.invalidateChangedSchemas()
	return stats, nil
}

// Dispatch processes one decoded event. It is not safe to call
// concurrently; the engine is single-writer by design (spec.md §5).
func (p *Processor) Dispatch(ctx context.Context, ev event.Event) error {
	switch e := ev.(type) {
	case event.Rotate:
		return p.onRotate(e)
	case event.Query:
		return p.onQuery(ctx, e)
	case event.TableMap:
		return p.onTableMap(e)
	case event.WriteRows:
		return p.onWriteRows(ctx, e)
	case event.UpdateRows:
		return p.onUpdateRows(ctx, e)
	case event.DeleteRows:
		return p.onDeleteRows(ctx, e)
	default:
		return cdcerrors.ErrEventDecodeFailed.New("unrecognized event type")
	}
}

func (p *Processor) onRotate(e event.Rotate) error {
	p.pos = p.pos.WithFile(e.NextLogName, uint32(e.Position))
	p.Cache.Clear()
	return nil
}

func (p *Processor) onQuery(ctx context.Context, e event.Query) error {
	p.pos = p.pos.WithEventPos(uint32(e.LogPos))

	applied := true
	if err := p.Parser.Parse(p.Catalog, e.Database, e.SQL); err != nil {
		applied = false
		p.log.WithError(err).WithField("sql", e.SQL).Warn("engine: ddl parse failed, recorded but not applied")
	}

	rec := history.Record{
		Partition: p.pos.Partition(),
		Offset:    p.pos.Offset(),
		Database:  e.Database,
		DDL:       e.SQL,
		Applied:   applied,
	}
	if err := p.History.Record(ctx, rec); err != nil {
		return errors.Wrap(err, "engine: failed to record ddl history")
	}

	p.invalidateChangedSchemas()

	if p.emitSchemaChange && applied {
		if err := p.emitSchemaChangeRecord(ctx, e.Database, e.SQL); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) emitSchemaChangeRecord(ctx context.Context, database, ddlText string) error {
	rec := sink.Record{
		Partition: p.pos.Partition().Map(),
		Offset:    p.pos.Offset().Map(),
		Topic:     p.schemaChangeTopics(p.pos.Partition().Server),
		Value: map[string]any{
			"database": database,
			"ddl":      ddlText,
		},
	}
	if err := p.Sink.Emit(ctx, rec); err != nil {
		return cdcerrors.ErrSinkFailure.New(err.Error())
	}
	return nil
}

func (p *Processor) invalidateChangedSchemas() {
	changed := p.Catalog.DrainChanges()
	for id := range changed {
		delete(p.schemaCache, id)
	}
}

func (p *Processor) onTableMap(e event.TableMap) error {
	p.pos = p.pos.WithEventPos(uint32(e.LogPos))

	id := catalog.ID{Schema: e.Database, Table: e.Table}
	topicName := p.topics(p.pos.Partition().Server, e.Database, e.Table)
	p.Cache.OnTableMap(p.Catalog, e.TableID, id, topicName, nil)
	return nil
}

func (p *Processor) tableSchema(id catalog.ID) (schema.TableSchema, bool) {
	if ts, ok := p.schemaCache[id]; ok {
		return ts, true
	}
	tbl, ok := p.Catalog.Get(id)
	if !ok {
		return schema.TableSchema{}, false
	}
	ts := schema.Build(tbl)
	p.schemaCache[id] = ts
	return ts, true
}

func (p *Processor) onWriteRows(ctx context.Context, e event.WriteRows) error {
	p.pos = p.pos.WithEventPos(uint32(e.LogPos))
	conv, ok := p.Cache.Lookup(e.TableID)
	if !ok {
		p.log.WithField("table_id", e.TableID).Warn("engine: write_rows for unknown converter, dropping")
		return nil
	}
	ts, ok := p.tableSchema(conv.TableID)
	if !ok {
		p.log.WithField("table", conv.TableID).Warn("engine: write_rows for table with no catalog entry, dropping")
		return nil
	}

	for i, row := range e.Rows {
		p.pos = p.pos.WithRow(uint32(i))
		key, err := ts.ExtractKey(row.Values)
		if err != nil {
			return errors.Wrap(err, "engine: extracting key")
		}
		val, err := ts.ExtractValue(row.Values, row.IncludedColumns)
		if err != nil {
			return errors.Wrap(err, "engine: extracting value")
		}
		if err := p.emit(ctx, ts, conv, key, val); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) onUpdateRows(ctx context.Context, e event.UpdateRows) error {
	p.pos = p.pos.WithEventPos(uint32(e.LogPos))
	conv, ok := p.Cache.Lookup(e.TableID)
	if !ok {
		p.log.WithField("table_id", e.TableID).Warn("engine: update_rows for unknown converter, dropping")
		return nil
	}
	ts, ok := p.tableSchema(conv.TableID)
	if !ok {
		p.log.WithField("table", conv.TableID).Warn("engine: update_rows for table with no catalog entry, dropping")
		return nil
	}

	for i, pair := range e.Rows {
		p.pos = p.pos.WithRow(uint32(i))
		key, err := ts.ExtractKey(pair.After.Values)
		if err != nil {
			return errors.Wrap(err, "engine: extracting key")
		}
		val, err := ts.ExtractValue(pair.After.Values, pair.After.IncludedColumns)
		if err != nil {
			return errors.Wrap(err, "engine: extracting value")
		}

		if p.emitBeforeImage {
			before, err := ts.ExtractValue(pair.Before.Values, pair.Before.IncludedColumns)
			if err != nil {
				return errors.Wrap(err, "engine: extracting before-image")
			}
			if val != nil {
				val["__before"] = before
			}
		}

		if err := p.emit(ctx, ts, conv, key, val); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) onDeleteRows(ctx context.Context, e event.DeleteRows) error {
	p.pos = p.pos.WithEventPos(uint32(e.LogPos))
	conv, ok := p.Cache.Lookup(e.TableID)
	if !ok {
		p.log.WithField("table_id", e.TableID).Warn("engine: delete_rows for unknown converter, dropping")
		return nil
	}
	ts, ok := p.tableSchema(conv.TableID)
	if !ok {
		p.log.WithField("table", conv.TableID).Warn("engine: delete_rows for table with no catalog entry, dropping")
		return nil
	}

	for i, row := range e.Rows {
		p.pos = p.pos.WithRow(uint32(i))
		key, err := ts.ExtractKey(row.Values)
		if err != nil {
			return errors.Wrap(err, "engine: extracting key")
		}
		// A delete tombstone carries a nil value, per the emit contract.
		if err := p.emit(ctx, ts, conv, key, nil); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) emit(ctx context.Context, ts schema.TableSchema, conv convert.Converter, key, val any) error {
	// A delete tombstone carries both a nil value and a nil value
	// schema (spec.md §4.6); every other record carries the table's
	// derived value schema alongside its value.
	var valueSchema *schema.ValueSchema
	if val != nil {
		valueSchema = &ts.Value
	}

	rec := sink.Record{
		Partition:     p.pos.Partition().Map(),
		Offset:        p.pos.Offset().Map(),
		Topic:         conv.Topic,
		PartitionHint: conv.PartitionHint,
		KeySchema:     ts.Key,
		Key:           key,
		ValueSchema:   valueSchema,
		Value:         val,
	}
	if err := p.Sink.Emit(ctx, rec); err != nil {
		return cdcerrors.ErrSinkFailure.New(err.Error())
	}
	return nil
}
