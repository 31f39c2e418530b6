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

// Package event defines the decoded binlog event shapes a driver
// feeds the engine one at a time, mirroring the handler split in
// deanbaker-spirit's repl.Client (OnRow/OnRotate/OnTableChanged) but
// expressed as data the engine's Processor switches on rather than as
// callbacks.
package event

import (
	"github.com/dolthub/vitess/go/mysql"
	"github.com/dolthub/vitess/go/sqltypes"
	"github.com/go-mysql-org/go-mysql/replication"
)

// Kind identifies which of the six binlog event shapes an Event is.
type Kind int

const (
	KindRotate Kind = iota
	KindQuery
	KindTableMap
	KindWriteRows
	KindUpdateRows
	KindDeleteRows
)

// Event is implemented by every concrete event type below.
type Event interface {
	Kind() Kind
}

// Rotate signals the source has moved to a new binlog file.
type Rotate struct {
	*replication.EventHeader
	NextLogName string
	Position    uint64
}

func (Rotate) Kind() Kind { return KindRotate }

// Query carries the raw SQL text of a statement-based event, most
// commonly DDL.
type Query struct {
	*replication.EventHeader
	Database string
	SQL      string
}

func (Query) Kind() Kind { return KindQuery }

// TableMap associates a numeric table id with a table name and the
// raw column metadata the source sent, for the remainder of the
// current binlog file.
type TableMap struct {
	*replication.EventHeader
	TableID  uint64
	Database string
	Table    string
	Raw      mysql.TableMap
}

func (TableMap) Kind() Kind { return KindTableMap }

// Row is one row tuple from a ROW event, plus the bitmap of which
// columns are present.
type Row struct {
	Values          []sqltypes.Value
	IncludedColumns []bool
}

// WriteRows carries one or more inserted rows for a table id.
type WriteRows struct {
	*replication.EventHeader
	TableID uint64
	Rows    []Row
}

func (WriteRows) Kind() Kind { return KindWriteRows }

// UpdateRow pairs the before and after images of one updated row. Only
// After is emitted by default; Before is retained for the optional
// before-image feature (see engine.Config.EmitBeforeImage).
type UpdateRow struct {
	Before Row
	After  Row
}

// UpdateRows carries one or more updated rows for a table id.
type UpdateRows struct {
	*replication.EventHeader
	TableID uint64
	Rows    []UpdateRow
}

func (UpdateRows) Kind() Kind { return KindUpdateRows }

// DeleteRows carries one or more deleted rows for a table id.
type DeleteRows struct {
	*replication.EventHeader
	TableID uint64
	Rows    []Row
}

func (DeleteRows) Kind() Kind { return KindDeleteRows }
