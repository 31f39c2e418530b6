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

// Package schema derives the key/value record shape for a catalog
// table and converts raw binlog column values into the canonical Go
// representations the sink consumes. It is a pure, stateless
// generalization of the teacher's rowexec.convertValue.
package schema

import (
	"fmt"
	"time"

	"github.com/dolthub/go-mysql-cdc/catalog"
	"github.com/dolthub/vitess/go/sqltypes"
	"github.com/shopspring/decimal"
)

// JDBC-style type codes, matching java.sql.Types values so that
// catalog.Column.Type stays comparable to a well-known external
// vocabulary. Only the codes the ddl parser actually produces are
// listed.
const (
	TypeBit       = -7
	TypeTinyInt   = -6
	TypeSmallInt  = 5
	TypeInteger   = 4
	TypeBigInt    = -5
	TypeFloat     = 6
	TypeDouble    = 8
	TypeDecimal   = 3
	TypeChar      = 1
	TypeVarchar   = 12
	TypeLongVarchar = -1
	TypeBinary    = -2
	TypeVarbinary = -3
	TypeBlob      = -4
	TypeDate      = 91
	TypeTime      = 92
	TypeTimestamp = 93
	TypeBoolean   = 16
)

// FieldType enumerates the canonical Go shapes a column value is
// converted to, per the mapping table reproduced in ConvertValue.
type FieldType int

const (
	FieldInt8 FieldType = iota
	FieldInt16
	FieldInt32
	FieldInt64
	FieldFloat32
	FieldFloat64
	FieldDecimal
	FieldString
	FieldBytes
	FieldDate
	FieldTime
	FieldTimestamp
	FieldBit
	FieldBool
)

// Field describes one column's contribution to a key or value schema.
type Field struct {
	Name     string
	Type     FieldType
	Optional bool
}

// KeySchema is the schema of a table's key record: one field per PK
// column, in PK order, never optional.
type KeySchema struct {
	Fields []Field
}

// ValueSchema is the schema of a table's value record: one field per
// column, in table order.
type ValueSchema struct {
	Fields []Field
}

// TableSchema is the derived key/value shape for one catalog.Table.
type TableSchema struct {
	Table catalog.Table
	// Key is nil when the table has no primary key.
	Key   *KeySchema
	Value ValueSchema
}

// Build derives a TableSchema from a catalog.Table. It is a pure
// function of its input: the same Table always yields an identical
// TableSchema.
func Build(t catalog.Table) TableSchema {
	value := ValueSchema{Fields: make([]Field, len(t.Columns))}
	for i, c := range t.Columns {
		value.Fields[i] = Field{
			Name:     c.Name,
			Type:     fieldTypeOf(c.Type),
			Optional: c.Nullable,
		}
	}

	var key *KeySchema
	if len(t.PrimaryKey) > 0 {
		fields := make([]Field, 0, len(t.PrimaryKey))
		for _, name := range t.PrimaryKey {
			col, ok := t.Column(name)
			if !ok {
				// ddl guarantees every PK name resolves to a column; this
				// would be a catalog.NewTable invariant violation.
				panic(fmt.Sprintf("schema: table %s: primary key column %q not found", t.ID, name))
			}
			fields = append(fields, Field{Name: col.Name, Type: fieldTypeOf(col.Type), Optional: false})
		}
		key = &KeySchema{Fields: fields}
	}

	return TableSchema{Table: t, Key: key, Value: value}
}

func fieldTypeOf(jdbcType int) FieldType {
	switch jdbcType {
	case TypeBit:
		return FieldBit
	case TypeTinyInt:
		return FieldInt8
	case TypeSmallInt:
		return FieldInt16
	case TypeInteger:
		return FieldInt32
	case TypeBigInt:
		return FieldInt64
	case TypeFloat:
		return FieldFloat32
	case TypeDouble:
		return FieldFloat64
	case TypeDecimal:
		return FieldDecimal
	case TypeChar, TypeVarchar, TypeLongVarchar:
		return FieldString
	case TypeBinary, TypeVarbinary, TypeBlob:
		return FieldBytes
	case TypeDate:
		return FieldDate
	case TypeTime:
		return FieldTime
	case TypeTimestamp:
		return FieldTimestamp
	case TypeBoolean:
		return FieldBool
	default:
		return FieldString
	}
}

// Bitmap models the binlog's includedColumnsBitmap: bit i set means
// the row tuple carries a value for column i.
type Bitmap []bool

// Has reports whether column i is included.
func (b Bitmap) Has(i int) bool {
	return i < len(b) && b[i]
}

// ExtractKey builds the key record for a row, or nil if the table has
// no PK. row is indexed the same way as the table's columns.
func (ts TableSchema) ExtractKey(row []sqltypes.Value) (map[string]any, error) {
	if ts.Key == nil {
		return nil, nil
	}
	out := make(map[string]any, len(ts.Table.PrimaryKey))
	for _, name := range ts.Table.PrimaryKey {
		col, ok := ts.Table.Column(name)
		if !ok {
			return nil, fmt.Errorf("schema: primary key column %q not found in table %s", name, ts.Table.ID)
		}
		if col.Position-1 >= len(row) {
			return nil, fmt.Errorf("schema: row has %d values, want at least %d for pk column %q", len(row), col.Position, name)
		}
		v, err := ConvertValue(col, row[col.Position-1])
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// ExtractValue builds the value record for a row. A column whose bit
// is unset in included is omitted from the result entirely (treated
// as absent, not as a zero value), per the binlog's partial-row
// semantics.
func (ts TableSchema) ExtractValue(row []sqltypes.Value, included Bitmap) (map[string]any, error) {
	out := make(map[string]any, len(ts.Table.Columns))
	for _, col := range ts.Table.Columns {
		idx := col.Position - 1
		if included != nil && !included.Has(idx) {
			continue
		}
		if idx >= len(row) {
			continue
		}
		v, err := ConvertValue(col, row[idx])
		if err != nil {
			return nil, err
		}
		out[col.Name] = v
	}
	return out, nil
}

// ConvertValue converts one raw binlog column value to its canonical
// Go representation, per the mapping table:
//
//	TINYINT->int8 SMALLINT->int16 INT->int32 BIGINT->int64
//	FLOAT->float32 DOUBLE->float64 DECIMAL->decimal.Decimal
//	CHAR/VARCHAR/TEXT->string BINARY/VARBINARY/BLOB->[]byte
//	DATE->int32 (days since epoch) TIME->int64 (micros)
//	DATETIME/TIMESTAMP->int64 (micros since epoch) BIT->[]byte
//	BOOLEAN->bool
//
// A SQL NULL value converts to a nil interface regardless of type,
// matching the teacher's TestConvertValue_NullValue.
func ConvertValue(col catalog.Column, v sqltypes.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}

	switch fieldTypeOf(col.Type) {
	case FieldBool:
		n, err := v.ToInt64()
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return n != 0, nil
	case FieldInt8:
		n, err := v.ToInt64()
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return int8(n), nil
	case FieldInt16:
		n, err := v.ToInt64()
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return int16(n), nil
	case FieldInt32:
		n, err := v.ToInt64()
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return int32(n), nil
	case FieldInt64:
		n, err := v.ToInt64()
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return n, nil
	case FieldFloat32:
		f, err := v.ToFloat64()
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return float32(f), nil
	case FieldFloat64:
		f, err := v.ToFloat64()
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return f, nil
	case FieldDecimal:
		d, err := decimal.NewFromString(v.ToString())
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return d, nil
	case FieldString:
		return v.ToString(), nil
	case FieldBytes, FieldBit:
		b := v.ToBytes()
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case FieldDate:
		t, err := time.Parse("2006-01-02", v.ToString())
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return int32(t.Unix() / 86400), nil
	case FieldTime:
		d, err := parseTimeOfDay(v.ToString())
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return int64(d / time.Microsecond), nil
	case FieldTimestamp:
		t, err := parseDateTime(v.ToString())
		if err != nil {
			return nil, fmt.Errorf("schema: converting %q: %w", col.Name, err)
		}
		return t.UnixMicro(), nil
	default:
		return v.ToString(), nil
	}
}

// parseDateTime accepts both "2006-01-02 15:04:05" and
// "2006-01-02 15:04:05.999999", the two forms MySQL emits depending on
// whether the column has fractional seconds.
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05.999999", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseTimeOfDay accepts "15:04:05" and "15:04:05.999999", returned as
// a duration since midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	layout := "15:04:05"
	if len(s) > 8 {
		layout = "15:04:05.999999"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond()), nil
}
