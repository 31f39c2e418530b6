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

// Package ddl turns a QUERY event's SQL text into mutations against a
// catalog.Catalog. Parse failures are logged and returned wrapped in
// cdcerrors.ErrDDLParseFailed; they never abort the caller's stream.
package ddl

import (
	"strconv"
	"strings"

	"github.com/dolthub/go-mysql-cdc/catalog"
	"github.com/dolthub/go-mysql-cdc/cdcerrors"
	"github.com/dolthub/go-mysql-cdc/schema"
	"github.com/dolthub/vitess/go/vt/sqlparser"
	"github.com/sirupsen/logrus"
)

// ignorable statements are recognized by prefix, before a parse is
// even attempted, matching spec.md §4.2's "statements with no schema
// effect are dropped without being sent to the parser."
var ignorablePrefixes = []string{
	"begin",
	"commit",
	"rollback",
	"savepoint",
	"release savepoint",
	"flush privileges",
	"flush tables",
	"set ",
	"grant ",
	"revoke ",
	"lock tables",
	"unlock tables",
	"analyze table",
	"optimize table",
	"use ",
}

// Parser applies DDL statements to a catalog.Catalog.
type Parser struct {
	// IncludeViews controls whether CREATE/ALTER VIEW statements are
	// surfaced at all. Views never produce a catalog.Table (see
	// DESIGN.md), so this only gates whether they are logged for
	// operator visibility; the catalog itself is never touched by a
	// view statement either way.
	IncludeViews bool
	Log          logrus.FieldLogger
}

func (p *Parser) logger() logrus.FieldLogger {
	if p.Log != nil {
		return p.Log
	}
	return logrus.StandardLogger()
}

// Parse applies one SQL statement to cat, scoped by currentSchema
// (the database the QUERY event was issued against, used to resolve
// unqualified table names). A parse failure is logged and returned as
// cdcerrors.ErrDDLParseFailed; the catalog is left untouched for that
// statement.
func (p *Parser) Parse(cat *catalog.Catalog, currentSchema, stmt string) error {
	trimmed := strings.TrimSpace(stmt)
	lower := strings.ToLower(trimmed)
	for _, prefix := range ignorablePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return nil
		}
	}
	if trimmed == "" {
		return nil
	}

	parsed, err := sqlparser.Parse(trimmed)
	if err != nil {
		p.logger().WithError(err).WithField("stmt", trimmed).Warn("ddl: failed to parse statement")
		return cdcerrors.ErrDDLParseFailed.New(err.Error())
	}

	switch node := parsed.(type) {
	case *sqlparser.CreateTable:
		return p.applyCreate(cat, currentSchema, node)
	case *sqlparser.AlterTable:
		return p.applyAlter(cat, currentSchema, node)
	case *sqlparser.DropTable:
		return p.applyDrop(cat, currentSchema, node)
	case *sqlparser.RenameTable:
		return p.applyRename(cat, currentSchema, node)
	case *sqlparser.TruncateTable:
		p.logger().WithField("table", tableID(currentSchema, node.Table)).Debug("ddl: truncate is a no-op for schema tracking")
		return nil
	case *sqlparser.CreateView, *sqlparser.AlterView:
		if p.IncludeViews {
			p.logger().WithField("schema", currentSchema).WithField("stmt", trimmed).Info("ddl: view definition observed (not tracked in catalog)")
		}
		return nil
	case *sqlparser.DropView:
		return nil
	default:
		// Not a schema-affecting statement (e.g. a stray DML that made
		// it into a QUERY event); nothing to do.
		return nil
	}
}

func resolveSchema(currentSchema string, qualifier string) string {
	if qualifier != "" {
		return qualifier
	}
	return currentSchema
}

func tableID(currentSchema string, name sqlparser.TableName) catalog.ID {
	return catalog.ID{
		Schema: resolveSchema(currentSchema, name.Qualifier.String()),
		Table:  name.Name.String(),
	}
}

func (p *Parser) applyCreate(cat *catalog.Catalog, currentSchema string, node *sqlparser.CreateTable) error {
	id := tableID(currentSchema, node.Table)

	if node.TableSpec == nil {
		if node.OptLike != nil {
			src, ok := cat.Get(tableID(currentSchema, node.OptLike.LikeTable))
			if !ok {
				p.logger().WithField("table", id).Warn("ddl: CREATE TABLE LIKE references unknown source table")
				return nil
			}
			cat.Put(catalog.NewTable(id, src.Columns, src.PrimaryKey, src.Charset))
			return nil
		}
		p.logger().WithField("table", id).Warn("ddl: CREATE TABLE with no column definitions")
		return nil
	}

	tbl, err := buildTable(id, node.TableSpec)
	if err != nil {
		return cdcerrors.ErrDDLParseFailed.New(err.Error())
	}
	cat.Put(tbl)
	return nil
}

func (p *Parser) applyDrop(cat *catalog.Catalog, currentSchema string, node *sqlparser.DropTable) error {
	for _, t := range node.FromTables {
		cat.Remove(tableID(currentSchema, t))
	}
	return nil
}

func (p *Parser) applyRename(cat *catalog.Catalog, currentSchema string, node *sqlparser.RenameTable) error {
	for _, pair := range node.TablePairs {
		oldID := tableID(currentSchema, pair.FromTable)
		newID := tableID(currentSchema, pair.ToTable)
		tbl, ok := cat.Get(oldID)
		if !ok {
			p.logger().WithField("table", oldID).Warn("ddl: RENAME TABLE references unknown table")
			continue
		}
		cat.Remove(oldID)
		cat.Put(catalog.NewTable(newID, tbl.Columns, tbl.PrimaryKey, tbl.Charset))
	}
	return nil
}

func (p *Parser) applyAlter(cat *catalog.Catalog, currentSchema string, node *sqlparser.AlterTable) error {
	id := tableID(currentSchema, node.Table)
	tbl, ok := cat.Get(id)
	if !ok {
		p.logger().WithField("table", id).Warn("ddl: ALTER TABLE references unknown table")
		return nil
	}

	for _, opt := range node.AlterOptions {
		var err error
		tbl, err = p.applyAlterOption(id, tbl, opt)
		if err != nil {
			return err
		}
	}
	cat.Put(tbl)
	return nil
}

// applyAlterOption folds one AlterOption into tbl, returning the
// updated table. AlterTable.AlterOptions is a slice because a single
// ALTER TABLE statement may carry several clauses
// ("ADD COLUMN a INT, DROP COLUMN b"); each is applied against the
// result of the previous one.
func (p *Parser) applyAlterOption(id catalog.ID, tbl catalog.Table, opt sqlparser.AlterOption) (catalog.Table, error) {
	switch o := opt.(type) {
	case *sqlparser.AddColumns:
		cols := append([]catalog.Column{}, tbl.Columns...)
		next := len(cols) + 1
		for _, def := range o.Columns {
			cols = append(cols, columnFromDefinition(next, def.Name.String(), &def.Type))
			next++
		}
		return catalog.NewTable(id, cols, tbl.PrimaryKey, tbl.Charset), nil

	case *sqlparser.DropColumn:
		name := o.Name.Name.String()
		cols := removeColumn(tbl.Columns, name)
		pk := removeFromSlice(tbl.PrimaryKey, name)
		return catalog.NewTable(id, cols, pk, tbl.Charset), nil

	case *sqlparser.ModifyColumn:
		name := o.NewColDefinition.Name.String()
		cols := replaceColumn(tbl.Columns, name, name, &o.NewColDefinition.Type)
		return catalog.NewTable(id, cols, tbl.PrimaryKey, tbl.Charset), nil

	case *sqlparser.ChangeColumn:
		oldName := o.OldColumn.Name.String()
		newName := o.NewColDefinition.Name.String()
		cols := replaceColumn(tbl.Columns, oldName, newName, &o.NewColDefinition.Type)
		pk := renameInSlice(tbl.PrimaryKey, oldName, newName)
		return catalog.NewTable(id, cols, pk, tbl.Charset), nil

	case *sqlparser.RenameColumn:
		oldName := o.OldName.Name.String()
		newName := o.NewName.Name.String()
		col, found := tbl.Column(oldName)
		if !found {
			p.logger().WithField("table", id).WithField("column", oldName).Warn("ddl: RENAME COLUMN references unknown column")
			return tbl, nil
		}
		col.Name = newName
		cols := make([]catalog.Column, len(tbl.Columns))
		for i, c := range tbl.Columns {
			if c.Name == oldName {
				cols[i] = col
			} else {
				cols[i] = c
			}
		}
		pk := renameInSlice(tbl.PrimaryKey, oldName, newName)
		return catalog.NewTable(id, cols, pk, tbl.Charset), nil

	default:
		p.logger().WithField("table", id).WithField("option", sqlparser.String(opt)).Debug("ddl: unhandled ALTER TABLE option")
		return tbl, nil
	}
}

func buildTable(id catalog.ID, spec *sqlparser.TableSpec) (catalog.Table, error) {
	cols := make([]catalog.Column, 0, len(spec.Columns))
	for i, def := range spec.Columns {
		cols = append(cols, columnFromDefinition(i+1, def.Name.String(), &def.Type))
	}

	var pk []string
	for _, idx := range spec.Indexes {
		if idx.Info != nil && idx.Info.Primary {
			for _, c := range idx.Columns {
				pk = append(pk, c.Column.String())
			}
		}
	}

	return catalog.NewTable(id, cols, pk, ""), nil
}

func columnFromDefinition(position int, name string, t *sqlparser.ColumnType) catalog.Column {
	length := int64(-1)
	if t.Length != nil {
		if n, err := strconv.ParseInt(string(t.Length.Val), 10, 64); err == nil {
			length = n
		}
	}
	scale := int64(-1)
	if t.Scale != nil {
		if n, err := strconv.ParseInt(string(t.Scale.Val), 10, 64); err == nil {
			scale = n
		}
	}

	return catalog.Column{
		Name:          name,
		Position:      position,
		Type:          jdbcTypeOf(t.Type),
		TypeName:      strings.ToLower(t.Type),
		Length:        length,
		Scale:         scale,
		Nullable:      !bool(t.NotNull),
		AutoIncrement: bool(t.Autoincrement),
		Generated:     t.GeneratedExpr != nil,
	}
}

func jdbcTypeOf(mysqlType string) int {
	switch strings.ToLower(mysqlType) {
	case "tinyint":
		return schema.TypeTinyInt
	case "smallint", "year":
		return schema.TypeSmallInt
	case "int", "integer", "mediumint":
		return schema.TypeInteger
	case "bigint":
		return schema.TypeBigInt
	case "float":
		return schema.TypeFloat
	case "double", "real":
		return schema.TypeDouble
	case "decimal", "numeric":
		return schema.TypeDecimal
	case "char":
		return schema.TypeChar
	case "varchar":
		return schema.TypeVarchar
	case "text", "tinytext", "mediumtext", "longtext", "enum", "set", "json":
		return schema.TypeLongVarchar
	case "binary":
		return schema.TypeBinary
	case "varbinary":
		return schema.TypeVarbinary
	case "blob", "tinyblob", "mediumblob", "longblob":
		return schema.TypeBlob
	case "date":
		return schema.TypeDate
	case "time":
		return schema.TypeTime
	case "datetime", "timestamp":
		return schema.TypeTimestamp
	case "bit":
		return schema.TypeBit
	case "bool", "boolean":
		return schema.TypeBoolean
	default:
		return schema.TypeVarchar
	}
}

func removeColumn(cols []catalog.Column, name string) []catalog.Column {
	out := make([]catalog.Column, 0, len(cols))
	pos := 1
	for _, c := range cols {
		if c.Name == name {
			continue
		}
		c.Position = pos
		pos++
		out = append(out, c)
	}
	return out
}

func replaceColumn(cols []catalog.Column, oldName, newName string, t *sqlparser.ColumnType) []catalog.Column {
	out := make([]catalog.Column, len(cols))
	for i, c := range cols {
		if c.Name == oldName {
			out[i] = columnFromDefinition(c.Position, newName, t)
			continue
		}
		out[i] = c
	}
	return out
}

func removeFromSlice(s []string, v string) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func renameInSlice(s []string, oldName, newName string) []string {
	out := make([]string, len(s))
	for i, x := range s {
		if x == oldName {
			out[i] = newName
		} else {
			out[i] = x
		}
	}
	return out
}
