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

// Package position models the resumable source position the engine
// hands to the sink on every emitted record: a partition (the logical
// server) and an offset (file, byte-position, row-in-event).
package position

import (
	"fmt"
	"strconv"

	"github.com/dolthub/go-mysql-cdc/cdcerrors"
	gomysql "github.com/go-mysql-org/go-mysql/mysql"
)

// Partition identifies the logical source server a position belongs
// to. It is the single key the runner persists under.
type Partition struct {
	Server string
}

// Map renders the partition as the persisted shape: {"server": name}.
func (p Partition) Map() map[string]any {
	return map[string]any{"server": p.Server}
}

// Offset is the resumable position within one server's binlog stream:
// file name, byte position of the event, and the 0-based row index
// within a multi-row event.
type Offset struct {
	File string
	Pos  uint32
	Row  uint32
}

// Map renders the offset as the persisted shape: {"file", "pos", "row"}.
func (o Offset) Map() map[string]any {
	return map[string]any{
		"file": o.File,
		"pos":  o.Pos,
		"row":  o.Row,
	}
}

// Less reports whether o sorts strictly before other in the
// lexicographic (file, pos, row) order the engine guarantees records
// are emitted in.
func (o Offset) Less(other Offset) bool {
	if o.File != other.File {
		return o.File < other.File
	}
	if o.Pos != other.Pos {
		return o.Pos < other.Pos
	}
	return o.Row < other.Row
}

// SourcePosition is an immutable snapshot of (server, file,
// byte-position, row-in-event). New values are produced by WithX
// methods rather than mutation.
type SourcePosition struct {
	partition Partition
	offset    Offset
}

// New builds a SourcePosition from its components.
func New(server, file string, pos uint32, row uint32) SourcePosition {
	return SourcePosition{
		partition: Partition{Server: server},
		offset:    Offset{File: file, Pos: pos, Row: row},
	}
}

func (s SourcePosition) Partition() Partition { return s.partition }
func (s SourcePosition) Offset() Offset       { return s.offset }

// WithRow returns a copy of s with the row-in-event set, used once per
// row of a multi-row event.
func (s SourcePosition) WithRow(row uint32) SourcePosition {
	s.offset.Row = row
	return s
}

// WithFile returns a copy of s advanced to a new binlog file at the
// given byte position, row reset to 0, as happens on ROTATE.
func (s SourcePosition) WithFile(file string, pos uint32) SourcePosition {
	return SourcePosition{
		partition: s.partition,
		offset:    Offset{File: file, Pos: pos, Row: 0},
	}
}

// WithEventPos returns a copy of s at a new byte position within the
// current file, row reset to 0, as happens at the start of each event.
func (s SourcePosition) WithEventPos(pos uint32) SourcePosition {
	return SourcePosition{
		partition: s.partition,
		offset:    Offset{File: s.offset.File, Pos: pos, Row: 0},
	}
}

func (s SourcePosition) String() string {
	return fmt.Sprintf("%s@%s:%d#%d", s.partition.Server, s.offset.File, s.offset.Pos, s.offset.Row)
}

// GoMySQLPosition adapts the offset to the go-mysql-org/go-mysql
// position type used to talk to a live server (e.g. SHOW MASTER
// STATUS, RunFrom), matching the pattern in deanbaker-spirit's
// pkg/repl/client.go.
func (s SourcePosition) GoMySQLPosition() gomysql.Position {
	return gomysql.Position{Name: s.offset.File, Pos: s.offset.Pos}
}

// DecodePartition implements the persisted-partition contract of
// spec.md §6: a mapping with the single key "server".
func DecodePartition(m map[string]any) (Partition, error) {
	server, _ := m["server"].(string)
	return Partition{Server: server}, nil
}

// DecodeOffset implements the tolerant persisted-offset contract of
// spec.md §6: missing "row" defaults to 0, "pos"/"row" may be encoded
// as numbers or as decimal strings, and a missing "file" is fatal.
func DecodeOffset(m map[string]any) (Offset, error) {
	file, ok := m["file"].(string)
	if !ok || file == "" {
		return Offset{}, cdcerrors.ErrOffsetDecodeFailed.New("missing \"file\"")
	}

	pos, err := decodeUint32(m["pos"])
	if err != nil {
		return Offset{}, cdcerrors.ErrOffsetDecodeFailed.New(err.Error())
	}

	row := uint32(0)
	if raw, present := m["row"]; present {
		row, err = decodeUint32(raw)
		if err != nil {
			return Offset{}, cdcerrors.ErrOffsetDecodeFailed.New(err.Error())
		}
	}

	return Offset{File: file, Pos: pos, Row: row}, nil
}

func decodeUint32(v any) (uint32, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int:
		return uint32(val), nil
	case int32:
		return uint32(val), nil
	case int64:
		return uint32(val), nil
	case uint32:
		return val, nil
	case uint64:
		return uint32(val), nil
	case float64:
		return uint32(val), nil
	case string:
		parsed, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid numeric offset field %q: %w", val, err)
		}
		return uint32(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported offset field type %T", v)
	}
}
