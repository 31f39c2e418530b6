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

// Package history durably records every DDL statement the engine
// applies, in the order it applied them, so the catalog can be rebuilt
// by replay on restart rather than relying on transient in-memory
// state.
package history

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"github.com/dolthub/go-mysql-cdc/cdcerrors"
	"github.com/dolthub/go-mysql-cdc/position"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var recordsBucket = []byte("ddl_history")

// Record is the durable, JSON-encodable shape of one applied (or
// attempted) DDL statement.
type Record struct {
	Partition position.Partition
	Offset    position.Offset
	Database  string
	DDL       string
	// Applied is false when the statement failed to parse; it is still
	// recorded so a later replay can report the same parse error rather
	// than silently skipping the statement.
	Applied bool
	// CatalogSnapshot is an optional opaque blob a Store implementation
	// may use to bound replay (e.g. truncate history once a snapshot is
	// durable). BoltStore accepts it but does not currently act on it.
	CatalogSnapshot []byte
	// WriterID identifies the process that recorded this entry, so two
	// processes briefly writing to the same history (e.g. during a
	// handoff) can be told apart in the log. Stamped by BoltStore.Record,
	// not the caller.
	WriterID string
}

// Store is the durable DDL log contract.
type Store interface {
	// Record durably appends rec. A failure is fatal: the engine cannot
	// safely advance its position without a durable record of the DDL
	// that produced the current catalog state.
	Record(ctx context.Context, rec Record) error
	// Replay delivers every recorded Record, in the exact order it was
	// appended, to fn. Replay stops and returns fn's error if fn returns
	// one.
	Replay(ctx context.Context, fn func(Record) error) error
}

// BoltStore is a Store backed by a local go.etcd.io/bbolt file. Keys
// are a monotonic big-endian uint64 sequence number, so Replay via
// Cursor().First()/Next() naturally visits records in append order.
type BoltStore struct {
	db       *bolt.DB
	writerID string
}

// OpenBoltStore opens (creating if necessary) a BoltStore at path.
// Each open is assigned a fresh process-scoped writer id.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, cdcerrors.ErrHistoryWriteFailure.New(err.Error())
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, cdcerrors.ErrHistoryWriteFailure.New(err.Error())
	}
	return &BoltStore{db: db, writerID: uuid.NewString()}, nil
}

// WriterID returns the process-scoped id this store stamps onto every
// Record it writes.
func (s *BoltStore) WriterID() string {
	return s.writerID
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Record appends rec inside a single bbolt write transaction, which
// fsyncs by default, satisfying the "durable before the corresponding
// emit" requirement.
func (s *BoltStore) Record(_ context.Context, rec Record) error {
	rec.WriterID = s.writerID
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), data)
	})
	if err != nil {
		return cdcerrors.ErrHistoryWriteFailure.New(err.Error())
	}
	return nil
}

// Replay delivers every Record in append order.
func (s *BoltStore) Replay(_ context.Context, fn func(Record) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
