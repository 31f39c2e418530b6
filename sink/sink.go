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

// Package sink defines the output contract every converted row or
// schema-change record is delivered through.
package sink

import (
	"context"

	"github.com/dolthub/go-mysql-cdc/schema"
	"github.com/sirupsen/logrus"
)

// Record is the full tuple handed to a Sink for one row event or
// schema-change notification.
type Record struct {
	Partition     map[string]any
	Offset        map[string]any
	Topic         string
	PartitionHint *int32
	KeySchema     *schema.KeySchema
	Key           any
	ValueSchema   *schema.ValueSchema
	Value         any
}

// Sink accepts converted records. Emit is synchronous: the caller
// does not proceed (and does not advance its position) until Emit
// returns. Any error is treated as fatal by engine.Processor.
type Sink interface {
	Emit(ctx context.Context, rec Record) error
}

// LoggingSink is a minimal reference Sink that logs every record at
// Info, the same role auth.None plays for the Auth interface: a
// working implementation with no external dependency, useful for
// demos and tests.
type LoggingSink struct {
	Log logrus.FieldLogger
}

func (s *LoggingSink) logger() logrus.FieldLogger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

// Emit logs the record's topic, key, and value and always succeeds.
func (s *LoggingSink) Emit(_ context.Context, rec Record) error {
	s.logger().WithFields(logrus.Fields{
		"topic":  rec.Topic,
		"key":    rec.Key,
		"value":  rec.Value,
		"offset": rec.Offset,
	}).Info("sink: emitted record")
	return nil
}
