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

// Command cdcctl demonstrates wiring the CDC core together: catalog,
// converter cache, ddl parser, durable history, and a logging sink.
// It replays existing history and then would hand the processor to an
// external binlog-client driver loop; that loop is out of scope for
// this repository (see spec Non-goals) and is left to the caller.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dolthub/go-mysql-cdc/catalog"
	"github.com/dolthub/go-mysql-cdc/config"
	"github.com/dolthub/go-mysql-cdc/convert"
	"github.com/dolthub/go-mysql-cdc/ddl"
	"github.com/dolthub/go-mysql-cdc/engine"
	"github.com/dolthub/go-mysql-cdc/history"
	"github.com/dolthub/go-mysql-cdc/internal/logging"
	"github.com/dolthub/go-mysql-cdc/sink"
	"github.com/dolthub/go-mysql-cdc/topic"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cdcctl:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "optional JSON config file overriding CDC_* env vars")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.HistoryPath == "" {
		return fmt.Errorf("CDC_HISTORY_PATH (or config HistoryPath) is required")
	}

	log := logging.New(*logLevel)

	store, err := history.OpenBoltStore(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	cat := catalog.New()
	cache := convert.New()
	cache.Filter = convert.NameFilter(cfg.TableFilter)
	parser := &ddl.Parser{IncludeViews: cfg.IncludeViews, Log: log}
	var snk sink.Sink = &sink.LoggingSink{Log: log}

	proc := engine.NewProcessor(cat, cache, parser, store, snk, &engine.Config{
		Server:             cfg.Server,
		Topics:             topic.DefaultSelector(cfg.TopicPrefix),
		SchemaChangeTopics: topic.DefaultSchemaChangeSelector(cfg.TopicPrefix),
		EmitSchemaChange:   cfg.EmitSchemaChange,
		EmitBeforeImage:    cfg.EmitBeforeImage,
		Log:                log,
	})

	ctx := context.Background()
	stats, err := proc.Replay(ctx)
	if err != nil {
		return fmt.Errorf("replaying history: %w", err)
	}
	log.WithField("records_applied", stats.RecordsApplied).
		WithField("parse_errors", stats.ParseErrors).
		Info("cdcctl: replay complete, ready to dispatch events from a driver")

	return nil
}
