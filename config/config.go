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

// Package config loads the engine's runtime configuration from
// environment variables, with an optional JSON file override, the way
// auth.NewNativeFile loads its user file.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// Config holds every knob the engine and its wiring need. It is a
// plain struct, not a fluent builder: construct one, fill it in, pass
// it to NewProcessor.
type Config struct {
	// DSN is the source MySQL server's connection string, owned by the
	// external runner that feeds the engine events; the core itself
	// never dials MySQL.
	DSN string

	Server           string
	HistoryPath      string
	TopicPrefix      string
	EmitSchemaChange bool
	EmitBeforeImage  bool
	IncludeViews     bool
	TableFilter      []string
}

const envPrefix = "CDC_"

// Load builds a Config from CDC_*-prefixed environment variables, then
// applies an optional JSON file at jsonPath (ignored if jsonPath is
// empty) as an override on top. No secret is logged, mirroring
// auth.NewNativeFile's handling of raw passwords.
func Load(jsonPath string) (Config, error) {
	cfg := Config{
		DSN:              os.Getenv(envPrefix + "DSN"),
		Server:           os.Getenv(envPrefix + "SERVER"),
		HistoryPath:      os.Getenv(envPrefix + "HISTORY_PATH"),
		TopicPrefix:      os.Getenv(envPrefix + "TOPIC_PREFIX"),
		EmitSchemaChange: envBool(envPrefix + "EMIT_SCHEMA_CHANGE"),
		EmitBeforeImage:  envBool(envPrefix + "EMIT_BEFORE_IMAGE"),
		IncludeViews:     envBool(envPrefix + "INCLUDE_VIEWS"),
		TableFilter:      envList(envPrefix + "TABLE_FILTER"),
	}

	if jsonPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envBool(key string) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
