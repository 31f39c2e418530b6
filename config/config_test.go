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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CDC_SERVER", "server-1")
	t.Setenv("CDC_HISTORY_PATH", "/tmp/history.db")
	t.Setenv("CDC_EMIT_SCHEMA_CHANGE", "true")
	t.Setenv("CDC_TABLE_FILTER", "d.t1, d.t2")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "server-1", cfg.Server)
	require.Equal(t, "/tmp/history.db", cfg.HistoryPath)
	require.True(t, cfg.EmitSchemaChange)
	require.Equal(t, []string{"d.t1", "d.t2"}, cfg.TableFilter)
}

func TestLoad_JSONFileOverridesEnv(t *testing.T) {
	t.Setenv("CDC_SERVER", "server-1")

	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Server":"server-2"}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "server-2", cfg.Server)
}

func TestLoad_MissingEnvDefaultsToFalse(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.False(t, cfg.EmitBeforeImage)
	require.Empty(t, cfg.TableFilter)
}
